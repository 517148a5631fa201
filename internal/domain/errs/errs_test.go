package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIErrorKind(t *testing.T) {
	tests := []struct {
		ret  int
		want error
	}{
		{RetInvalidSession, ErrAuthExpired},
		{RetInvalidToken, ErrAuthExpired},
		{RetFreqControl, ErrPlatform},
		{-1, ErrPlatform},
	}
	for _, tt := range tests {
		err := fmt.Errorf("wrapped: %w", NewAPIError(tt.ret, "msg"))
		assert.ErrorIs(t, err, tt.want, "ret %d", tt.ret)
		assert.True(t, IsRet(err, tt.ret))
	}
	assert.False(t, IsRet(errors.New("plain"), RetInvalidSession))
}

func TestExitCodeAndHint(t *testing.T) {
	tests := []struct {
		err  error
		code int
		hint bool
	}{
		{nil, 0, false},
		{fmt.Errorf("x: %w", ErrLoginTimeout), 2, true},
		{fmt.Errorf("x: %w", ErrAccountIDResolution), 3, true},
		{NewAPIError(RetInvalidSession, "invalid session"), 4, true},
		{fmt.Errorf("%w: dial tcp", ErrNetwork), 5, true},
		{errors.New("boom"), 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, ExitCode(tt.err), "%v", tt.err)
		if tt.err != nil {
			assert.Equal(t, tt.hint, Hint(tt.err) != "", "%v", tt.err)
		}
	}
}
