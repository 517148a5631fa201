package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginTimeout 用户未在规定时间内扫码,或浏览器被关闭
	ErrLoginTimeout = errors.New("login timeout")
	// ErrAccountIDResolution 无法确定 fakeid
	ErrAccountIDResolution = errors.New("account id resolution failed")
	// ErrAuthExpired 平台拒绝了当前 session
	ErrAuthExpired = errors.New("auth expired")
	// ErrNetwork 网络连接问题,不会自动重试
	ErrNetwork = errors.New("network error")
	// ErrPlatform 平台返回了无法识别的响应或非会话类错误码
	ErrPlatform = errors.New("platform error")
)

// 平台 base_resp.ret 中与会话失效相关的错误码
const (
	RetOK             = 0
	RetInvalidSession = 200003
	RetInvalidToken   = 200040
	RetFreqControl    = 200013
)

// APIError 平台在 base_resp 中返回的错误
type APIError struct {
	Ret  int
	Msg  string
	Kind error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform ret %d: %s", e.Ret, e.Msg)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// NewAPIError 根据错误码归类
func NewAPIError(ret int, msg string) *APIError {
	kind := ErrPlatform
	switch ret {
	case RetInvalidSession, RetInvalidToken:
		kind = ErrAuthExpired
	}
	return &APIError{Ret: ret, Msg: msg, Kind: kind}
}

// IsRet err 链中是否有 ret 等于给定错误码的 APIError
func IsRet(err error, ret int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Ret == ret
	}
	return false
}

// ExitCode 进程退出码,nil 为 0
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrLoginTimeout):
		return 2
	case errors.Is(err, ErrAccountIDResolution):
		return 3
	case errors.Is(err, ErrAuthExpired):
		return 4
	case errors.Is(err, ErrNetwork):
		return 5
	default:
		return 1
	}
}

// Hint 给用户的下一步提示
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrLoginTimeout):
		return "登录超时,请重新运行 --login 并在时间内扫码"
	case errors.Is(err, ErrAccountIDResolution):
		return "无法自动获取 fakeid,请通过 --fakeid 指定"
	case errors.Is(err, ErrAuthExpired):
		return "session 已失效,请重新运行 --login"
	case errors.Is(err, ErrNetwork):
		return "网络错误,请检查网络后重试"
	default:
		return ""
	}
}
