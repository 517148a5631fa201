package chrome

import (
	"testing"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLauncher(t *testing.T) {
	cfg := &config.Config{}

	l, err := InitLauncher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &chromedpLauncher{}, l)

	cfg.Login.Driver = DriverRod
	l, err = InitLauncher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &rodLauncher{}, l)

	cfg.Login.Driver = "firefox"
	_, err = InitLauncher(cfg)
	assert.Error(t, err)
}
