package chrome

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
)

// ErrPageClosed 页面或浏览器已经被关闭(用户手动关闭窗口、进程退出等)
var ErrPageClosed = errors.New("页面已关闭")

// Launcher 启动浏览器并打开一个新页面
type Launcher interface {
	Open(ctx context.Context) (LoginPage, error)
}

// LoginPage 登录流程需要的最小页面能力
type LoginPage interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	// EvalString 执行一个无参数、返回字符串的 JS 函数,例如 `() => document.title`
	EvalString(ctx context.Context, fn string) (string, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	Screenshot(ctx context.Context, selector string) ([]byte, error)
	// Close 释放页面及其浏览器,可重复调用
	Close() error
}

const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// InitLauncher 根据 login.driver 选择浏览器驱动
func InitLauncher(cfg *config.Config) (Launcher, error) {
	switch cfg.Login.Driver {
	case "", DriverChromedp:
		return InitChromedpLauncher(cfg), nil
	case DriverRod:
		return InitRodLauncher(cfg), nil
	default:
		return nil, fmt.Errorf("未知的浏览器驱动: %s", cfg.Login.Driver)
	}
}
