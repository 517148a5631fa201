package chrome

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

type chromedpLauncher struct {
	cfg *config.Config
}

func InitChromedpLauncher(cfg *config.Config) Launcher {
	return &chromedpLauncher{cfg: cfg}
}

type chromedpPage struct {
	pageCtx       context.Context
	pageCtxFuc    context.CancelFunc
	allocCtxFuc   context.CancelFunc
	timeoutCtxFuc context.CancelFunc
	closeOnce     sync.Once
}

func (cl *chromedpLauncher) Open(ctx context.Context) (LoginPage, error) {
	cfg := cl.cfg
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Chromedp.Headless),
		chromedp.Flag("incognito", cfg.Chromedp.Incognito),
		chromedp.Flag("disable-dev-shm-usage", cfg.Chromedp.DisableDevShmUsage),
		chromedp.Flag("no-sandbox", cfg.Chromedp.NoSandbox),
	)
	if cfg.Chromedp.DisableBlinkFeatures != "" {
		opts = append(opts, chromedp.Flag("disable-blink-features", cfg.Chromedp.DisableBlinkFeatures))
	}
	if cfg.Chromedp.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Chromedp.UserDataDir))
	}
	if cfg.Chromedp.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Chromedp.UserAgent))
	}

	// LifeTime 是浏览器的最长存活时间,0 表示不限制
	timeoutCtx, cancelTimeout := ctx, context.CancelFunc(func() {})
	if cfg.Chromedp.LifeTime > 0 {
		timeoutCtx, cancelTimeout = context.WithTimeout(ctx, time.Duration(cfg.Chromedp.LifeTime)*time.Second)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(timeoutCtx, opts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	page := &chromedpPage{
		pageCtx:       pageCtx,
		pageCtxFuc:    cancelPage,
		allocCtxFuc:   cancelAlloc,
		timeoutCtxFuc: cancelTimeout,
	}
	// 第一次 Run 才会真正启动浏览器
	if err := chromedp.Run(pageCtx, network.Enable()); err != nil {
		page.Close()
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	return page, nil
}

// run 在页面上下文中执行 actions,同时响应调用方 ctx 的取消
func (cp *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	if cp.pageCtx.Err() != nil {
		return ErrPageClosed
	}
	runCtx, cancel := context.WithCancel(cp.pageCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && cp.pageCtx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrPageClosed, err)
	}
	if err != nil && ctx.Err() != nil {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

func (cp *chromedpPage) Navigate(ctx context.Context, url string) error {
	if err := cp.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	return nil
}

func (cp *chromedpPage) URL(ctx context.Context) (string, error) {
	var location string
	if err := cp.run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

func (cp *chromedpPage) EvalString(ctx context.Context, fn string) (string, error) {
	var res string
	if err := cp.run(ctx, chromedp.Evaluate("("+fn+")()", &res)); err != nil {
		return "", fmt.Errorf("执行JS失败: %w", err)
	}
	return res, nil
}

func (cp *chromedpPage) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*network.Cookie
	err := cp.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("获取cookie失败: %w", err)
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out, nil
}

func (cp *chromedpPage) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	var buf []byte
	if err := cp.run(ctx, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("截图失败: %w", err)
	}
	return buf, nil
}

func (cp *chromedpPage) Close() error {
	var err error
	cp.closeOnce.Do(func() {
		// 优雅关闭浏览器,失败时由后面的 cancel 兜底
		if cp.pageCtx.Err() == nil {
			err = chromedp.Cancel(cp.pageCtx)
		}
		cp.pageCtxFuc()
		cp.allocCtxFuc()
		cp.timeoutCtxFuc()
	})
	return err
}
