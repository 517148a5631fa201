package chrome

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type rodLauncher struct {
	cfg *config.Config
}

func InitRodLauncher(cfg *config.Config) Launcher {
	return &rodLauncher{cfg: cfg}
}

type rodPage struct {
	launcher  *launcher.Launcher
	keepData  bool
	browser   *rod.Browser
	page      *rod.Page
	closeOnce sync.Once
}

func (rl *rodLauncher) createLauncher(ctx context.Context) *launcher.Launcher {
	cfg := rl.cfg
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Rod.Headless).
		Leakless(cfg.Rod.Leakless).
		NoSandbox(cfg.Rod.NoSandbox)
	if cfg.Rod.Bin != "" {
		l = l.Bin(cfg.Rod.Bin)
	}
	if cfg.Rod.UserDataDir != "" {
		l = l.UserDataDir(cfg.Rod.UserDataDir)
	}
	if cfg.Rod.UserAgent != "" {
		l = l.Set(flags.Flag("user-agent"), cfg.Rod.UserAgent)
	}
	if cfg.Rod.DisableBlinkFeatures != "" {
		l = l.Set(flags.Flag("disable-blink-features"), cfg.Rod.DisableBlinkFeatures)
	}
	if cfg.Rod.Incognito {
		l = l.Set(flags.Flag("incognito"))
	}
	if cfg.Rod.DisableDevShmUsage {
		l = l.Set(flags.Flag("disable-dev-shm-usage"))
	}
	return l
}

func (rl *rodLauncher) Open(ctx context.Context) (LoginPage, error) {
	l := rl.createLauncher(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	// 使用 stealth 隐藏自动化特征,降低被风控的概率
	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("获取页面失败: %w", err)
	}
	return &rodPage{launcher: l, keepData: rl.cfg.Rod.UserDataDir != "", browser: browser, page: page}, nil
}

// closed 判断页面是否已经不存在于浏览器中
func (rp *rodPage) closed() bool {
	pages, err := rp.browser.Pages()
	if err != nil {
		return true
	}
	for _, p := range pages {
		if p.TargetID == rp.page.TargetID {
			return false
		}
	}
	return true
}

func (rp *rodPage) wrap(err error) error {
	if err != nil && rp.closed() {
		return fmt.Errorf("%w: %v", ErrPageClosed, err)
	}
	return err
}

func (rp *rodPage) Navigate(ctx context.Context, url string) error {
	page := rp.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("导航失败: %w", rp.wrap(err))
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", rp.wrap(err))
	}
	return nil
}

func (rp *rodPage) URL(ctx context.Context) (string, error) {
	info, err := rp.page.Context(ctx).Info()
	if err != nil {
		return "", rp.wrap(err)
	}
	return info.URL, nil
}

func (rp *rodPage) EvalString(ctx context.Context, fn string) (string, error) {
	res, err := rp.page.Context(ctx).Eval(fn)
	if err != nil {
		return "", fmt.Errorf("执行JS失败: %w", rp.wrap(err))
	}
	return res.Value.Str(), nil
}

func (rp *rodPage) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	cookies, err := rp.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("获取cookie失败: %w", rp.wrap(err))
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

func (rp *rodPage) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	el, err := rp.page.Context(ctx).Timeout(10 * time.Second).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("查找元素失败: %w", rp.wrap(err))
	}
	buf, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("截图失败: %w", rp.wrap(err))
	}
	return buf, nil
}

func (rp *rodPage) Close() error {
	var err error
	rp.closeOnce.Do(func() {
		// 页面可能已经被用户关闭,这里只关心浏览器进程是否退出
		_ = rp.page.Close()
		err = rp.browser.Close()
		rp.launcher.Kill()
		// Cleanup 会删除用户数据目录,配置了持久化目录时跳过
		if !rp.keepData {
			rp.launcher.Cleanup()
		}
	})
	return err
}
