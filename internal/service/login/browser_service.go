package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/errs"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mpcrawler/param"
	"github.com/sirupsen/logrus"
)

// 按顺序尝试,第一个非空值即为 fakeid
var fakeIDProbes = []string{
	"wx.cgiData.user_attributes.fake_id",
	"wx.cgiData.fake_id",
	"wx.cgiData.appmsgstat.fake_id",
}

const nicknameProbe = "wx.cgiData.nick_name"

type browserLoginService struct {
	launcher chrome.Launcher
	params   *param.Login
	logger   logrus.FieldLogger

	mu    sync.Mutex
	state LoginState
}

func InitBrowserLoginService(launcher chrome.Launcher, params *param.Login, logger logrus.FieldLogger) (LoginService, error) {
	if !params.IsValid() {
		return nil, fmt.Errorf("无效的登录参数: %+v", params)
	}
	return &browserLoginService{
		launcher: launcher,
		params:   params,
		logger:   logger.WithField("component", "login"),
		state:    StateIdle,
	}, nil
}

func (ls *browserLoginService) State() LoginState {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.state
}

func (ls *browserLoginService) setState(s LoginState) {
	ls.mu.Lock()
	ls.state = s
	ls.mu.Unlock()
	ls.logger.Debugf("登录状态: %s", s)
}

func (ls *browserLoginService) Login(ctx context.Context) (*model.Session, error) {
	ls.setState(StateIdle)

	page, err := ls.launcher.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			ls.logger.Warnf("关闭浏览器失败: %v", err)
		}
	}()

	ls.logger.Infof("打开登录页面: %s", ls.params.LoginURL)
	if err := page.Navigate(ctx, ls.params.LoginURL); err != nil {
		return nil, fmt.Errorf("%w: 打开登录页面失败: %v", errs.ErrNetwork, err)
	}

	ls.setState(StateAwaitingScan)
	ls.saveQRCode(ctx, page)
	ls.logger.Infof("请使用微信扫描二维码登录 (%s 内有效)", ls.params.Timeout)

	homeURL, err := ls.waitForHome(ctx, page)
	if err != nil {
		ls.setState(StateTimedOut)
		return nil, err
	}
	ls.setState(StateAuthenticated)
	ls.logger.Info("登录成功")

	cookies, err := page.Cookies(ctx)
	if err != nil {
		ls.logger.Warnf("读取 cookie 失败: %v", err)
	}
	token := tokenFromURL(homeURL)
	if token == "" {
		token = tokenFromCookies(cookies, ls.params.TokenCookie)
	}
	if token == "" {
		return nil, fmt.Errorf("登录成功但未找到 token (URL: %s)", homeURL)
	}

	fakeid := ls.probe(ctx, page, fakeIDProbes...)
	if fakeid == "" {
		ls.logger.Warn("未能从页面中获取 fakeid")
	}
	nickname := ls.probe(ctx, page, nicknameProbe)

	return model.NewSession(token, fakeid, nickname, cookies)
}

// waitForHome 轮询页面 URL,直到跳转到后台首页或超时
func (ls *browserLoginService) waitForHome(ctx context.Context, page chrome.LoginPage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ls.params.Timeout)
	defer cancel()

	ticker := time.NewTicker(ls.params.PollInterval)
	defer ticker.Stop()

	for {
		current, err := page.URL(ctx)
		switch {
		case errors.Is(err, chrome.ErrPageClosed):
			return "", fmt.Errorf("%w: %v", errs.ErrLoginTimeout, err)
		case err != nil:
			if ctx.Err() == nil {
				ls.logger.Debugf("读取页面 URL 失败: %v", err)
			}
		case strings.Contains(current, ls.params.HomePath):
			return current, nil
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s 内未完成扫码", errs.ErrLoginTimeout, ls.params.Timeout)
		case <-ticker.C:
		}
	}
}

func (ls *browserLoginService) saveQRCode(ctx context.Context, page chrome.LoginPage) {
	if ls.params.QRCodePath == "" {
		return
	}
	png, err := page.Screenshot(ctx, ls.params.QRCodeSelector)
	if err != nil {
		ls.logger.Warnf("二维码截图失败: %v", err)
		return
	}
	if err := os.WriteFile(ls.params.QRCodePath, png, 0o644); err != nil {
		ls.logger.Warnf("保存二维码失败: %v", err)
		return
	}
	ls.logger.Infof("二维码已保存到: %s", ls.params.QRCodePath)
}

func (ls *browserLoginService) probe(ctx context.Context, page chrome.LoginPage, exprs ...string) string {
	for _, expr := range exprs {
		v, err := page.EvalString(ctx, probeFunc(expr))
		if err != nil {
			ls.logger.Debugf("执行 %s 失败: %v", expr, err)
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// probeFunc 包装表达式,属性不存在时返回空字符串而不是抛出异常
func probeFunc(expr string) string {
	return `() => { try { const v = ` + expr + `; return v == null ? "" : String(v); } catch (e) { return ""; } }`
}

func tokenFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

func tokenFromCookies(cookies []*http.Cookie, name string) string {
	if name == "" {
		return ""
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
