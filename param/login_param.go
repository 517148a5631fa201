package param

import (
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
)

// Login 扫码登录选项
type Login struct {
	LoginURL       string        `json:"login_url"`
	HomePath       string        `json:"home_path"`
	TokenCookie    string        `json:"token_cookie"`
	Timeout        time.Duration `json:"timeout"`
	PollInterval   time.Duration `json:"poll_interval"`
	QRCodeSelector string        `json:"qrcode_selector"`
	// 为空时不保存二维码截图
	QRCodePath string `json:"qrcode_path"`
}

func NewLogin(cfg *config.Config) *Login {
	return &Login{
		LoginURL:       cfg.Platform.BaseURL + cfg.Platform.LoginPath,
		HomePath:       cfg.Platform.HomePath,
		TokenCookie:    cfg.Platform.TokenCookie,
		Timeout:        time.Duration(cfg.Login.TimeoutSeconds) * time.Second,
		PollInterval:   time.Duration(cfg.Login.PollIntervalMillis) * time.Millisecond,
		QRCodeSelector: cfg.Login.QRCodeSelector,
		QRCodePath:     cfg.Login.QRCodePath,
	}
}

func (l *Login) IsValid() bool {
	if l.LoginURL == "" ||
		l.HomePath == "" ||
		l.Timeout <= 0 ||
		l.PollInterval <= 0 {
		return false
	}
	// 保存截图时必须知道二维码的位置
	if l.QRCodePath != "" && l.QRCodeSelector == "" {
		return false
	}
	return true
}
