package service

import (
	"context"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
)

type LoginState string

const (
	StateIdle          LoginState = "idle"
	StateAwaitingScan  LoginState = "awaiting_scan"
	StateAuthenticated LoginState = "authenticated"
	StateTimedOut      LoginState = "timed_out"
)

// LoginService 通过浏览器完成扫码登录,得到 token 与 fakeid
type LoginService interface {
	Login(ctx context.Context) (*model.Session, error)
	State() LoginState
}
