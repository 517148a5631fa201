package model

import (
	"errors"
	"net/http"
	"slices"
)

// Session 一次登录得到的认证上下文,只存在于进程生命周期内,创建后不可修改
type Session struct {
	token     string
	accountID string
	nickname  string
	cookies   []*http.Cookie
}

func NewSession(token, accountID, nickname string, cookies []*http.Cookie) (*Session, error) {
	if token == "" {
		return nil, errors.New("session token 不能为空")
	}
	return &Session{
		token:     token,
		accountID: accountID,
		nickname:  nickname,
		cookies:   cloneCookies(cookies),
	}, nil
}

func (s *Session) Token() string     { return s.token }
func (s *Session) AccountID() string { return s.accountID }
func (s *Session) Nickname() string  { return s.nickname }

func (s *Session) Cookies() []*http.Cookie {
	return cloneCookies(s.cookies)
}

// WithAccountID 返回带有新 fakeid 的副本,原 session 不变
func (s *Session) WithAccountID(accountID, nickname string) *Session {
	cp := *s
	cp.accountID = accountID
	if nickname != "" {
		cp.nickname = nickname
	}
	cp.cookies = cloneCookies(s.cookies)
	return &cp
}

func cloneCookies(cookies []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return slices.Clip(out)
}
