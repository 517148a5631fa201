package entity

import (
	"net/url"
	"regexp"
)

// HomeProfile 从后台首页内联脚本中解析出的账号信息
type HomeProfile struct {
	AccountID string
	Nickname  string
}

var (
	// 只接受带引号的值或 URL 中的 fakeid= 参数,未加引号的是 JS 变量名
	fakeIDPattern   = regexp.MustCompile(`(?:fake_id|fakeid)["']?\s*[:=]\s*["']([A-Za-z0-9_=+/-]+)["']|[?&]fakeid=([A-Za-z0-9_%=+-]+)`)
	nicknamePattern = regexp.MustCompile(`nick_name["']?\s*[:=]\s*["']([^"']+)["']`)
)

// ParseHomeProfile 按顺序扫描脚本,取第一个匹配的 fakeid 与昵称,只是尽力而为
func ParseHomeProfile(scripts []string) *HomeProfile {
	profile := &HomeProfile{}
	for _, script := range scripts {
		if profile.AccountID == "" {
			if m := fakeIDPattern.FindStringSubmatch(script); m != nil {
				profile.AccountID = m[1]
				if profile.AccountID == "" {
					profile.AccountID, _ = url.QueryUnescape(m[2])
				}
			}
		}
		if profile.Nickname == "" {
			if m := nicknamePattern.FindStringSubmatch(script); m != nil {
				profile.Nickname = m[1]
			}
		}
	}
	return profile
}
