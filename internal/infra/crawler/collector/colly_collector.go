package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/entity"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/errs"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const (
	ctxKeyStatus  = "status"
	ctxKeyBody    = "body"
	ctxKeyScripts = "scripts"
)

type collyMPClient struct {
	colly  *colly.Collector
	cfg    *config.Config
	logger logrus.FieldLogger
}

func InitCollyMPClient(cfg *config.Config, logger logrus.FieldLogger) (MPClient, error) {
	opts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		// 非 2xx 的响应也交给 OnResponse,由我们自己判断是否为 session 失效
		colly.ParseHTTPErrorResponse(),
	}
	if cfg.Colly.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.Colly.UserAgent))
	}
	if len(cfg.Colly.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(cfg.Colly.AllowedDomains...))
	}
	c := colly.NewCollector(opts...)
	if cfg.Colly.RequestTimeout > 0 {
		c.SetRequestTimeout(time.Duration(cfg.Colly.RequestTimeout) * time.Second)
	}
	// 串行请求,并在请求之间等待 delay + [0, random_delay) 秒
	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       time.Duration(cfg.Colly.Delay) * time.Second,
		RandomDelay: time.Duration(cfg.Colly.RandomDelay) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("设置请求限速失败: %w", err)
	}

	return &collyMPClient{colly: c, cfg: cfg, logger: logger.WithField("component", "colly")}, nil
}

// withContext 为单次请求克隆 collector 并绑定 ctx,取消时正在进行的请求会被中断
// Clone 共享限速规则与 http client,但不复制回调
func (cc *collyMPClient) withContext(ctx context.Context) *colly.Collector {
	c := cc.colly.Clone()
	colly.StdlibContext(ctx)(c)

	c.OnRequest(func(r *colly.Request) {
		cc.logger.Debugf("请求: %s", redactToken(r.URL))
	})
	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxKeyStatus, r.StatusCode)
		r.Ctx.Put(ctxKeyBody, r.Body)
	})
	c.OnHTML("script", func(e *colly.HTMLElement) {
		scripts, _ := e.Request.Ctx.GetAny(ctxKeyScripts).([]string)
		e.Request.Ctx.Put(ctxKeyScripts, append(scripts, e.Text))
	})
	c.OnError(func(r *colly.Response, err error) {
		cc.logger.Debugf("请求失败 (URL: %s): %v", redactToken(r.Request.URL), err)
	})
	return c
}

func (cc *collyMPClient) PublishPage(ctx context.Context, sess *model.Session, fakeid string, begin, count int) (*entity.RowPublishPage, error) {
	params := url.Values{}
	params.Set("action", "list_ex")
	params.Set("begin", strconv.Itoa(begin))
	params.Set("count", strconv.Itoa(count))
	params.Set("fakeid", fakeid)
	params.Set("type", "101_1")
	params.Set("token", sess.Token())
	params.Set("lang", cc.lang())
	params.Set("f", "json")
	params.Set("ajax", "1")

	body, _, err := cc.get(ctx, sess, cc.cfg.Platform.ArticlesPath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("collector.PublishPage: %w", err)
	}
	page, err := entity.ParsePublishPage(body)
	if err != nil {
		return nil, fmt.Errorf("collector.PublishPage: %w", err)
	}
	return page, nil
}

func (cc *collyMPClient) HomeProfile(ctx context.Context, sess *model.Session) (*entity.HomeProfile, error) {
	params := url.Values{}
	params.Set("t", "home/index")
	params.Set("lang", cc.lang())
	params.Set("token", sess.Token())

	_, scripts, err := cc.get(ctx, sess, cc.cfg.Platform.HomePath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("collector.HomeProfile: %w", err)
	}
	return entity.ParseHomeProfile(scripts), nil
}

// get 同步执行一次 GET 请求,返回响应体以及页面中的脚本内容
func (cc *collyMPClient) get(ctx context.Context, sess *model.Session, pathAndQuery string) ([]byte, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	hdr := http.Header{}
	hdr.Set("Referer", cc.cfg.Platform.BaseURL+"/")
	if cookie := cookieHeader(sess.Cookies()); cookie != "" {
		hdr.Set("Cookie", cookie)
	}

	reqCtx := colly.NewContext()
	err := cc.withContext(ctx).Request(http.MethodGet, cc.cfg.Platform.BaseURL+pathAndQuery, nil, reqCtx, hdr)
	// 请求期间被取消时不使用已收到的响应
	if ctxErr := ctx.Err(); ctxErr != nil {
		if err != nil {
			return nil, nil, errors.Join(ctxErr, err)
		}
		return nil, nil, ctxErr
	}
	if err != nil {
		if isNetworkError(err) {
			return nil, nil, fmt.Errorf("%w: %v", errs.ErrNetwork, err)
		}
		return nil, nil, err
	}

	status, ok := reqCtx.GetAny(ctxKeyStatus).(int)
	if !ok {
		return nil, nil, fmt.Errorf("%w: 未收到响应", errs.ErrNetwork)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, nil, fmt.Errorf("%w: HTTP %d", errs.ErrAuthExpired, status)
	case status >= http.StatusInternalServerError:
		return nil, nil, fmt.Errorf("%w: HTTP %d", errs.ErrNetwork, status)
	case status >= http.StatusBadRequest:
		return nil, nil, fmt.Errorf("%w: HTTP %d", errs.ErrPlatform, status)
	}
	body, _ := reqCtx.GetAny(ctxKeyBody).([]byte)
	scripts, _ := reqCtx.GetAny(ctxKeyScripts).([]string)
	return body, scripts, nil
}

func (cc *collyMPClient) lang() string {
	if cc.cfg.Platform.Lang != "" {
		return cc.cfg.Platform.Lang
	}
	return "zh_CN"
}

func cookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

// 日志中不打印 token
func redactToken(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "***")
	}
	cp := *u
	cp.RawQuery = q.Encode()
	return cp.String()
}
