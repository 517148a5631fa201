package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/errs"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) MPClient {
	t.Helper()
	cfg := &config.Config{}
	cfg.Platform.BaseURL = baseURL
	cfg.Platform.HomePath = "/cgi-bin/home"
	cfg.Platform.ArticlesPath = "/cgi-bin/appmsgpublish"
	cfg.Colly.RequestTimeout = 5
	client, err := InitCollyMPClient(cfg, logger.Discard())
	require.NoError(t, err)
	return client
}

func newTestSession(t *testing.T) *model.Session {
	t.Helper()
	sess, err := model.NewSession("tok123", "", "", []*http.Cookie{
		{Name: "slave_sid", Value: "sid"},
		{Name: "data_ticket", Value: "ticket"},
	})
	require.NoError(t, err)
	return sess
}

func publishBody(t *testing.T, begin, n int) string {
	t.Helper()
	list := make([]map[string]any, 0, n)
	for i := range n {
		idx := begin + i
		info, err := json.Marshal(map[string]any{
			"appmsgex": []map[string]any{{
				"aid":         strconv.Itoa(idx),
				"title":       "article " + strconv.Itoa(idx),
				"link":        "https://mp.weixin.qq.com/s/" + strconv.Itoa(idx),
				"update_time": 1700000000 - idx,
			}},
		})
		require.NoError(t, err)
		list = append(list, map[string]any{"publish_type": 101, "publish_info": string(info)})
	}
	page, err := json.Marshal(map[string]any{"total_count": 100, "publish_list": list})
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"base_resp":    map[string]any{"ret": 0, "err_msg": "ok"},
		"publish_page": string(page),
	})
	require.NoError(t, err)
	return string(body)
}

func TestPublishPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/appmsgpublish" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		assert.Equal(t, "list_ex", q.Get("action"))
		assert.Equal(t, "tok123", q.Get("token"))
		assert.Equal(t, "MzA5", q.Get("fakeid"))
		assert.Equal(t, "5", q.Get("count"))
		assert.Equal(t, "json", q.Get("f"))
		assert.Equal(t, "zh_CN", q.Get("lang"))
		c, err := r.Cookie("slave_sid")
		if assert.NoError(t, err) {
			assert.Equal(t, "sid", c.Value)
		}
		begin, _ := strconv.Atoi(q.Get("begin"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(publishBody(t, begin, 5))) //nolint:errcheck
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	page, err := client.PublishPage(context.Background(), newTestSession(t), "MzA5", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, page.EntryCount())

	msgs, _ := page.AppMsgs()
	require.Len(t, msgs, 5)
	assert.Equal(t, "article 10", msgs[0].Title)
}

func TestPublishPageAuthErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "http 401",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: errs.ErrAuthExpired,
		},
		{
			name: "invalid session ret",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"base_resp":{"ret":200003,"err_msg":"invalid session"}}`)) //nolint:errcheck
			},
			want: errs.ErrAuthExpired,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: errs.ErrNetwork,
		},
		{
			name: "html instead of json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`<html><body>请重新登录</body></html>`)) //nolint:errcheck
			},
			want: errs.ErrPlatform,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := newTestClient(t, srv.URL)
			_, err := client.PublishPage(context.Background(), newTestSession(t), "MzA5", 0, 20)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPublishPageNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := newTestClient(t, baseURL)
	_, err := client.PublishPage(context.Background(), newTestSession(t), "MzA5", 0, 20)
	assert.ErrorIs(t, err, errs.ErrNetwork)
}

func TestPublishPageCanceledContext(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.PublishPage(ctx, newTestSession(t), "MzA5", 0, 20)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublishPageDeadlineDuringRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
			return
		}
		w.Write([]byte(publishBody(t, 0, 1))) //nolint:errcheck
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	page, err := client.PublishPage(ctx, newTestSession(t), "MzA5", 0, 20)
	assert.Nil(t, page)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHomeProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/home" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "tok123", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
<script>var a = 1;</script>
<script>wx.cgiData = { nick_name: "测试号", user_attributes: { fake_id: "MzA5MjE2Njg4NQ==" } };</script>
</head><body>fake_id: "should-not-match"</body></html>`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	profile, err := client.HomeProfile(context.Background(), newTestSession(t))
	require.NoError(t, err)
	assert.Equal(t, "MzA5MjE2Njg4NQ==", profile.AccountID)
	assert.Equal(t, "测试号", profile.Nickname)
}
