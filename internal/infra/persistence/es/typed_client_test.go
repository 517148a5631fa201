package es

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIndex = "mp_articles_test"

// fakeES 模拟 Elasticsearch 的部分接口,failIDs 中的文档在 _bulk 中返回失败
type fakeES struct {
	mu       sync.Mutex
	exists   bool
	requests []string
	bulkIDs  []string
	failIDs  map[string]bool
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/"+testIndex:
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/"+testIndex:
		f.exists = true
		w.Write([]byte(`{"acknowledged":true,"shards_acknowledged":true,"index":"` + testIndex + `"}`)) //nolint:errcheck
	case r.Method == http.MethodDelete && r.URL.Path == "/"+testIndex:
		f.exists = false
		w.Write([]byte(`{"acknowledged":true}`)) //nolint:errcheck
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		f.bulk(w, r)
	case strings.HasSuffix(r.URL.Path, "/_count"):
		w.Write([]byte(`{"count":` + strconv.Itoa(len(f.bulkIDs)-len(f.failIDs)) + `,"_shards":{"total":1,"successful":1,"skipped":0,"failed":0}}`)) //nolint:errcheck
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"not_found","reason":"unexpected request"},"status":404}`)) //nolint:errcheck
	}
}

// bulk 请求体为 NDJSON: 一行 action,一行文档
func (f *fakeES) bulk(w http.ResponseWriter, r *http.Request) {
	items := make([]map[string]any, 0)
	sc := bufio.NewScanner(r.Body)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		var action map[string]map[string]any
		if err := json.Unmarshal(sc.Bytes(), &action); err != nil {
			continue
		}
		meta, ok := action["index"]
		if !ok {
			continue
		}
		sc.Scan()
		id, _ := meta["_id"].(string)
		f.bulkIDs = append(f.bulkIDs, id)
		if f.failIDs[id] {
			items = append(items, map[string]any{"index": map[string]any{
				"_index": testIndex, "_id": id, "status": 400,
				"error": map[string]any{"type": "mapper_parsing_exception", "reason": "failed to parse"},
			}})
			continue
		}
		items = append(items, map[string]any{"index": map[string]any{
			"_index": testIndex, "_id": id, "status": 201, "result": "created",
		}})
	}
	json.NewEncoder(w).Encode(map[string]any{"took": 1, "errors": len(f.failIDs) > 0, "items": items}) //nolint:errcheck
}

func newTestClient(t *testing.T, srv *httptest.Server) TypedEsClient[*model.ArticleDoc] {
	t.Helper()
	cfg := &config.Config{}
	cfg.Elasticsearch.Address = srv.URL
	client, err := InitTypedEsClient[*model.ArticleDoc](cfg, testIndex, logger.Discard())
	require.NoError(t, err)
	return client
}

func testDocs(ids ...string) []*model.ArticleDoc {
	docs := make([]*model.ArticleDoc, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, &model.ArticleDoc{ID: id, Title: "title " + id, Link: "https://mp.weixin.qq.com/s/" + id})
	}
	return docs
}

func TestBulkIndexDocsWithID(t *testing.T) {
	fake := &fakeES{exists: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv)
	n, err := client.BulkIndexDocsWithID(context.Background(), testDocs("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	// 两个 worker 分别 flush,顺序不固定
	assert.ElementsMatch(t, []string{"a", "b", "c"}, fake.bulkIDs)

	total, err := client.CountDocs(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestBulkIndexDocsWithIDPartialFailure(t *testing.T) {
	fake := &fakeES{exists: true, failIDs: map[string]bool{"b": true}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv)
	n, err := client.BulkIndexDocsWithID(context.Background(), testDocs("a", "b", "c"))
	assert.Equal(t, 2, n)
	assert.ErrorContains(t, err, "1 篇文档写入失败")
}

func TestBulkIndexDocsWithIDEmpty(t *testing.T) {
	fake := &fakeES{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv)
	n, err := client.BulkIndexDocsWithID(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fake.requests)
}

func TestCreateAndDeleteIndex(t *testing.T) {
	fake := &fakeES{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := newTestClient(t, srv)
	assert.Equal(t, testIndex, client.Index())

	// 索引不存在时删除是空操作
	require.NoError(t, client.DeleteIndex(context.Background()))
	assert.Equal(t, []string{"HEAD /" + testIndex}, fake.requests)

	require.NoError(t, client.CreateIndexWithMapping(context.Background()))
	assert.True(t, fake.exists)

	// 已存在时不再创建
	fake.requests = nil
	require.NoError(t, client.CreateIndexWithMapping(context.Background()))
	assert.Equal(t, []string{"HEAD /" + testIndex}, fake.requests)

	require.NoError(t, client.DeleteIndex(context.Background()))
	assert.False(t, fake.exists)
	assert.Contains(t, fake.requests, "DELETE /"+testIndex)
}

func TestDefaultIndex(t *testing.T) {
	cfg := &config.Config{}
	cfg.Elasticsearch.Address = "http://localhost:9200"
	client, err := InitTypedEsClient[*model.ArticleDoc](cfg, "", logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, model.ArticleIndex, client.Index())
}
