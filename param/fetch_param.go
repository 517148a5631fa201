package param

import "github.com/LouYuanbo1/mpcrawler/internal/config"

// 平台单次请求最多返回 20 条
const MaxPageSize = 20

type Fetch struct {
	PageSize int `json:"page_size"`
	MaxPages int `json:"max_pages"`
}

func NewFetch(cfg *config.Config) *Fetch {
	return &Fetch{
		PageSize: cfg.Fetch.PageSize,
		MaxPages: cfg.Fetch.MaxPages,
	}
}

func (f *Fetch) IsValid() bool {
	return f.PageSize > 0 &&
		f.PageSize <= MaxPageSize &&
		f.MaxPages >= 0
}

type Export struct {
	IndexName   string `json:"index_name"`
	BatchSize   int    `json:"batch_size"`
	Concurrency int    `json:"concurrency"`
	Recreate    bool   `json:"recreate"`
}

func NewExport(cfg *config.Config, indexName string) *Export {
	return &Export{
		IndexName:   indexName,
		BatchSize:   cfg.Embedder.BatchSize,
		Concurrency: cfg.Embedder.Concurrency,
		Recreate:    cfg.Elasticsearch.Recreate,
	}
}

func (e *Export) IsValid() bool {
	return e.IndexName != "" && e.BatchSize > 0 && e.Concurrency > 0
}
