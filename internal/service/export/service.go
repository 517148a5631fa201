package service

import (
	"context"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
)

type Result struct {
	Index    string
	Indexed  int
	Embedded int
	// 写入后索引中的文档总数
	Total int64
}

// ExportService 将抓取到的文档写入 Elasticsearch,可选地先生成向量
type ExportService[D model.Document] interface {
	Export(ctx context.Context, docs []D) (*Result, error)
}
