package es

import (
	"context"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
)

// TypedEsClient 文档导出所需的 Elasticsearch 操作,索引名在初始化时确定
type TypedEsClient[D model.Document] interface {
	Index() string
	CreateIndexWithMapping(ctx context.Context) error
	DeleteIndex(ctx context.Context) error
	// BulkIndexDocsWithID 以文档 ID 批量写入,返回成功写入的数量
	BulkIndexDocsWithID(ctx context.Context, docs []D) (int, error)
	CountDocs(ctx context.Context) (int64, error)
}
