package model

import (
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// 所有的文档结构体要实现这些函数,GetIndex 与 GetTypeMapping 不能依赖接收者的字段(会在 nil 上调用)
type Document interface {
	*ArticleDoc
	GetID() string
	GetIndex() string
	GetTypeMapping() *types.TypeMapping
	GetEmbeddingString() string
	SetEmbedding(embedding []float32)
	GetEmbedding() []float32
}
