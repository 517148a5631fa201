package model

import (
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// ArticleIndex 默认索引名,可在配置 elasticsearch.index 中覆盖
const ArticleIndex = "mp_articles"

// ArticleDoc 一条已发布文章
type ArticleDoc struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Digest      string    `json:"digest,omitempty"`
	PublishTime time.Time `json:"publish_time"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

func (a *ArticleDoc) GetID() string {
	return a.ID
}

func (a *ArticleDoc) GetIndex() string {
	return ArticleIndex
}

// embedding 不声明 dims,由第一篇写入的文档决定
func (a *ArticleDoc) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"id":           types.NewKeywordProperty(),
			"account_id":   types.NewKeywordProperty(),
			"title":        types.NewTextProperty(),
			"link":         types.NewKeywordProperty(),
			"digest":       types.NewTextProperty(),
			"publish_time": types.NewDateProperty(),
			"embedding":    types.NewDenseVectorProperty(),
		},
	}
}

func (a *ArticleDoc) GetEmbeddingString() string {
	return strings.TrimSpace(a.Title + "\n" + a.Digest)
}

func (a *ArticleDoc) SetEmbedding(embedding []float32) {
	a.Embedding = embedding
}

func (a *ArticleDoc) GetEmbedding() []float32 {
	return a.Embedding
}
