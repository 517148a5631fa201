package embedding

import (
	"context"
	"fmt"
	"strconv"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/cloudwego/eino-ext/components/embedding/ollama"
)

type ollamaEmbedder struct {
	model     *ollama.Embedder
	batchSize int
}

// InitEmbedder 初始化 Ollama 嵌入模型,用于文章标题与摘要的向量化
func InitEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	model, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
		Model:   cfg.Embedder.Model,
		BaseURL: cfg.Embedder.Host + ":" + strconv.Itoa(cfg.Embedder.Port),
	})
	if err != nil {
		return nil, fmt.Errorf("初始化嵌入模型失败: %w", err)
	}
	batchSize := cfg.Embedder.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	return &ollamaEmbedder{model: model, batchSize: batchSize}, nil
}

func (e *ollamaEmbedder) BatchSize() int {
	return e.batchSize
}

func (e *ollamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.model.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("嵌入结果数量不匹配: 期望 %d, 实际 %d", len(texts), len(vectors))
	}
	return toFloat32(vectors), nil
}

// EmbedStrings 返回 float64,索引中使用 float32
func toFloat32(vectors [][]float64) [][]float32 {
	out := make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		f := make([]float32, len(v))
		for i, x := range v {
			f[i] = float32(x)
		}
		out = append(out, f)
	}
	return out
}
