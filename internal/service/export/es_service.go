package service

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/embedding"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/persistence/es"
	"github.com/LouYuanbo1/mpcrawler/param"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const embedTimeout = 20 * time.Second

type esExportService[D model.Document] struct {
	typedEsClient es.TypedEsClient[D]
	// 为 nil 时不生成向量
	embedder embedding.Embedder
	params   *param.Export
	logger   logrus.FieldLogger
}

func InitEsExportService[D model.Document](
	typedEsClient es.TypedEsClient[D],
	embedder embedding.Embedder,
	params *param.Export,
	logger logrus.FieldLogger,
) (ExportService[D], error) {
	if !params.IsValid() {
		return nil, fmt.Errorf("无效的导出参数: %+v", params)
	}
	return &esExportService[D]{
		typedEsClient: typedEsClient,
		embedder:      embedder,
		params:        params,
		logger:        logger.WithField("component", "export"),
	}, nil
}

func (ex *esExportService[D]) Export(ctx context.Context, docs []D) (*Result, error) {
	result := &Result{Index: ex.typedEsClient.Index()}
	if ex.params.Recreate {
		if err := ex.typedEsClient.DeleteIndex(ctx); err != nil {
			return nil, err
		}
	}
	if err := ex.typedEsClient.CreateIndexWithMapping(ctx); err != nil {
		return nil, err
	}

	if ex.embedder != nil {
		n, err := ex.embeddingDocs(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("生成向量失败: %w", err)
		}
		result.Embedded = n
	}

	indexed, err := ex.typedEsClient.BulkIndexDocsWithID(ctx, docs)
	result.Indexed = indexed
	if err != nil {
		return result, err
	}

	total, err := ex.typedEsClient.CountDocs(ctx)
	if err != nil {
		return result, err
	}
	result.Total = total
	ex.logger.Infof("已写入索引 %s: %d 篇, 索引共 %d 篇", result.Index, indexed, total)
	return result, nil
}

// embeddingDocs 按批次生成向量,同时进行的批次数不超过 concurrency
func (ex *esExportService[D]) embeddingDocs(ctx context.Context, docs []D) (int, error) {
	batchSize := ex.params.BatchSize
	if b := ex.embedder.BatchSize(); b > 0 && b < batchSize {
		batchSize = b
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ex.params.Concurrency)
	for i := 0; i < len(docs); i += batchSize {
		batch := docs[i:min(i+batchSize, len(docs))]
		g.Go(func() error {
			texts := make([]string, 0, len(batch))
			for _, doc := range batch {
				texts = append(texts, doc.GetEmbeddingString())
			}
			reqCtx, cancel := context.WithTimeout(gctx, embedTimeout)
			defer cancel()
			vectors, err := ex.embedder.Embed(reqCtx, texts)
			if err != nil {
				return err
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("嵌入结果数量不匹配: 期望 %d, 实际 %d", len(batch), len(vectors))
			}
			for j, doc := range batch {
				doc.SetEmbedding(vectors[j])
			}
			ex.logger.Debugf("已生成 %d 条向量", len(batch))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(docs), nil
}
