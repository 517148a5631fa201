package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esutil"
	"github.com/sirupsen/logrus"
)

type typedEsClient[D model.Document] struct {
	client *elasticsearch.TypedClient
	index  string
	logger logrus.FieldLogger
	// 仅用于获取 mapping,不存储数据
	schemaDoc D
}

// InitTypedEsClient index 为空时使用文档类型的默认索引
func InitTypedEsClient[D model.Document](cfg *config.Config, index string, logger logrus.FieldLogger) (TypedEsClient[D], error) {
	typedClient, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Username: cfg.Elasticsearch.Username,
		Password: cfg.Elasticsearch.Password,
		Addresses: []string{
			cfg.Elasticsearch.Address,
		},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			// 跳过TLS验证(本地自签名证书)
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Elasticsearch 客户端失败: %w", err)
	}
	tec := &typedEsClient[D]{
		client: typedClient,
		index:  index,
		logger: logger.WithField("component", "es"),
	}
	if tec.index == "" {
		tec.index = tec.schemaDoc.GetIndex()
	}
	return tec, nil
}

func (tec *typedEsClient[D]) Index() string {
	return tec.index
}

func (tec *typedEsClient[D]) CreateIndexWithMapping(ctx context.Context) error {
	exists, err := tec.client.Indices.Exists(tec.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("检查索引是否存在失败: %w", err)
	}
	if exists {
		tec.logger.Debugf("索引 %s 已存在, 跳过创建", tec.index)
		return nil
	}

	mapping := tec.schemaDoc.GetTypeMapping()
	if mapping == nil {
		_, err = tec.client.Indices.Create(tec.index).Do(ctx)
	} else {
		_, err = tec.client.Indices.Create(tec.index).Mappings(mapping).Do(ctx)
	}
	if err != nil {
		return fmt.Errorf("创建索引 %s 失败: %w", tec.index, err)
	}
	tec.logger.Infof("已创建索引 %s", tec.index)
	return nil
}

// DeleteIndex 索引不存在时直接返回
func (tec *typedEsClient[D]) DeleteIndex(ctx context.Context) error {
	exists, err := tec.client.Indices.Exists(tec.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("检查索引是否存在失败: %w", err)
	}
	if !exists {
		return nil
	}
	if _, err := tec.client.Indices.Delete(tec.index).Do(ctx); err != nil {
		return fmt.Errorf("删除索引 %s 失败: %w", tec.index, err)
	}
	tec.logger.Infof("已删除索引 %s", tec.index)
	return nil
}

func (tec *typedEsClient[D]) BulkIndexDocsWithID(ctx context.Context, docs []D) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         tec.index,
		Client:        tec.client,
		NumWorkers:    2,
		FlushBytes:    5 * 1024 * 1024,
		FlushInterval: 30 * time.Second,
		OnError: func(ctx context.Context, err error) {
			tec.logger.Errorf("批量写入出错: %v", err)
		},
	})
	if err != nil {
		return 0, fmt.Errorf("创建批量写入器失败: %w", err)
	}

	var failed atomic.Int64
	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			failed.Add(1)
			tec.logger.Warnf("序列化文档 %s 失败: %v", doc.GetID(), err)
			continue
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.GetID(),
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					tec.logger.Warnf("写入文档 %s 失败: %v", item.DocumentID, err)
				} else {
					tec.logger.Warnf("写入文档 %s 失败: %s", item.DocumentID, res.Error.Reason)
				}
			},
		})
		if err != nil {
			bi.Close(ctx) //nolint:errcheck
			return 0, fmt.Errorf("添加文档到批量写入器失败: %w", err)
		}
	}

	// 刷新并关闭,确保所有文档都被处理
	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("关闭批量写入器失败: %w", err)
	}
	stats := bi.Stats()
	tec.logger.Debugf("批量写入完成: 成功 %d, 失败 %d", stats.NumIndexed, stats.NumFailed)
	if n := failed.Load(); n > 0 {
		return int(stats.NumIndexed), fmt.Errorf("%d 篇文档写入失败", n)
	}
	return int(stats.NumIndexed), nil
}

func (tec *typedEsClient[D]) CountDocs(ctx context.Context) (int64, error) {
	resp, err := tec.client.Count().Index(tec.index).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("统计索引 %s 文档数失败: %w", tec.index, err)
	}
	return resp.Count, nil
}
