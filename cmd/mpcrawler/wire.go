package main

import (
	"context"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/crawler/collector"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/embedding"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/persistence/es"
	articlesvc "github.com/LouYuanbo1/mpcrawler/internal/service/article"
	exportsvc "github.com/LouYuanbo1/mpcrawler/internal/service/export"
	loginsvc "github.com/LouYuanbo1/mpcrawler/internal/service/login"
	"github.com/LouYuanbo1/mpcrawler/param"
	"github.com/sirupsen/logrus"
)

func initLoginService(cfg *config.Config, log logrus.FieldLogger) (loginsvc.LoginService, error) {
	launcher, err := chrome.InitLauncher(cfg)
	if err != nil {
		return nil, err
	}
	return loginsvc.InitBrowserLoginService(launcher, param.NewLogin(cfg), log)
}

func initArticleService(cfg *config.Config, log logrus.FieldLogger) (articlesvc.ArticleService, error) {
	client, err := collector.InitCollyMPClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return articlesvc.InitMPArticleService(client, param.NewFetch(cfg), log)
}

func initExportService(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (exportsvc.ExportService[*model.ArticleDoc], error) {
	index := cfg.Elasticsearch.Index
	if index == "" {
		index = model.ArticleIndex
	}
	//运行前确保es服务启动完成
	esClient, err := es.InitTypedEsClient[*model.ArticleDoc](cfg, index, log)
	if err != nil {
		return nil, err
	}
	// 未配置嵌入模型时只写入文档
	var embedder embedding.Embedder
	if cfg.Embedder.Model != "" {
		embedder, err = embedding.InitEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	return exportsvc.InitEsExportService(esClient, embedder, param.NewExport(cfg, index), log)
}
