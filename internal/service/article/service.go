package service

import (
	"context"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
)

// ArticleService 确定账号 fakeid 并分页拉取已发布文章
type ArticleService interface {
	// ResolveAccountID 优先级: 显式指定 > session 中已有 > 后台首页解析
	ResolveAccountID(ctx context.Context, sess *model.Session, explicit string) (*model.Session, error)
	FetchArticles(ctx context.Context, sess *model.Session, fakeid string) ([]*model.ArticleDoc, error)
}
