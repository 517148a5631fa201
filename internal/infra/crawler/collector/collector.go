package collector

import (
	"context"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/entity"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
)

// MPClient 公众号后台的 HTTP 接口,所有请求都携带 session 的 token 与 cookie
type MPClient interface {
	// PublishPage 获取一页已发布文章,begin/count 为平台的偏移分页参数
	PublishPage(ctx context.Context, sess *model.Session, fakeid string, begin, count int) (*entity.RowPublishPage, error)
	// HomeProfile 请求后台首页并从内联脚本中解析 fakeid
	HomeProfile(ctx context.Context, sess *model.Session) (*entity.HomeProfile, error)
}
