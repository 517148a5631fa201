package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/entity"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/errs"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/crawler/collector"
	"github.com/LouYuanbo1/mpcrawler/param"
	"github.com/sirupsen/logrus"
)

type mpArticleService struct {
	client collector.MPClient
	params *param.Fetch
	logger logrus.FieldLogger
}

func InitMPArticleService(client collector.MPClient, params *param.Fetch, logger logrus.FieldLogger) (ArticleService, error) {
	if !params.IsValid() {
		return nil, fmt.Errorf("无效的分页参数: %+v", params)
	}
	return &mpArticleService{
		client: client,
		params: params,
		logger: logger.WithField("component", "article"),
	}, nil
}

func (as *mpArticleService) ResolveAccountID(ctx context.Context, sess *model.Session, explicit string) (*model.Session, error) {
	if sess == nil {
		return nil, errors.New("缺少 session")
	}
	if explicit != "" {
		return sess.WithAccountID(explicit, sess.Nickname()), nil
	}
	if sess.AccountID() != "" {
		return sess, nil
	}

	as.logger.Info("session 中没有 fakeid,尝试从后台首页获取")
	profile, err := as.client.HomeProfile(ctx, sess)
	if err != nil {
		if errors.Is(err, errs.ErrAuthExpired) || errors.Is(err, errs.ErrNetwork) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrAccountIDResolution, err)
	}
	if profile.AccountID == "" {
		return nil, errs.ErrAccountIDResolution
	}
	nickname := sess.Nickname()
	if nickname == "" {
		nickname = profile.Nickname
	}
	as.logger.Infof("获取到 fakeid: %s", profile.AccountID)
	return sess.WithAccountID(profile.AccountID, nickname), nil
}

// FetchArticles 严格串行地分页请求,任何一次请求失败都立即返回,不做重试
func (as *mpArticleService) FetchArticles(ctx context.Context, sess *model.Session, fakeid string) ([]*model.ArticleDoc, error) {
	if sess == nil || sess.Token() == "" {
		return nil, errors.New("缺少有效的 session")
	}
	if fakeid == "" {
		return nil, errs.ErrAccountIDResolution
	}

	count := as.params.PageSize
	seen := make(map[string]struct{})
	articles := make([]*model.ArticleDoc, 0, count)

	for pages, begin := 0, 0; ; pages++ {
		if as.params.MaxPages > 0 && pages >= as.params.MaxPages {
			as.logger.Debugf("达到最大页数 %d", as.params.MaxPages)
			break
		}
		log := as.logger.WithFields(logrus.Fields{"fakeid": fakeid, "begin": begin})
		log.Debug("请求文章列表")

		page, err := as.client.PublishPage(ctx, sess, fakeid, begin, count)
		if err != nil {
			if errs.IsRet(err, errs.RetFreqControl) {
				log.Warn("触发平台频率限制, 请稍后再试或调大 colly.delay")
			}
			return nil, fmt.Errorf("获取文章列表失败 (begin=%d): %w", begin, err)
		}

		msgs, skipped := page.AppMsgs()
		if skipped > 0 {
			log.Warnf("跳过 %d 条无法解析的发布记录", skipped)
		}
		for _, doc := range entity.ToDocuments[*entity.RowAppMsg, *model.ArticleDoc](fakeid, msgs) {
			if doc.Link != "" {
				if _, ok := seen[doc.Link]; ok {
					continue
				}
				seen[doc.Link] = struct{}{}
			}
			articles = append(articles, doc)
		}

		entries := page.EntryCount()
		log.Debugf("本页 %d 条发布记录, 共 %d", entries, page.TotalCount)
		begin += entries
		if entries == 0 || entries < count {
			break
		}
		if page.TotalCount > 0 && begin >= page.TotalCount {
			break
		}
	}

	as.logger.Infof("共获取 %d 篇文章", len(articles))
	return articles, nil
}
