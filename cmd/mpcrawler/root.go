package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/LouYuanbo1/mpcrawler/internal/config"
	"github.com/LouYuanbo1/mpcrawler/internal/domain/model"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/logger"
	articlesvc "github.com/LouYuanbo1/mpcrawler/internal/service/article"
	exportsvc "github.com/LouYuanbo1/mpcrawler/internal/service/export"
	loginsvc "github.com/LouYuanbo1/mpcrawler/internal/service/login"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	login       bool
	getArticles bool
	fakeid      string
	token       string
	cookie      string
	debug       bool
	configPath  string
	index       bool
	reindex     bool
	jsonOutput  bool
}

type (
	loginFactory   func(cfg *config.Config, log logrus.FieldLogger) (loginsvc.LoginService, error)
	articleFactory func(cfg *config.Config, log logrus.FieldLogger) (articlesvc.ArticleService, error)
	exportFactory  func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (exportsvc.ExportService[*model.ArticleDoc], error)
)

type app struct {
	defaults []byte
	logger   *logrus.Logger
	out      io.Writer

	newLogin   loginFactory
	newArticle articleFactory
	newExport  exportFactory
}

func newApp(defaults []byte, log *logrus.Logger, out io.Writer) *app {
	return &app{
		defaults:   defaults,
		logger:     log,
		out:        out,
		newLogin:   initLoginService,
		newArticle: initArticleService,
		newExport:  initExportService,
	}
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "mpcrawler",
		Short: "微信公众号后台扫码登录与文章列表抓取",
		Long: `mpcrawler 通过浏览器完成公众号后台 (mp.weixin.qq.com) 的扫码登录,
获取 token 与 fakeid,并分页拉取公众号已发布的文章列表。`,
		Example: `  mpcrawler --login
  mpcrawler --get-articles --token 123456 --fakeid MzA5MjE2Njg4NQ==
  mpcrawler --get-articles --json --index`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().NFlag() == 0 {
				return cmd.Help()
			}
			return a.run(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.login, "login", false, "打开浏览器扫码登录公众号后台")
	f.BoolVar(&opts.getArticles, "get-articles", false, "获取已发布文章列表,缺少 --token 时先登录")
	f.StringVar(&opts.fakeid, "fakeid", "", "公众号的 fakeid")
	f.StringVar(&opts.token, "token", "", "已有的 session token")
	f.StringVar(&opts.cookie, "cookie", "", "已有 session 的 Cookie 请求头,与 --token 一起使用")
	f.BoolVar(&opts.debug, "debug", false, "输出调试日志")
	f.StringVar(&opts.configPath, "config", "", "配置文件路径,覆盖内置默认配置")
	f.BoolVar(&opts.index, "index", false, "将文章写入 Elasticsearch")
	f.BoolVar(&opts.reindex, "reindex", false, "删除并重建索引后再写入,隐含 --index")
	f.BoolVar(&opts.jsonOutput, "json", false, "以 JSON lines 格式输出文章")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *options) error {
	if opts.debug {
		logger.SetDebug(a.logger, true)
		a.logger.Debug("Debug logging enabled.")
	}
	if !opts.login && !opts.getArticles {
		a.logger.Warn("未指定 --login 或 --get-articles")
		return cmd.Help()
	}

	cfg, err := config.LoadConfig(a.defaults, opts.configPath)
	if err != nil {
		return err
	}
	if opts.reindex {
		opts.index = true
		cfg.Elasticsearch.Recreate = true
	}
	ctx := cmd.Context()

	needLogin := opts.login || opts.token == ""
	if opts.cookie != "" && needLogin {
		a.logger.Warn("需要扫码登录, --cookie 将被忽略, 使用登录得到的 cookie")
	}

	var sess *model.Session
	if needLogin {
		if !opts.login {
			a.logger.Info("未提供 --token, 先进行扫码登录")
		}
		sess, err = a.login(ctx, cfg)
		if err != nil {
			return err
		}
	}
	if !opts.getArticles {
		return nil
	}

	if sess == nil {
		cookies, err := http.ParseCookie(opts.cookie)
		if opts.cookie != "" && err != nil {
			return fmt.Errorf("无效的 --cookie: %w", err)
		}
		sess, err = model.NewSession(opts.token, "", "", cookies)
		if err != nil {
			return err
		}
	}
	return a.fetch(ctx, cfg, sess, opts)
}

func (a *app) login(ctx context.Context, cfg *config.Config) (*model.Session, error) {
	a.logger.Info("开始扫码登录...")
	ls, err := a.newLogin(cfg, a.logger)
	if err != nil {
		return nil, err
	}
	sess, err := ls.Login(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "%s 昵称: %s, token: %s, fakeid: %s\n",
		color.GreenString("登录成功."), sess.Nickname(), sess.Token(), sess.AccountID())
	return sess, nil
}

func (a *app) fetch(ctx context.Context, cfg *config.Config, sess *model.Session, opts *options) error {
	as, err := a.newArticle(cfg, a.logger)
	if err != nil {
		return err
	}
	sess, err = as.ResolveAccountID(ctx, sess, opts.fakeid)
	if err != nil {
		return err
	}
	docs, err := as.FetchArticles(ctx, sess, sess.AccountID())
	if err != nil {
		return err
	}
	if err := a.printArticles(docs, opts.jsonOutput); err != nil {
		return err
	}

	if !opts.index && !cfg.Elasticsearch.Enabled {
		return nil
	}
	ex, err := a.newExport(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	result, err := ex.Export(ctx, docs)
	if err != nil {
		return fmt.Errorf("导出到 Elasticsearch 失败: %w", err)
	}
	a.logger.Infof("导出完成: 索引 %s, 写入 %d 篇, 向量 %d 条, 索引共 %d 篇",
		result.Index, result.Indexed, result.Embedded, result.Total)
	return nil
}

var (
	cyan = color.New(color.FgCyan).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
	gray = color.New(color.FgHiBlack).SprintFunc()
)

func (a *app) printArticles(docs []*model.ArticleDoc, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(a.out)
		enc.SetEscapeHTML(false)
		for _, doc := range docs {
			if err := enc.Encode(doc); err != nil {
				return err
			}
		}
		return nil
	}
	if len(docs) == 0 {
		a.logger.Warn("没有获取到文章")
		return nil
	}
	for i, doc := range docs {
		published := "-"
		if !doc.PublishTime.IsZero() {
			published = doc.PublishTime.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(a.out, "%s %s %s\n    %s\n", cyan(fmt.Sprintf("%3d.", i+1)), gray(published), bold(doc.Title), doc.Link)
	}
	return nil
}
