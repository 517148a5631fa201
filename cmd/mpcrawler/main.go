package main

import (
	"context"
	_ "embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/LouYuanbo1/mpcrawler/internal/domain/errs"
	"github.com/LouYuanbo1/mpcrawler/internal/infra/logger"
)

// 默认配置,可通过 --config 指定的文件以及 MPCRAWLER_* 环境变量覆盖
//
//go:embed appconfig/appconfig.json
var appConfig []byte

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	log := logger.New(os.Stderr, false)
	a := newApp(appConfig, log, os.Stdout)
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Errorf("%v", err)
		if hint := errs.Hint(err); hint != "" {
			log.Info(hint)
		}
		os.Exit(errs.ExitCode(err))
	}
}
