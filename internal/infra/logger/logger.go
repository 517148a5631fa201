package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New 创建日志器,debug 为 true 时输出 Debug 级别日志
func New(out io.Writer, debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	SetDebug(l, debug)
	return l
}

func SetDebug(l *logrus.Logger, debug bool) {
	if debug {
		l.SetLevel(logrus.DebugLevel)
		return
	}
	l.SetLevel(logrus.InfoLevel)
}

// Discard 测试中使用,丢弃所有输出
func Discard() *logrus.Logger {
	return New(io.Discard, false)
}
