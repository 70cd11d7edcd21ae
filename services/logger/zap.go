// Package logsvc provides core.Logger implementations.
package logsvc

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/jukulab/shiken/core"
)

// ZapLogger adapts a zap.SugaredLogger to core.Logger. It is the default
// for local development and the portal client, where Rollbar reporting is
// not wanted.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config) (*ZapLogger, error) {
	var logger *zap.Logger
	var err error
	if conf.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: logger.Sugar()}, nil
}

// NewNopLogger discards everything, for tests.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func (l ZapLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, keyed(args)...)
}

func (l ZapLogger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, keyed(args)...)
}

func (l ZapLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, keyed(args)...)
}

func (l ZapLogger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, keyed(args)...)
}

func (l ZapLogger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalw(msg, keyed(args)...)
}

func (l ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// keyed turns loose args into zap key/value pairs; errors keep the
// conventional "error" key.
func keyed(args []interface{}) []interface{} {
	kvs := make([]interface{}, 0, 2*len(args))
	for i, arg := range args {
		if err, ok := arg.(error); ok {
			kvs = append(kvs, "error", err)
			continue
		}
		kvs = append(kvs, zap.Any("arg"+strconv.Itoa(i), arg))
	}
	return kvs
}
