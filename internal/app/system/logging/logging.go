// Package logging builds the zap logger used by the command-line tools.
// The service gets its logger from the waffle lifecycle instead.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log bundles a logger with its adjustable level.
type Log struct {
	Base  *zap.Logger
	Level zap.AtomicLevel
}

// Init builds a development logger, or a production (JSON) logger when env
// is "prod". Unknown levels fall back to info.
func Init(level, env string) (*Log, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var cfg zap.Config
	if strings.EqualFold(env, "prod") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return &Log{Base: base, Level: lvl}, nil
}

// Sync flushes buffered entries.
func (l *Log) Sync() { _ = l.Base.Sync() }
