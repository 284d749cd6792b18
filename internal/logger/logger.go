package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "adstatus"

// Options 日志输出配置，零值字段取默认
type Options struct {
	Dir        string
	Filename   string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Stdout 非 debug 模式下是否同时输出到标准输出
	Stdout bool
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Dir) == "" {
		o.Dir = "logs"
	}
	if strings.TrimSpace(o.Filename) == "" {
		o.Filename = "adstatus.log"
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 100
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 7
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 30
	}
	return o
}

// L 全局日志，Init 之前为 nil
var L *zap.Logger

var fallback = sync.OnceValue(func() *zap.Logger {
	return withService(zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stdout), zapcore.InfoLevel))
})

// Init 创建全局日志并替换 zap 全局实例
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	zap.ReplaceGlobals(L)
	return L
}

// New debug 模式输出彩色控制台，其余模式写 JSON 滚动文件
func New(mode string, options Options) *zap.Logger {
	options = options.withDefaults()
	debug := strings.EqualFold(strings.TrimSpace(mode), "debug")
	level := parseLevel(options.Level, debug)

	if debug {
		cfg := encoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return withService(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stdout), level))
	}

	encoder := zapcore.NewJSONEncoder(encoderConfig())
	cores := make([]zapcore.Core, 0, 2)
	if sink, err := rollingFile(options); err != nil {
		fmt.Fprintf(os.Stderr, "log file unavailable, writing to stdout: %v\n", err)
		options.Stdout = true
	} else {
		cores = append(cores, zapcore.NewCore(encoder, sink, level))
	}
	if options.Stdout {
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.Lock(os.Stdout), level))
	}
	return withService(zapcore.NewTee(cores...))
}

// StdLogger 供 net/http 等只接受标准库 logger 的组件使用
func StdLogger() *log.Logger {
	return zap.NewStdLog(current())
}

// S 当前 SugaredLogger
func S() *zap.SugaredLogger {
	return current().Sugar()
}

// SW 附加固定字段
func SW(kv ...interface{}) *zap.SugaredLogger {
	return S().With(kv...)
}

func Debugw(event string, kv ...interface{}) { S().Debugw(event, kv...) }

func Infow(event string, kv ...interface{}) { S().Infow(event, kv...) }

func Warnw(event string, kv ...interface{}) { S().Warnw(event, kv...) }

func Errorw(event string, kv ...interface{}) { S().Errorw(event, kv...) }

func current() *zap.Logger {
	if L != nil {
		return L
	}
	return fallback()
}

func parseLevel(raw string, debug bool) zapcore.Level {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if lvl, err := zapcore.ParseLevel(raw); err == nil {
			return lvl
		}
	}
	if debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "event"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

// 包级辅助函数多一层调用，caller 需要跳过
func withService(core zapcore.Core) *zap.Logger {
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("service", serviceName))
}

func rollingFile(options Options) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(options.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(options.Dir, options.Filename)
	probe, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	_ = probe.Close()
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    options.MaxSizeMB,
		MaxBackups: options.MaxBackups,
		MaxAge:     options.MaxAgeDays,
		Compress:   options.Compress,
	}), nil
}
