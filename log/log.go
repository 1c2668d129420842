package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Error(v ...interface{})
	Warn(v ...interface{})
	Info(v ...interface{})
	Debug(v ...interface{})
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	// 附带键值对字段，返回新的 logger
	With(kvs ...interface{}) Logger
	Sync() error
}

var (
	defaultLogger Logger
)

func init() {
	defaultLogger = NewSugarLogger(NewOptions())
}

// 写到标准输出而不是文件
const Stdout = "stdout"

// Options 选项配置
type Options struct {
	LogName    string // 服务名称，作为 service 字段输出
	LogLevel   string // 日志级别
	FileName   string // 文件名称，为空或 stdout 时输出到标准输出
	MaxAge     int    // 日志保留时间，以天为单位
	MaxSize    int    // 日志保留大小，以 M 为单位
	MaxBackups int    // 保留文件个数
	Compress   bool   // 是否压缩
}

// Option 选项方法
type Option func(*Options)

// NewOptions 初始化
func NewOptions(opts ...Option) Options {
	options := Options{
		LogName:    "gocheckout",
		LogLevel:   "info",
		FileName:   Stdout,
		MaxAge:     10,
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithLogName(name string) Option {
	return func(o *Options) {
		o.LogName = name
	}
}

// WithLogLevel 日志级别
func WithLogLevel(level string) Option {
	return func(o *Options) {
		o.LogLevel = level
	}
}

// WithFileName 日志文件
func WithFileName(filename string) Option {
	return func(o *Options) {
		o.FileName = filename
	}
}

// Levels zapcore level
var Levels = map[string]zapcore.Level{
	"":      zapcore.DebugLevel,
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

type zapLoggerWrapper struct {
	*zap.SugaredLogger
	options Options
}

func NewSugarLogger(options Options) Logger {
	w := &zapLoggerWrapper{options: options}
	level, ok := Levels[options.LogLevel]
	if !ok {
		level = zapcore.InfoLevel
	}
	core := zapcore.NewCore(w.getEncoder(), w.getLogWriter(), level)
	w.SugaredLogger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).
		Sugar().
		With("service", options.LogName)
	return w
}

func (w *zapLoggerWrapper) With(kvs ...interface{}) Logger {
	return &zapLoggerWrapper{
		SugaredLogger: w.SugaredLogger.With(kvs...),
		options:       w.options,
	}
}

func (w *zapLoggerWrapper) getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func (w *zapLoggerWrapper) getLogWriter() zapcore.WriteSyncer {
	if w.options.FileName == "" || w.options.FileName == Stdout {
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   w.options.FileName,
		MaxAge:     w.options.MaxAge,
		MaxSize:    w.options.MaxSize,
		MaxBackups: w.options.MaxBackups,
		Compress:   w.options.Compress,
	})
}

// GetDefaultLogger 获取默认日志实现
func GetDefaultLogger() Logger {
	return defaultLogger
}

// SetDefaultLogger 进程启动时按配置替换默认 logger
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		return
	}
	defaultLogger = logger
}

type fieldsKey struct{}

// WithFields 把键值对挂到 ctx 上，后续 *Context 系列方法会带上这些字段
func WithFields(ctx context.Context, kvs ...interface{}) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]interface{})
	fields := make([]interface{}, 0, len(prev)+len(kvs))
	fields = append(fields, prev...)
	fields = append(fields, kvs...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

func fromContext(ctx context.Context) Logger {
	if ctx == nil {
		return GetDefaultLogger()
	}
	fields, _ := ctx.Value(fieldsKey{}).([]interface{})
	if len(fields) == 0 {
		return GetDefaultLogger()
	}
	return GetDefaultLogger().With(fields...)
}

// Debugf 打印 Debug 日志
func Debugf(format string, args ...interface{}) {
	GetDefaultLogger().Debugf(format, args...)
}

// Infof 打印 Info 日志
func Infof(format string, args ...interface{}) {
	GetDefaultLogger().Infof(format, args...)
}

// Warnf 打印 Warn 日志
func Warnf(format string, args ...interface{}) {
	GetDefaultLogger().Warnf(format, args...)
}

// Errorf 打印 Error 日志
func Errorf(format string, args ...interface{}) {
	GetDefaultLogger().Errorf(format, args...)
}

func DebugContext(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Debug(args...)
}

func DebugContextf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Debugf(format, args...)
}

func InfoContext(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Info(args...)
}

func InfoContextf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Infof(format, args...)
}

func WarnContext(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Warn(args...)
}

func WarnContextf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Warnf(format, args...)
}

func ErrorContext(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Error(args...)
}

func ErrorContextf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Errorf(format, args...)
}

// Fatalf 打印日志后退出进程
func Fatalf(format string, args ...interface{}) {
	Errorf(format, args...)
	_ = GetDefaultLogger().Sync()
	os.Exit(1)
}

func Sync() error {
	return GetDefaultLogger().Sync()
}
