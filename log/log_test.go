package log

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_customer_logger(t *testing.T) {
	logger := NewSugarLogger(NewOptions(
		WithLogName("payment"),
		WithFileName(filepath.Join(t.TempDir(), "gocheckout.log")),
		WithLogLevel("info"),
	))
	logger.Info("test customer logger running...")
	logger.With("txid", "1").Infof("prepared, amount: %v", 20)
}

func Test_default_logger(t *testing.T) {
	now := time.Now()
	Debugf("debug... now: %v", now)
	Infof("info... now: %v", now)
	Warnf("warn... now: %v", now)
	Errorf("error... now: %v", now)

	ctx := WithFields(context.Background(), "txid", "42")
	DebugContext(ctx, "debug...")
	DebugContextf(ctx, "debug... now: %v", now)
	InfoContext(ctx, "info...")
	InfoContextf(ctx, "info... now: %v", now)
	WarnContext(ctx, "warn...")
	WarnContextf(ctx, "warn... now: %v", now)
	ErrorContext(ctx, "error...")
	ErrorContextf(ctx, "error... now: %v", now)
}

func Test_WithFields(t *testing.T) {
	ctx := WithFields(context.Background(), "txid", "1")
	ctx = WithFields(ctx, "order_id", "o1")
	fields, _ := ctx.Value(fieldsKey{}).([]interface{})
	assert.Equal(t, []interface{}{"txid", "1", "order_id", "o1"}, fields)

	// 父 ctx 的字段不受子 ctx 影响
	parent := WithFields(context.Background(), "a", 1)
	_ = WithFields(parent, "b", 2)
	fields, _ = parent.Value(fieldsKey{}).([]interface{})
	assert.Equal(t, []interface{}{"a", 1}, fields)
}

func Test_SetDefaultLogger(t *testing.T) {
	prev := GetDefaultLogger()
	defer SetDefaultLogger(prev)

	logger := NewSugarLogger(NewOptions(WithLogName("stock")))
	SetDefaultLogger(logger)
	assert.Equal(t, logger, GetDefaultLogger())

	SetDefaultLogger(nil)
	assert.Equal(t, logger, GetDefaultLogger())
}
