package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lensretail-backend/pkg/config"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry), buf.String())
	return entry
}

func TestContextFieldsAccumulate(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Level: ParseLevel("debug"), Output: buf, Format: "json"})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithCustomerID(ctx, 42)
	ctx = log.WithEntity(ctx, "sale_order", "SO-20261019-000004")
	log.Error(ctx, "saleorders.create_failed", errors.New("deadlock detected"))

	entry := lastEntry(t, buf)
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, float64(42), entry["customer_id"])
	assert.Equal(t, "sale_order", entry["entity_type"])
	assert.Equal(t, "deadlock detected", entry["error"])
	assert.Contains(t, entry, "stack")
}

func TestParentContextUnchanged(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Output: buf, Format: "json"})

	parent := log.WithUserID(context.Background(), "u-1")
	_ = log.WithField(parent, "job", "audit-retention")
	log.Info(parent, "auth.login")

	entry := lastEntry(t, buf)
	assert.Equal(t, "u-1", entry["user_id"])
	assert.NotContains(t, entry, "job")
}

func TestWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{Output: buf, Format: "json", WarnStack: true}).Warn(context.Background(), "pricing.hierarchy_cache_corrupt")
	assert.Contains(t, lastEntry(t, buf), "stack")

	buf.Reset()
	New(Options{Output: buf, Format: "json"}).Warn(context.Background(), "pricing.hierarchy_cache_corrupt")
	assert.NotContains(t, lastEntry(t, buf), "stack")
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf, Format: "json"})
	log.Debug(context.Background(), "noise")
	assert.Zero(t, buf.Len())
}

func TestConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{ServiceName: "discount-editor", Output: buf, Format: "console"}).Info(context.Background(), "editor.loaded")
	assert.Contains(t, buf.String(), "editor.loaded")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
}

func TestForAppUsesConfiguredLevel(t *testing.T) {
	log := ForApp("cron-worker", config.AppConfig{LogLevel: "WARN", LogWarnStack: true})
	assert.Equal(t, zerolog.WarnLevel, log.root.GetLevel())
	assert.True(t, log.warnStack)
}
