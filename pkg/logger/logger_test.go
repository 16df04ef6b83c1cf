package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBufferedLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	log, err := NewLogger(&Config{Level: DebugLevel, Format: format, AppName: "carrental", Version: "test"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	return log, buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_JSONFields(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")
	carID := primitive.NewObjectID()

	log.WithUserID("alice@example.com").WithCarID(carID).WithError(errors.New("boom")).Warn("car update failed")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "car update failed", entry["message"])
	assert.Equal(t, "carrental", entry["app"])
	assert.Equal(t, "test", entry["version"])
	assert.Equal(t, "alice@example.com", entry["user"])
	assert.Equal(t, carID.Hex(), entry["car_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_WithFieldDoesNotMutateParent(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")

	child := log.WithField("booking_id", "b1")
	_ = child.WithField("extra", 1)
	log.Info("parent")

	entry := decodeEntry(t, buf)
	assert.NotContains(t, entry, "booking_id")
	assert.NotContains(t, entry, "extra")
}

func TestLogger_WithNilError(t *testing.T) {
	log := NewNop()
	assert.Same(t, log, log.WithError(nil))
}

func TestLogger_WithContext(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, IdentityKey, "bob@example.com")
	log.WithContext(ctx).Info("hello")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "bob@example.com", entry["user"])
}

func TestLogger_APIRequestLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{404, "warning"},
		{503, "error"},
	}

	for _, tt := range tests {
		log, buf := newBufferedLogger(t, "json")
		log.LogAPIRequest("GET", "/api/v1/cars", tt.status, 0, "")

		entry := decodeEntry(t, buf)
		assert.Equal(t, tt.level, entry["level"], "status %d", tt.status)
		assert.Equal(t, float64(tt.status), entry["status_code"])
		assert.NotContains(t, entry, "user")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, buf := newBufferedLogger(t, "text")
	log.SetLevel(WarnLevel)

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARNING]")
	assert.Contains(t, out, "[carrental] shown")
	assert.True(t, strings.HasSuffix(out, "\n"))
}
