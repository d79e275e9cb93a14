package log

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewAddsServiceName(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", ServiceName: "spawn-service", Output: &buf})
	logger.Info().Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "spawn-service", line[FieldService])
	assert.Equal(t, "hello", line["message"])
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(GinMiddleware(logger))
	r.GET("/ping", func(c *gin.Context) {
		l := Ctx(c.Request.Context())
		l.Info().Msg("inside")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(headerRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(headerRequestID))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, raw := range lines {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &line))
		assert.Equal(t, "req-1", line[FieldRequestID])
		assert.Equal(t, "/ping", line[FieldPath])
	}

	var done map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &done))
	assert.Equal(t, float64(http.StatusNoContent), done[FieldStatus])
}

func TestWithStreamer(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf).With().Str(FieldRequestID, "req-2").Logger())
	ctx = WithStreamer(ctx, "alice")

	l := Ctx(ctx)
	l.Info().Msg("tagged")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "alice", line[FieldStreamer])
	assert.Equal(t, "req-2", line[FieldRequestID])
}
