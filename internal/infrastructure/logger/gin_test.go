package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// withRequestLogger stands in for the RequestID middleware.
func withRequestLogger(base *zap.Logger, requestID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, _ := WithRequestID(c.Request.Context(), base, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	engine := gin.New()
	engine.Use(withRequestLogger(base, "req-7"), GinMiddleware(base))
	engine.GET("/api/v1/shops", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/api/v1/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	engine.POST("/api/v1/partner/import", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(engine, http.MethodGet, "/api/v1/shops?name=svyaznoy")
	serve(engine, http.MethodGet, "/api/v1/orders/9")
	serve(engine, http.MethodPost, "/api/v1/partner/import")
	serve(engine, http.MethodGet, "/health")

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "name=svyaznoy", entries[0].ContextMap()["query"])
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/api/v1/orders/:id", entries[1].ContextMap()["route"])
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level, "probes log at debug")
}

func TestGinMiddleware_UnmatchedRouteAndUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	engine := gin.New()
	engine.Use(GinMiddleware(base))
	engine.Use(func(c *gin.Context) {
		ctx, _ := WithUserID(c.Request.Context(), FromContextOr(c.Request.Context(), base), "5")
		c.Request = c.Request.WithContext(ctx)
	})

	serve(engine, http.MethodGet, "/nope")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "unmatched", fields["route"])
	assert.Equal(t, "5", fields["user_id"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)
	base := zap.New(core)

	engine := gin.New()
	engine.Use(Recovery(base), withRequestLogger(base, "req-panic"))
	engine.GET("/boom", func(c *gin.Context) { panic("nil basket") })

	w := serve(engine, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ERR_INTERNAL", body.Error.Code)
	assert.Equal(t, "req-panic", body.Error.RequestID)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
	assert.Equal(t, "nil basket", logs.All()[0].ContextMap()["panic"])
}

func TestRecovery_NoPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery(zap.NewNop()))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodGet, "/ok").Code)
}
