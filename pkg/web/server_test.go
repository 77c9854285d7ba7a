package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	weberrors "github.com/lk2023060901/xdooria-social/pkg/web/errors"
)

type scoreRequest struct {
	Score int64  `json:"score" binding:"gte=0"`
	Board string `json:"board" binding:"required"`
}

func newTestServer(t *testing.T, cfg *Config, opts ...Option) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Mode = gin.TestMode
	s, err := NewServer(cfg, opts...)
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestResponses(t *testing.T) {
	s := newTestServer(t, nil)
	s.Router().GET("/ok", func(c *gin.Context) { Success(c, gin.H{"alias": "Ann"}) })
	s.Router().POST("/later", func(c *gin.Context) { Accepted(c, nil) })
	s.Router().GET("/missing", func(c *gin.Context) { Error(c, weberrors.CodeNotFound, "no such player") })

	w := do(s, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, weberrors.CodeOK, resp.Code)
	assert.Equal(t, "Ann", resp.Data.(map[string]any)["alias"])

	assert.Equal(t, http.StatusAccepted, do(s, http.MethodPost, "/later", "").Code)

	w = do(s, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no such player", decode(t, w).Message)
}

func TestBindAndValidate(t *testing.T) {
	s := newTestServer(t, nil)
	s.Router().POST("/scores", func(c *gin.Context) {
		var req scoreRequest
		if !BindAndValidate(c, &req) {
			return
		}
		Success(c, req.Score)
	})

	assert.Equal(t, http.StatusOK, do(s, http.MethodPost, "/scores", `{"score":650,"board":"main"}`).Code)

	w := do(s, http.MethodPost, "/scores", `{"score":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, weberrors.CodeInvalidParams, resp.Code)
	assert.Contains(t, resp.Message, "board")

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/scores", `{`).Code)
}

func TestPanicRecovered(t *testing.T) {
	s := newTestServer(t, nil)
	s.Router().GET("/boom", func(c *gin.Context) { panic("boom") })
	assert.Equal(t, http.StatusInternalServerError, do(s, http.MethodGet, "/boom", "").Code)
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(t, nil, WithRegisterer(reg, "playground"))
	s.Router().GET("/ping", func(c *gin.Context) { Success(c, nil) })

	do(s, http.MethodGet, "/ping", "")
	do(s, http.MethodGet, "/ping", "")
	do(s, http.MethodGet, "/nowhere", "")

	n, err := testutil.GatherAndCount(reg, "playground_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = NewServer(&Config{Mode: gin.TestMode}, WithRegisterer(reg, "playground"))
	assert.Error(t, err)
}

func TestRateLimitPerIP(t *testing.T) {
	cfg := &Config{}
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 2
	cfg.RateLimit.SkipPaths = []string{"/healthz"}
	s := newTestServer(t, cfg)
	s.Router().GET("/v1/x", func(c *gin.Context) { Success(c, nil) })
	s.Router().GET("/healthz", func(c *gin.Context) { Success(c, nil) })

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/v1/x", "").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/v1/x", "").Code)
	w := do(s, http.MethodGet, "/v1/x", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "").Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := &Config{}
	cfg.CORS.Enabled = true
	cfg.CORS.AllowOrigins = []string{"http://console.local"}
	s := newTestServer(t, cfg)
	s.Router().GET("/v1/x", func(c *gin.Context) { Success(c, nil) })

	req := httptest.NewRequest(http.MethodGet, "/v1/x", nil)
	req.Header.Set("Origin", "http://console.local")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://console.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/v1/x", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, &Config{Addr: "127.0.0.1:0"})
	s.Router().GET("/healthz", func(c *gin.Context) { Success(c, nil) })

	assert.ErrorIs(t, s.Stop(), ErrServerNotStarted)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, errors.Is(s.Start(context.Background()), ErrServerAlreadyStarted))

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop())
	assert.Empty(t, s.Addr())
}

func TestInvalidConfig(t *testing.T) {
	_, err := NewServer(&Config{Mode: "verbose"})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
