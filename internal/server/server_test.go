package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/panorama/internal/config"
	"git.home.luguber.info/inful/panorama/internal/metrics"
)

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":       "home",
		"blog/index.html":  "blog",
		"about.html":       "about-flat",
		"404.html":         "not here",
		"img/logo.svg":     "<svg/>",
		"blog/post-1.html": "post",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return root
}

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestServeSiteAtRoot(t *testing.T) {
	cfg := config.Default()
	h := New(cfg, writeSite(t)).Handler()

	cases := []struct {
		target string
		code   int
		body   string
	}{
		{"/", http.StatusOK, "home"},
		{"/blog/", http.StatusOK, "blog"},
		{"/about", http.StatusOK, "about-flat"},
		{"/blog/post-1", http.StatusOK, "post"},
		{"/img/logo.svg", http.StatusOK, "<svg/>"},
		{"/missing", http.StatusNotFound, "not here"},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			code, body := get(t, h, tc.target)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.body, body)
		})
	}
}

func TestServeSiteUnderBase(t *testing.T) {
	cfg := config.Default()
	cfg.Router.Base = "/panorama/"
	h := New(cfg, writeSite(t)).Handler()

	code, body := get(t, h, "/panorama/blog/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "blog", body)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/panorama/", rec.Header().Get("Location"))
}

func TestFallbackMissing(t *testing.T) {
	cfg := config.Default()
	code, _ := get(t, New(cfg, t.TempDir()).Handler(), "/nothing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRejectsWrites(t *testing.T) {
	h := New(config.Default(), writeSite(t)).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthReportsRegeneration(t *testing.T) {
	regen := NewRegenerator(nil)
	regen.status = Status{Runs: 2, LastError: "boom"}
	h := New(config.Default(), t.TempDir(), WithRegenerator(regen)).Handler()

	code, body := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "degraded", resp.Status)
	require.NotNil(t, resp.Regeneration)
	assert.Equal(t, 2, resp.Regeneration.Runs)
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Monitoring.Metrics.Enabled = true
	reg := prometheus.NewRegistry()
	metrics.NewPrometheusRecorder(reg).SetRoutes(7)

	code, body := get(t, New(cfg, t.TempDir(), WithRegistry(reg)).Handler(), cfg.Monitoring.Metrics.Path)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "panorama_")

	cfg.Monitoring.Metrics.Enabled = false
	code, _ = get(t, New(cfg, t.TempDir(), WithRegistry(reg)).Handler(), cfg.Monitoring.Metrics.Path)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recovery(testLogger(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
