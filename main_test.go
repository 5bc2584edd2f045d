package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cleanuri/pkg/api"
	"cleanuri/pkg/cache"
	"cleanuri/pkg/config"
	"cleanuri/pkg/site"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "9090", Environment: "test", AllowedOrigins: []string{"*"}},
		Extract: config.ExtractConfig{
			MaxConcurrent: 2,
			RatePerSecond: 1,
			Burst:         1,
			Timeout:       5 * time.Second,
		},
		Cache: config.CacheConfig{Path: cache.Memory, TTL: time.Hour},
		Log:   config.LogConfig{Level: "debug", Format: "json"},
		Sites: config.SitesConfig{Disabled: []string{"spar"}},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	zl := zap.New(core)

	c, err := cache.New(cfg.Cache.Path, cfg.Cache.TTL, zl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	router := api.SetupRouter(api.RouterConfig{
		Service:        newService(cfg, c, zl),
		Logger:         zl,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	return router, logs
}

func TestSitesEndpoint(t *testing.T) {
	router, logs := newTestRouter(t, testConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sites", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var infos []site.DescriptorInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &infos))

	labels := make([]string, 0, len(infos))
	for _, info := range infos {
		labels = append(labels, info.Label)
	}
	assert.ElementsMatch(t, []string{"Billa", "Hofer", "Lidl"}, labels, "disabled sites are hidden")

	discovered := logs.FilterMessage("Discovered site").All()
	assert.Len(t, discovered, 4)
	disabled := logs.FilterMessage("Discovered site").FilterField(zap.Bool("disabled", true)).All()
	require.Len(t, disabled, 1)
	assert.Equal(t, "SPAR", disabled[0].ContextMap()["site"])
}

func TestCanonizeEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, testConfig())

	tests := []struct {
		name      string
		uri       string
		status    int
		canonical string
	}{
		{"lidl product", "www.lidl.at/p/vitasia-nori-lachs/p10045033?utm_medium=mail", http.StatusOK, "https://www.lidl.at/p/p10045033"},
		{"hofer product", "https://www.hofer.at/de/sortiment/p.582039.html", http.StatusOK, "https://www.hofer.at/de/p.582039.html"},
		{"disabled site", "https://www.spar.at/produktwelt/p5040291", http.StatusUnprocessableEntity, ""},
		{"unknown site", "https://www.amazon.de/dp/B000", http.StatusUnprocessableEntity, ""},
		{"bad scheme", "ftp://www.lidl.at/p/p1", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/canonize?uri="+url.QueryEscape(tt.uri), nil)
			router.ServeHTTP(rr, req)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			if tt.status != http.StatusOK {
				var pd api.ProblemDetails
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pd))
				assert.Equal(t, tt.status, pd.Status)
				return
			}
			var body struct {
				Canonical *string `json:"canonical"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.NotNil(t, body.Canonical)
			assert.Equal(t, tt.canonical, *body.Canonical)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig()
	l, err := newLogger(cfg)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	cfg.Log.Level = "warn"
	l, err = newLogger(cfg)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}
