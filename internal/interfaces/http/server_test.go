package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx0855/cosco-comprehensive-query/internal/config"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		MaxBodySize:     1 << 10,
		ShutdownTimeout: time.Second,
	}
}

func TestServer_HandlerEnforcesBodyLimit(t *testing.T) {
	echoed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1<<20)
		if _, err := r.Body.Read(buf); err != nil && !strings.Contains(err.Error(), "EOF") {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := NewServer(testServerConfig(), echoed, nil)

	big := strings.Repeat("x", 1<<12)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings", strings.NewReader(big))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_SmallBodyPassesLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := NewServer(testServerConfig(), ok, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_StopBeforeStart(t *testing.T) {
	srv := NewServer(testServerConfig(), http.NotFoundHandler(), nil)
	require.NoError(t, srv.Stop(context.Background()))
}

func TestServer_StartAndStop(t *testing.T) {
	cfg := testServerConfig()
	cfg.Port = 18745
	srv := NewServer(cfg, http.NotFoundHandler(), nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, srv.Stop(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
