package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/admuter/admuter/internal/config"
)

func testServerConfig() *config.Config {
	cfg := config.Default()
	cfg.Web.Host = "127.0.0.1"
	cfg.Web.Port = 0
	return cfg
}

func TestServerListenAndServe(t *testing.T) {
	s := NewServer(testServerConfig(), staticStatus{State: "unmuted"}, nil)
	require.NoError(t, s.Listen())
	require.NotEqual(t, "127.0.0.1:0", s.GetAddress())

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	resp, err := http.Get("http://" + s.GetAddress() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "healthy")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, <-done)
}

func TestServerListenAddressInUse(t *testing.T) {
	first := NewServer(testServerConfig(), staticStatus{}, nil)
	require.NoError(t, first.Listen())
	defer first.listener.Close()

	cfg := config.Default()
	host, port := splitAddr(t, first.GetAddress())
	cfg.Web.Host = host
	cfg.Web.Port = port

	second := NewServer(cfg, staticStatus{}, nil)
	err := second.Listen()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to listen")
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}
