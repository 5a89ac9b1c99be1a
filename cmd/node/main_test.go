package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamware/redirlocal/internal/cluster"
)

func TestNewMux(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "f.root"), []byte("payload"), 0o644))

	srv := httptest.NewServer(newMux(root))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/files/data/f.root")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "payload", string(body))

	resp, err = http.Get(srv.URL + "/files/data/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterRetries(t *testing.T) {
	var calls atomic.Int32
	var got cluster.RegisterRequest
	coord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer coord.Close()

	info := cluster.NodeInfo{ID: "node-1", Addr: "http://10.0.0.9:1095", TotalBytes: 10}
	err := register(context.Background(), zap.NewNop(), coord.URL, info, 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, info, got.Node)
}

func TestRegisterGivesUp(t *testing.T) {
	coord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer coord.Close()

	err := register(context.Background(), zap.NewNop(), coord.URL, cluster.NodeInfo{ID: "n"}, 2, time.Millisecond)
	assert.ErrorContains(t, err, "failed to register")
}

func TestRegisterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := register(ctx, zap.NewNop(), "http://127.0.0.1:1", cluster.NodeInfo{ID: "n"}, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCapacity(t *testing.T) {
	total, free, err := capacity(t.TempDir())
	require.NoError(t, err)
	assert.Positive(t, total)
	assert.LessOrEqual(t, free, total)

	_, _, err = capacity(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestGetenv(t *testing.T) {
	t.Setenv("NODE_TEST_KEY", "set")
	assert.Equal(t, "set", getenv("NODE_TEST_KEY", "def"))
	assert.Equal(t, "def", getenv("NODE_TEST_UNSET_KEY", "def"))
}

func TestRootCmdRequiresIDAndCoordinator(t *testing.T) {
	t.Setenv("NODE_ID", "")
	t.Setenv("COORDINATOR_ADDR", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.ErrorContains(t, cmd.Execute(), "--id and --coordinator are required")
}
