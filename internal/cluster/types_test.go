package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNodeInfoHostPort verifies that the redirect target is taken from the
// host part of the node's base URL.
func TestNodeInfoHostPort(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		want    string
		wantErr bool
	}{
		{name: "ipv4 with port", addr: "http://10.0.0.9:1094", want: "10.0.0.9:1094"},
		{name: "ipv6 with port", addr: "http://[fd00::9]:1094", want: "[fd00::9]:1094"},
		{name: "no port", addr: "http://10.0.0.9", want: "10.0.0.9"},
		{name: "bare host is not a url", addr: "10.0.0.9:1094", wantErr: true},
		{name: "empty", addr: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NodeInfo{ID: "n1", Addr: tt.addr}.HostPort()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNodeInfoOmitsEmptyCapacity checks that nodes registering without
// capacity information do not emit zero-valued fields.
func TestNodeInfoOmitsEmptyCapacity(t *testing.T) {
	data, err := json.Marshal(NodeInfo{ID: "node-1", Addr: "http://10.0.0.9:1094"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"node-1","addr":"http://10.0.0.9:1094"}`, string(data))
}

// TestPostJSON covers the registration transport used by data servers.
func TestPostJSON(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		request     any
		wantOut     bool
		slow        bool
		expectError bool
	}{
		{name: "ok with body", status: http.StatusOK, body: `{"status":"ok"}`, request: RegisterRequest{Node: NodeInfo{ID: "n1"}}, wantOut: true},
		{name: "no content", status: http.StatusNoContent, request: RegisterRequest{Node: NodeInfo{ID: "n1"}}},
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, request: RegisterRequest{}, expectError: true},
		{name: "bad request", status: http.StatusBadRequest, request: RegisterRequest{}, expectError: true},
		{name: "context timeout", status: http.StatusOK, request: RegisterRequest{}, slow: true, expectError: true},
		{name: "unmarshalable body", status: http.StatusOK, request: make(chan int), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				if tt.slow {
					time.Sleep(100 * time.Millisecond)
				}
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			defer server.Close()

			ctx := context.Background()
			if tt.slow {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Millisecond)
				defer cancel()
			}

			var out map[string]string
			var outPtr any
			if tt.wantOut {
				outPtr = &out
			}
			err := PostJSON(ctx, server.URL, tt.request, outPtr)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantOut {
				assert.Equal(t, "ok", out["status"])
			}
		})
	}
}

// TestGetJSON decodes a coordinator locate answer and checks error statuses.
func TestGetJSON(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectError bool
	}{
		{name: "locate answer", status: http.StatusOK, body: `{"target":"10.0.0.9:1094","node_id":"n1","capability":1808,"status":"ok"}`},
		{name: "not found", status: http.StatusNotFound, body: `{}`, expectError: true},
		{name: "redirect status", status: http.StatusMovedPermanently, expectError: true},
		{name: "invalid json", status: http.StatusOK, body: `{invalid`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			defer server.Close()

			var out LocateResponse
			err := GetJSON(context.Background(), server.URL, &out)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "10.0.0.9:1094", out.Target)
			assert.Equal(t, uint32(1808), out.Capability)
			assert.Equal(t, "ok", out.Status)
		})
	}
}

// TestTransportInvalidURL checks both helpers against malformed and
// unreachable endpoints.
func TestTransportInvalidURL(t *testing.T) {
	ctx := context.Background()
	var out SpaceResponse

	assert.Error(t, PostJSON(ctx, "://invalid-url", RegisterRequest{}, nil))
	assert.Error(t, GetJSON(ctx, "://invalid-url", &out))
	assert.Error(t, PostJSON(ctx, "http://localhost:99999", RegisterRequest{}, nil))
	assert.Error(t, GetJSON(ctx, "http://localhost:99999", &out))
}

// TestHTTPClient checks the shared client timeout.
func TestHTTPClient(t *testing.T) {
	assert.Equal(t, 5*time.Second, httpClient.Timeout)
}
