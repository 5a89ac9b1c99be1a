package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Node health states reported by the coordinator.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// NodeInfo describes a data server registered with the coordinator.
type NodeInfo struct {
	ID         string `json:"id"`
	Addr       string `json:"addr"` // base URL, e.g. "http://10.0.0.9:1094"
	Status     string `json:"status,omitempty"`
	TotalBytes uint64 `json:"total_bytes,omitempty"`
	FreeBytes  uint64 `json:"free_bytes,omitempty"`
}

// HostPort returns the "host:port" part of the node's address.
func (n NodeInfo) HostPort() (string, error) {
	u, err := url.Parse(n.Addr)
	if err != nil {
		return "", fmt.Errorf("node %s: bad addr %q: %w", n.ID, n.Addr, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("node %s: addr %q has no host", n.ID, n.Addr)
	}
	return u.Host, nil
}

type RegisterRequest struct {
	Node NodeInfo `json:"node"`
}

type BroadcastRequest struct {
	Path    string          `json:"path"`
	Payload json.RawMessage `json:"payload"`
}

// LocateResponse is the coordinator's answer to GET /locate.
type LocateResponse struct {
	Target     string `json:"target,omitempty"`
	NodeID     string `json:"node_id,omitempty"`
	Capability uint32 `json:"capability"`
	Status     string `json:"status"` // "ok" or "error"
	Error      string `json:"error,omitempty"`
}

// SpaceResponse is the coordinator's answer to GET /space.
type SpaceResponse struct {
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
	Nodes      int    `json:"nodes"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
