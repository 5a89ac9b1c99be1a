package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dreamware/redirlocal/internal/config"
	"github.com/dreamware/redirlocal/internal/redirect"
)

const requestIDHeader = "X-Request-ID"

// server holds the HTTP handlers of the redirector.
type server struct {
	finder         *redirect.Finder
	logger         *zap.Logger
	trustForwarded bool
	capHeader      string
}

func newServer(finder *redirect.Finder, logger *zap.Logger, rc config.RedirectorConfig) *server {
	if logger == nil {
		logger = zap.NewNop()
	}
	capHeader := rc.CapabilityHeader
	if capHeader == "" {
		capHeader = config.DefaultCapabilityHeader
	}
	return &server{
		finder:         finder,
		logger:         logger,
		trustForwarded: rc.TrustForwardedFor,
		capHeader:      capHeader,
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/locate", s.handleLocate)
	mux.HandleFunc("/space", s.handleSpace)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// handleLocate answers GET /locate?path=<logical>&flags=<mask>.
//
// Responses:
//   - 200 with status "redirect" or "redirect_local"
//   - 502 with status "error" when the coordinator failed
//   - 400 for a missing path or malformed flags/capability
func (s *server) handleLocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqID := requestID(w, r)

	path := r.URL.Query().Get("path")
	if path == "" || path[0] != '/' {
		http.Error(w, "path must start with '/'", http.StatusBadRequest)
		return
	}
	flags, err := redirect.ParseOpenFlags(r.URL.Query().Get("flags"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	capability, err := parseCapability(r.Header.Get(s.capHeader))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	client, err := clientAddr(r, s.trustForwarded)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, d := s.finder.Locate(r.Context(), redirect.Request{Path: path, Flags: flags, Client: client}, capability)

	status := http.StatusOK
	if resp.Status == redirect.ResponseError {
		status = http.StatusBadGateway
		s.logger.Warn("locate failed",
			zap.String("request_id", reqID),
			zap.String("path", path),
			zap.String("error", resp.Err))
	} else {
		s.logger.Debug("locate",
			zap.String("request_id", reqID),
			zap.String("path", path),
			zap.String("outcome", d.Outcome()),
			zap.String("reason", string(d.Reason())))
	}
	writeJSON(w, status, resp)
}

// handleSpace forwards GET /space?path=<logical> to the coordinator.
func (s *server) handleSpace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqID := requestID(w, r)

	info, err := s.finder.Space(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.logger.Warn("space query failed", zap.String("request_id", reqID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// requestID reuses the caller's X-Request-ID or mints one, and echoes it.
func requestID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, id)
	return id
}

// clientAddr returns the address of the requesting client. With trust set,
// a present X-Forwarded-For header decides: its first hop is the client, and
// a hop that does not parse (proxies send "unknown") yields the zero Addr,
// which is never private. RemoteAddr is the proxy then and must not be used.
func clientAddr(r *http.Request, trust bool) (netip.Addr, error) {
	if trust {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first := strings.TrimSpace(strings.Split(fwd, ",")[0])
			addr, _ := redirect.ParseHostAddr(first)
			return addr, nil
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("unparseable client address %q", r.RemoteAddr)
	}
	return addr, nil
}

// parseCapability accepts decimal or 0x-hex; empty means 0.
func parseCapability(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid capability %q", s)
	}
	return uint32(v), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
