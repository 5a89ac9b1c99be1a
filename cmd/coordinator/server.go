package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dreamware/redirlocal/internal/cluster"
	"github.com/dreamware/redirlocal/internal/coordinator"
)

type server struct {
	nodes     *coordinator.Directory
	registry  *coordinator.ShardRegistry
	placement *coordinator.Placement
	monitor   *coordinator.HealthMonitor
	logger    *zap.Logger
}

func newServer(numShards int, healthInterval time.Duration, logger *zap.Logger, reg prometheus.Registerer) *server {
	if logger == nil {
		logger = zap.NewNop()
	}
	nodes := coordinator.NewDirectory()
	registry := coordinator.NewShardRegistry(numShards)
	s := &server{
		nodes:     nodes,
		registry:  registry,
		placement: coordinator.NewPlacement(registry, nodes, reg),
		monitor:   coordinator.NewHealthMonitor(healthInterval, logger),
		logger:    logger,
	}
	s.monitor.SetOnUnhealthy(s.markNodeUnhealthy)
	s.monitor.SetOnRecovered(s.markNodeHealthy)
	return s
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/nodes", s.handleListNodes)
	mux.HandleFunc("/broadcast", s.handleBroadcast)
	mux.HandleFunc("/locate", s.handleLocate)
	mux.HandleFunc("/space", s.handleSpace)
	mux.HandleFunc("/shards", s.handleShards)
	mux.HandleFunc("/shards/assign", s.handleShardAssign)
	mux.HandleFunc("/shards/unassign", s.handleShardUnassign)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cluster.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Node.ID == "" || req.Node.Addr == "" {
		http.Error(w, "missing id/addr", http.StatusBadRequest)
		return
	}
	if _, err := req.Node.HostPort(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.monitor.Forget(req.Node.ID)
	if s.nodes.Upsert(req.Node) {
		s.logger.Info("node registered", zap.String("node", req.Node.ID), zap.String("addr", req.Node.Addr))
		s.autoAssignShards()
	}
	w.WriteHeader(http.StatusNoContent)
}

// nodeView is a registered node as reported by GET /nodes.
type nodeView struct {
	cluster.NodeInfo
	Shards []int                   `json:"shards"`
	Health *coordinator.NodeHealth `json:"health,omitempty"`
}

// handleListNodes lists registered nodes with the shards they own and the
// health monitor's latest record, absent until the first check ran.
func (s *server) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	nodes := s.nodes.List()
	out := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		shards := s.registry.NodeShards(n.ID)
		sort.Ints(shards)
		if shards == nil {
			shards = []int{}
		}
		out = append(out, nodeView{NodeInfo: n, Shards: shards, Health: s.monitor.NodeHealth(n.ID)})
	}
	writeJSON(w, http.StatusOK, struct {
		Nodes []nodeView `json:"nodes"`
	}{Nodes: out})
}

func (s *server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req cluster.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Path == "" || req.Path[0] != '/' {
		http.Error(w, "path must start with '/'", http.StatusBadRequest)
		return
	}

	targets := s.nodes.List()
	type result struct {
		NodeID string `json:"node_id"`
		Err    string `json:"err,omitempty"`
	}
	out := make([]result, 0, len(targets))

	ctx, cancel := context.WithTimeout(r.Context(), 4*time.Second)
	defer cancel()
	for _, n := range targets {
		res := result{NodeID: n.ID}
		if err := cluster.PostJSON(ctx, n.Addr+req.Path, req.Payload, nil); err != nil {
			res.Err = err.Error()
		}
		out = append(out, res)
	}

	writeJSON(w, http.StatusOK, struct {
		SentTo  int      `json:"sent_to"`
		Results []result `json:"results"`
	}{SentTo: len(targets), Results: out})
}

// handleLocate answers GET /locate?path=&flags=&cap=. Placement failures are
// reported in the body with status "error" and HTTP 200 so the redirector can
// pass them on verbatim.
func (s *server) handleLocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" || path[0] != '/' {
		http.Error(w, "path must start with '/'", http.StatusBadRequest)
		return
	}
	flags, err := parseUint32(q.Get("flags"))
	if err != nil {
		http.Error(w, "bad flags", http.StatusBadRequest)
		return
	}
	capability, err := parseUint32(q.Get("cap"))
	if err != nil {
		http.Error(w, "bad cap", http.StatusBadRequest)
		return
	}

	resp := s.placement.Locate(path, flags, capability)
	if resp.Status != coordinator.LocateOK {
		s.logger.Debug("locate failed", zap.String("path", path), zap.String("error", resp.Error))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleSpace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.placement.Space(r.URL.Query().Get("path")))
}

// handleShards lists every assignment, or a single one with ?id=N.
func (s *server) handleShards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 0 || id >= s.registry.NumShards() {
			http.Error(w, "bad shard id", http.StatusBadRequest)
			return
		}
		a := s.registry.Assignment(id)
		if a == nil {
			http.Error(w, fmt.Sprintf("shard %d is unassigned", id), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Shards    []*coordinator.ShardAssignment `json:"shards"`
		NumShards int                            `json:"num_shards"`
	}{Shards: s.registry.Assignments(), NumShards: s.registry.NumShards()})
}

// handleShardAssign manually assigns a shard to a registered node.
func (s *server) handleShardAssign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ShardID   int    `json:"shard_id"`
		NodeID    string `json:"node_id"`
		IsPrimary bool   `json:"is_primary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if _, ok := s.nodes.Get(req.NodeID); !ok {
		http.Error(w, "unknown node "+req.NodeID, http.StatusBadRequest)
		return
	}
	if err := s.registry.AssignShard(req.ShardID, req.NodeID, req.IsPrimary); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleShardUnassign leaves a shard without an owner. Locates for its
// paths fail until it is assigned again.
func (s *server) handleShardUnassign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ShardID int `json:"shard_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := s.registry.RemoveShard(req.ShardID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Info("shard unassigned", zap.Int("shard", req.ShardID))
	w.WriteHeader(http.StatusNoContent)
}

// autoAssignShards hands every unassigned shard to a node, round-robin.
func (s *server) autoAssignShards() {
	ids := s.nodes.HealthyIDs("")
	if len(ids) == 0 {
		return
	}
	assigned := make(map[int]bool)
	for _, a := range s.registry.Assignments() {
		assigned[a.ShardID] = true
	}
	next := 0
	for shardID := 0; shardID < s.registry.NumShards(); shardID++ {
		if assigned[shardID] {
			continue
		}
		nodeID := ids[next%len(ids)]
		if err := s.registry.AssignShard(shardID, nodeID, true); err == nil {
			s.logger.Info("shard auto-assigned", zap.Int("shard", shardID), zap.String("node", nodeID))
		}
		next++
	}
}

// markNodeUnhealthy stops routing to nodeID and moves its shards elsewhere.
func (s *server) markNodeUnhealthy(nodeID string) {
	if !s.nodes.SetStatus(nodeID, cluster.StatusUnhealthy) {
		return
	}
	moved := s.registry.ReassignFrom(nodeID, s.nodes.HealthyIDs(nodeID))
	s.logger.Warn("node unhealthy", zap.String("node", nodeID), zap.Ints("shards_moved", moved))
}

// markNodeHealthy routes to nodeID again. Shards moved away while it was
// down stay where they are; it only picks up shards left without an owner.
func (s *server) markNodeHealthy(nodeID string) {
	if !s.nodes.SetStatus(nodeID, cluster.StatusHealthy) {
		return
	}
	s.logger.Info("node healthy again", zap.String("node", nodeID))
	s.autoAssignShards()
}

func parseUint32(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
