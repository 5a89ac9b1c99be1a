// Package coordinator implements the cluster manager side of locate: which
// data server holds a logical path. See doc.go for the package overview.
package coordinator

import (
	"errors"
	"fmt"
	"hash/fnv"
	"path"
	"sync"
)

// ErrNoOwner is returned when a path's shard has no node assigned.
var ErrNoOwner = errors.New("coordinator: shard has no owner")

// ShardAssignment records which data server serves a shard of the logical
// namespace. A locate for any path hashing onto ShardID is answered with
// NodeID's host:port.
//
// Assignments made by the coordinator itself are always primaries. Operators
// may record a non-primary assignment through POST /shards/assign; it is
// located exactly like a primary, since only one owner is kept per shard.
//
// Thread Safety:
// The registry never hands out its own values. Assignment, Assignments and
// the JSON served on /shards are copies and may be modified freely.
//
// Example:
//
//	a := &ShardAssignment{
//	    ShardID:   5,
//	    NodeID:    "node-2",
//	    IsPrimary: true,
//	}
type ShardAssignment struct {
	// NodeID is the ID a data server registered under.
	NodeID string `json:"node_id"`

	// IsPrimary is true for every automatic assignment.
	IsPrimary bool `json:"is_primary"`

	// ShardID lies in [0, numShards).
	ShardID int `json:"shard_id"`
}

// ShardRegistry maps logical paths onto shards and shards onto data
// servers. It is the authoritative source for placement: Placement asks it
// for the owner of a path on every locate.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│            ShardRegistry                │
//	├─────────────────────────────────────────┤
//	│  assignments: map[shardID]→assignment   │
//	│  numShards:   fixed shard count         │
//	│  mu:          RWMutex                   │
//	├─────────────────────────────────────────┤
//	│  Path → Clean → Hash → Shard → Node     │
//	│  "/data/run42/f.root" → 5 → "node-2"    │
//	└─────────────────────────────────────────┘
//
// Concurrency Model:
//   - Locates and listings take the read lock and may run in parallel
//   - Assignment changes take the write lock
//   - Every value returned is a copy
//
// The shard count is fixed for the lifetime of the registry. Changing it
// would move almost every path to another shard, so it is not supported.
type ShardRegistry struct {
	assignments map[int]*ShardAssignment
	mu          sync.RWMutex
	numShards   int
}

// NewShardRegistry creates a registry with numShards shards, none of them
// assigned. A numShards of zero or less is raised to one so that
// ShardForPath never divides by zero.
//
// Example:
//
//	registry := NewShardRegistry(64)
//	_ = registry.Rebalance([]string{"node-1", "node-2"})
//	shard, owner, err := registry.OwnerForPath("/data/f")
func NewShardRegistry(numShards int) *ShardRegistry {
	if numShards <= 0 {
		numShards = 1
	}
	return &ShardRegistry{
		assignments: make(map[int]*ShardAssignment),
		numShards:   numShards,
	}
}

// AssignShard gives shardID to nodeID, replacing any previous owner.
func (r *ShardRegistry) AssignShard(shardID int, nodeID string, isPrimary bool) error {
	if shardID < 0 || shardID >= r.numShards {
		return fmt.Errorf("invalid shard ID %d, must be in range [0, %d)", shardID, r.numShards)
	}
	if nodeID == "" {
		return errors.New("node ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[shardID] = &ShardAssignment{ShardID: shardID, NodeID: nodeID, IsPrimary: isPrimary}
	return nil
}

// RemoveShard leaves shardID unassigned. Removing an unassigned shard is not
// an error.
func (r *ShardRegistry) RemoveShard(shardID int) error {
	if shardID < 0 || shardID >= r.numShards {
		return fmt.Errorf("invalid shard ID %d, must be in range [0, %d)", shardID, r.numShards)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assignments, shardID)
	return nil
}

// Assignment returns a copy of shardID's assignment, or nil.
func (r *ShardRegistry) Assignment(shardID int) *ShardAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.assignments[shardID]
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// Assignments returns copies of every current assignment in no particular order.
func (r *ShardRegistry) Assignments() []*ShardAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ShardAssignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

// ShardForPath hashes the cleaned logical path onto a shard with 32-bit
// FNV-1a, so "/a//b" and "/a/b" land together. The result depends only on
// the path and the shard count; assignments play no part.
//
//	shard = fnv32a(path.Clean(p)) % numShards
func (r *ShardRegistry) ShardForPath(p string) int {
	h := fnv.New32a()
	h.Write([]byte(path.Clean(p)))
	return int(h.Sum32() % uint32(r.numShards))
}

// OwnerForPath returns the shard for p and the node that owns it. When the
// shard has no owner the shard is still returned, together with an error
// wrapping ErrNoOwner, so callers can report which shard is missing.
func (r *ShardRegistry) OwnerForPath(p string) (int, string, error) {
	shardID := r.ShardForPath(p)

	r.mu.RLock()
	a := r.assignments[shardID]
	r.mu.RUnlock()

	if a == nil {
		return shardID, "", fmt.Errorf("%w: shard %d", ErrNoOwner, shardID)
	}
	return shardID, a.NodeID, nil
}

// NodeShards lists the shards owned by nodeID.
func (r *ShardRegistry) NodeShards(nodeID string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var shards []int
	for id, a := range r.assignments {
		if a.NodeID == nodeID {
			shards = append(shards, id)
		}
	}
	return shards
}

// NumShards returns the fixed shard count.
func (r *ShardRegistry) NumShards() int {
	return r.numShards
}

// Rebalance assigns every shard round-robin over nodes as primaries,
// replacing all current assignments. Shard i goes to nodes[i%len(nodes)].
// It fails without touching the registry when nodes is empty.
func (r *ShardRegistry) Rebalance(nodes []string) error {
	if len(nodes) == 0 {
		return errors.New("cannot rebalance with no nodes")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for shardID := 0; shardID < r.numShards; shardID++ {
		r.assignments[shardID] = &ShardAssignment{
			ShardID:   shardID,
			NodeID:    nodes[shardID%len(nodes)],
			IsPrimary: true,
		}
	}
	return nil
}

// ReassignFrom moves every shard owned by nodeID onto others, round-robin in
// shard order, and returns the IDs of the moved shards. It is called when a
// data server turns unhealthy.
//
// Shards stay put when others is empty. Locates for them then keep failing
// with "node is unhealthy" rather than with ErrNoOwner, which tells the
// operator where the shards were.
func (r *ShardRegistry) ReassignFrom(nodeID string, others []string) []int {
	if len(others) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var moved []int
	i := 0
	for id := 0; id < r.numShards; id++ {
		a := r.assignments[id]
		if a == nil || a.NodeID != nodeID {
			continue
		}
		r.assignments[id] = &ShardAssignment{ShardID: id, NodeID: others[i%len(others)], IsPrimary: true}
		moved = append(moved, id)
		i++
	}
	return moved
}
