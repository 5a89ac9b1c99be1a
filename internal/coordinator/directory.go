package coordinator

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/dreamware/redirlocal/internal/cluster"
)

// Directory holds the data servers that registered with the coordinator.
type Directory struct {
	mu    sync.RWMutex
	nodes []cluster.NodeInfo
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{}
}

// Upsert registers n, replacing an earlier registration with the same ID.
// A (re-)registering node is considered healthy. It reports whether n is new.
func (d *Directory) Upsert(n cluster.NodeInfo) bool {
	n.Status = cluster.StatusHealthy

	d.mu.Lock()
	defer d.mu.Unlock()
	idx := slices.IndexFunc(d.nodes, func(x cluster.NodeInfo) bool { return x.ID == n.ID })
	if idx >= 0 {
		d.nodes[idx] = n
		return false
	}
	d.nodes = append(d.nodes, n)
	return true
}

// Get returns the node registered under id.
func (d *Directory) Get(id string) (cluster.NodeInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	idx := slices.IndexFunc(d.nodes, func(x cluster.NodeInfo) bool { return x.ID == id })
	if idx < 0 {
		return cluster.NodeInfo{}, false
	}
	return d.nodes[idx], true
}

// List returns a copy of all registered nodes in registration order.
func (d *Directory) List() []cluster.NodeInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.nodes)
}

// HealthyIDs returns the IDs of nodes not marked unhealthy, excluding skip.
func (d *Directory) HealthyIDs(skip string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.nodes))
	for _, n := range d.nodes {
		if n.ID != skip && n.Status != cluster.StatusUnhealthy {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// SetStatus updates a node's status. It reports whether the node exists.
func (d *Directory) SetStatus(id, status string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := slices.IndexFunc(d.nodes, func(x cluster.NodeInfo) bool { return x.ID == id })
	if idx < 0 {
		return false
	}
	d.nodes[idx].Status = status
	return true
}
