package coordinator

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreamware/redirlocal/internal/cluster"
)

// Locate status values on the wire.
const (
	LocateOK    = "ok"
	LocateError = "error"
)

// Placement answers locate and space queries from the shard registry and the
// node directory. It is the remote locator the redirectors talk to.
type Placement struct {
	registry *ShardRegistry
	nodes    *Directory
	locates  *prometheus.CounterVec
}

// NewPlacement wires a Placement. A nil reg leaves its metrics unregistered.
func NewPlacement(registry *ShardRegistry, nodes *Directory, reg prometheus.Registerer) *Placement {
	p := &Placement{
		registry: registry,
		nodes:    nodes,
		locates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "torua",
			Subsystem: "coordinator",
			Name:      "locates_total",
			Help:      "Locate requests answered by the coordinator.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(p.locates)
	}
	return p
}

// Locate resolves p to the primary owner of its shard. The client's
// capability code is echoed back unchanged as the negotiated capability.
// Flags do not influence placement.
func (p *Placement) Locate(path string, _ uint32, capability uint32) cluster.LocateResponse {
	resp := p.locate(path, capability)
	p.locates.WithLabelValues(resp.Status).Inc()
	return resp
}

func (p *Placement) locate(path string, capability uint32) cluster.LocateResponse {
	fail := func(err error) cluster.LocateResponse {
		return cluster.LocateResponse{Status: LocateError, Capability: capability, Error: err.Error()}
	}

	shardID, nodeID, err := p.registry.OwnerForPath(path)
	if err != nil {
		return fail(err)
	}
	node, ok := p.nodes.Get(nodeID)
	if !ok {
		return fail(fmt.Errorf("shard %d: node %s is not registered", shardID, nodeID))
	}
	if node.Status == cluster.StatusUnhealthy {
		return fail(fmt.Errorf("shard %d: node %s is unhealthy", shardID, nodeID))
	}
	target, err := node.HostPort()
	if err != nil {
		return fail(err)
	}
	return cluster.LocateResponse{
		Status:     LocateOK,
		Target:     target,
		NodeID:     nodeID,
		Capability: capability,
	}
}

// Space totals the capacity reported by every node not marked unhealthy.
// The path is accepted for interface symmetry; space is cluster wide.
func (p *Placement) Space(_ string) cluster.SpaceResponse {
	var out cluster.SpaceResponse
	for _, n := range p.nodes.List() {
		if n.Status == cluster.StatusUnhealthy {
			continue
		}
		out.TotalBytes += n.TotalBytes
		out.FreeBytes += n.FreeBytes
		out.Nodes++
	}
	return out
}
