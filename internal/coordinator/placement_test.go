package coordinator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redirlocal/internal/cluster"
)

func newTestPlacement(t *testing.T) (*Placement, *ShardRegistry, *Directory) {
	t.Helper()
	reg := NewShardRegistry(4)
	dir := NewDirectory()
	return NewPlacement(reg, dir, prometheus.NewRegistry()), reg, dir
}

func TestPlacementLocate(t *testing.T) {
	p, reg, dir := newTestPlacement(t)
	dir.Upsert(cluster.NodeInfo{ID: "node-1", Addr: "http://10.0.0.9:1095"})
	require.NoError(t, reg.AssignShard(reg.ShardForPath("/data/f"), "node-1", true))

	resp := p.Locate("/data/f", 0, 0x0400|784)
	assert.Equal(t, cluster.LocateResponse{
		Status:     LocateOK,
		Target:     "10.0.0.9:1095",
		NodeID:     "node-1",
		Capability: 0x0400 | 784,
	}, resp)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.locates.WithLabelValues(LocateOK)))
}

func TestPlacementLocateFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(reg *ShardRegistry, dir *Directory)
		want  string
	}{
		{
			name:  "unassigned shard",
			setup: func(*ShardRegistry, *Directory) {},
			want:  "no owner",
		},
		{
			name: "owner not registered",
			setup: func(reg *ShardRegistry, _ *Directory) {
				_ = reg.AssignShard(reg.ShardForPath("/data/f"), "ghost", true)
			},
			want: "not registered",
		},
		{
			name: "owner unhealthy",
			setup: func(reg *ShardRegistry, dir *Directory) {
				dir.Upsert(cluster.NodeInfo{ID: "node-1", Addr: "http://10.0.0.9:1095"})
				dir.SetStatus("node-1", cluster.StatusUnhealthy)
				_ = reg.AssignShard(reg.ShardForPath("/data/f"), "node-1", true)
			},
			want: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, reg, dir := newTestPlacement(t)
			tt.setup(reg, dir)

			resp := p.Locate("/data/f", 0, 784)
			assert.Equal(t, LocateError, resp.Status)
			assert.Contains(t, resp.Error, tt.want)
			assert.Equal(t, uint32(784), resp.Capability)
			assert.Empty(t, resp.Target)
		})
	}
}

func TestPlacementSpace(t *testing.T) {
	p, _, dir := newTestPlacement(t)
	dir.Upsert(cluster.NodeInfo{ID: "a", Addr: "http://10.0.0.1:1", TotalBytes: 100, FreeBytes: 10})
	dir.Upsert(cluster.NodeInfo{ID: "b", Addr: "http://10.0.0.2:1", TotalBytes: 200, FreeBytes: 50})
	dir.Upsert(cluster.NodeInfo{ID: "c", Addr: "http://10.0.0.3:1", TotalBytes: 999, FreeBytes: 999})
	dir.SetStatus("c", cluster.StatusUnhealthy)

	assert.Equal(t, cluster.SpaceResponse{TotalBytes: 300, FreeBytes: 60, Nodes: 2}, p.Space("/any"))
}

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	assert.True(t, d.Upsert(cluster.NodeInfo{ID: "a", Addr: "http://10.0.0.1:1"}))
	assert.True(t, d.Upsert(cluster.NodeInfo{ID: "b", Addr: "http://10.0.0.2:1"}))
	assert.False(t, d.Upsert(cluster.NodeInfo{ID: "a", Addr: "http://10.0.0.7:1"}), "re-registration")

	n, ok := d.Get("a")
	require.True(t, ok)
	assert.Equal(t, "http://10.0.0.7:1", n.Addr)
	assert.Equal(t, cluster.StatusHealthy, n.Status)

	assert.True(t, d.SetStatus("a", cluster.StatusUnhealthy))
	assert.False(t, d.SetStatus("zz", cluster.StatusUnhealthy))
	assert.Equal(t, []string{"b"}, d.HealthyIDs(""))
	assert.Empty(t, d.HealthyIDs("b"))

	list := d.List()
	list[0].ID = "mutated"
	_, ok = d.Get("a")
	assert.True(t, ok, "List returns a copy")

	d.Upsert(cluster.NodeInfo{ID: "a", Addr: "http://10.0.0.7:1"})
	assert.ElementsMatch(t, []string{"a", "b"}, d.HealthyIDs(""), "re-registering clears unhealthy")
}
