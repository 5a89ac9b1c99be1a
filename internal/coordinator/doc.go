// Package coordinator implements the cluster manager of a torua storage
// cluster: the component that knows which data server holds each logical
// path and that redirectors consult as their remote locator.
//
// # Overview
//
// Data servers register with the coordinator, advertising a base URL and
// the capacity of the directory they export. The logical namespace is cut
// into a fixed number of shards; every shard has one primary owner. A
// locate request hashes the path onto its shard and answers with the
// owner's host:port. The coordinator does not serve data and does not make
// locality decisions. Whether a client reads a file through a local mount
// or over the network is decided by the redirector after it has the
// coordinator's answer.
//
// # Architecture
//
//	┌──────────────────────────────────────────┐
//	│              COORDINATOR                 │
//	├──────────────────────────────────────────┤
//	│                                          │
//	│  ┌────────────────────────────────────┐  │
//	│  │   Directory                        │  │
//	│  │   - Registered data servers        │  │
//	│  │   - Healthy / unhealthy status     │  │
//	│  │   - Reported capacity              │  │
//	│  └────────────────────────────────────┘  │
//	│                                          │
//	│  ┌────────────────────────────────────┐  │
//	│  │   ShardRegistry                    │  │
//	│  │   - Path → shard hashing           │  │
//	│  │   - Shard → node assignments       │  │
//	│  │   - Rebalance and reassignment     │  │
//	│  └────────────────────────────────────┘  │
//	│                                          │
//	│  ┌────────────────────────────────────┐  │
//	│  │   Placement                        │  │
//	│  │   - Locate answers                 │  │
//	│  │   - Space totals                   │  │
//	│  │   - locates_total metric           │  │
//	│  └────────────────────────────────────┘  │
//	│                                          │
//	│  ┌────────────────────────────────────┐  │
//	│  │   HealthMonitor                    │  │
//	│  │   - Periodic GET /health checks    │  │
//	│  │   - Unhealthy after 3 failures     │  │
//	│  │   - Recovery notification          │  │
//	│  └────────────────────────────────────┘  │
//	│                                          │
//	└──────────────────────────────────────────┘
//
// # Core Components
//
// Directory: the registered data servers
//   - Keeps registration order, which drives round-robin assignment
//   - Upsert replaces an earlier registration with the same ID
//   - Every registration resets the node to healthy
//   - HealthyIDs feeds shard reassignment
//
// ShardRegistry: the authoritative path placement
//   - Paths are cleaned and hashed with FNV-1a onto [0, numShards)
//   - Each shard has at most one owner at a time
//   - Rebalance spreads every shard over a node list
//   - ReassignFrom moves one node's shards onto the others
//
// Placement: the read side used by GET /locate and GET /space
//   - Never returns a Go error; failures travel in the response
//   - Refuses to locate onto unregistered or unhealthy nodes
//   - Counts answers by status in torua_coordinator_locates_total
//
// HealthMonitor: liveness of the data servers
//   - Checks every registered node each interval
//   - Reports a node unhealthy once after three failures in a row
//   - Reports it recovered on its first passing check afterwards
//   - Forgets its record when the node registers again
//
// # Shard Distribution
//
//	"/data/run42/f.root" → clean → fnv32a → shard 5 → "node-2" → "10.0.0.9:1095"
//	"/data//run42/f.root" → clean → fnv32a → shard 5 (same shard)
//
// The shard count is fixed for the lifetime of a coordinator. When a data
// server registers, every unassigned shard is handed round-robin to the
// healthy servers. Shards that already have an owner are
// left alone, so a newcomer only takes shards nobody held. Operators can
// move a single shard with POST /shards/assign or clear it with
// POST /shards/unassign.
//
// # Locate Semantics
//
// Placement.Locate never returns a Go error. Failures (unassigned shard,
// owner unknown or unhealthy) are reported in the response with status
// "error" so the redirector can pass them to the client verbatim. The
// client's capability code is echoed back as the negotiated capability.
// The open flags are accepted but play no part in placement.
//
// Space ignores its path argument and totals the capacity of every node not
// marked unhealthy. Space is cluster wide because every path may land on any
// server.
//
// # Failure Handling
//
// Node Failures:
//   - Detection: three consecutive failed health checks
//   - Impact: locates to the node fail until its shards move
//   - Recovery: its shards move round-robin onto the remaining healthy nodes
//   - Without other healthy nodes the shards stay put and locates fail
//
// Node Recovery:
//   - A passing check after the node was reported unhealthy fires the
//     recovered callback
//   - The node is marked healthy in the Directory and locates reach it again
//   - Shards moved away stay where they are; it only picks up shards left
//     without an owner
//   - Registering again has the same effect and also clears the monitor's
//     failure count through Forget
//
// Coordinator Failures:
//   - All state is in memory and lost on restart
//   - Data servers re-register on their own restart only
//   - Redirectors report locate errors to their clients meanwhile
//
// # Concurrency Model
//
// Directory, ShardRegistry and HealthMonitor guard their state with
// sync.RWMutex. Reads take the read lock and may run in parallel. Returned
// slices and structs are copies, so callers may keep or modify them. No lock
// is held across network I/O: the monitor snapshots its node list before
// checking, and the unhealthy and recovered callbacks run on their own
// goroutines so they may call back into the Directory and ShardRegistry.
//
// # Endpoints
//
// cmd/coordinator exposes these types over HTTP:
//
//	POST /register         RegisterRequest, then auto-assignment
//	GET  /nodes            nodes with their shards and monitor health
//	GET  /locate           Placement.Locate
//	GET  /space            Placement.Space
//	GET  /shards           every assignment, or one with ?id=N
//	POST /shards/assign    {"shard_id":3,"node_id":"node-1","is_primary":true}
//	POST /shards/unassign  {"shard_id":3}
//
// # Configuration
//
// The coordinator section of the YAML configuration:
//
//	coordinator:
//	  num_shards: 4          # shards in the namespace, --shards overrides
//	  health_interval: 10s   # time between health check rounds
//
// The check timeout of 2 seconds and the limit of 3 failures are fixed.
//
// # Usage Example
//
//	nodes := coordinator.NewDirectory()
//	shards := coordinator.NewShardRegistry(64)
//	placement := coordinator.NewPlacement(shards, nodes, prometheus.NewRegistry())
//
//	nodes.Upsert(cluster.NodeInfo{ID: "node-1", Addr: "http://10.0.0.9:1095"})
//	_ = shards.Rebalance([]string{"node-1"})
//	resp := placement.Locate("/data/f", 0, 784)
//	// resp.Status == "ok", resp.Target == "10.0.0.9:1095"
//
//	monitor := coordinator.NewHealthMonitor(10*time.Second, logger)
//	monitor.SetOnUnhealthy(func(id string) {
//	    nodes.SetStatus(id, cluster.StatusUnhealthy)
//	    shards.ReassignFrom(id, nodes.HealthyIDs(id))
//	})
//	monitor.SetOnRecovered(func(id string) {
//	    nodes.SetStatus(id, cluster.StatusHealthy)
//	})
//	go monitor.Start(ctx, nodes.List)
//
// # Limitations and Future Work
//
// Current limitations:
//   - Single coordinator with in-memory state
//   - No replicas; IsPrimary is always true for automatic assignments
//   - A recovered node does not take its old shards back
//
// # See Also
//
// Related packages:
//   - internal/cluster: wire types shared with data servers and redirectors
//   - internal/locator: the redirector's client for this package's answers
//   - cmd/coordinator: the HTTP server
package coordinator
