// Package cluster holds the wire types and HTTP/JSON helpers shared by the
// coordinator, the redirectors and the data servers of a torua storage
// cluster.
//
// # Overview
//
// A torua cluster has three kinds of process. Data servers export a
// directory tree under /files/. The coordinator knows which data
// server holds each logical path. Redirectors sit in front of the cluster and
// decide, per open request, whether a client may read the file straight from
// a locally mounted copy of the namespace or must be redirected to the data
// server over the network. Every control message between these processes is
// plain JSON over HTTP, and its shape is defined here.
//
// # Architecture
//
//	                 ┌──────────────┐
//	   client ──────►│  Redirector  │
//	                 │              │
//	                 │ - Engine     │
//	                 │ - Policy     │
//	                 └──────┬───────┘
//	                        │ GET /locate, GET /space
//	                 ┌──────▼───────┐
//	                 │ Coordinator  │
//	                 │              │
//	                 │ - Directory  │
//	                 │ - Shards     │
//	                 │ - Health Mon │
//	                 └──────┬───────┘
//	                        │ GET /health, broadcasts
//	       ┌────────────────┼────────────────┐
//	       │                │                │
//	┌──────▼─────┐   ┌──────▼─────┐   ┌──────▼─────┐
//	│  Node 1    │   │  Node 2    │   │  Node 3    │
//	│ 10.0.0.9   │   │ 10.0.0.10  │   │ 10.0.0.11  │
//	└────────────┘   └────────────┘   └────────────┘
//
// Data servers push their registration to the coordinator. The coordinator
// never calls a redirector; redirectors pull locate answers on demand.
//
// # Messages
//
// NodeInfo: a registered data server
//   - ID is chosen by the server and is stable across restarts
//   - Addr is a base URL; HostPort extracts the "host:port" handed to clients
//   - Status is owned by the coordinator and ignored on registration
//   - TotalBytes and FreeBytes describe the exported directory
//
// RegisterRequest (POST /register on the coordinator):
//
//	{"node":{"id":"node-1","addr":"http://10.0.0.9:1095","total_bytes":1e12,"free_bytes":4e11}}
//
// A server may register any number of times. Each registration replaces the
// previous one and marks the server healthy.
//
// LocateResponse (GET /locate?path=&flags=&cap= on the coordinator):
//
//	{"target":"10.0.0.9:1095","node_id":"node-1","capability":1808,"status":"ok"}
//	{"capability":784,"status":"error","error":"coordinator: shard has no owner: shard 3"}
//
// Status is "ok" or "error". Failures travel in the body with a 200 status so
// the redirector can pass the error text to its client unchanged. Capability
// is the negotiated client capability code; the low 16 bits carry the
// protocol version the redirector compares against.
//
// SpaceResponse (GET /space):
//
//	{"total_bytes":3000000000000,"free_bytes":1200000000000,"nodes":3}
//
// BroadcastRequest (POST /broadcast on the coordinator) names a path on the
// data servers and an opaque JSON payload that is posted to each of them.
//
// # Transport
//
// PostJSON and GetJSON share one http.Client with a 5 second timeout. The
// caller's context bounds the request as well; whichever expires first wins.
// Any status of 300 or above is an error and the body is not inspected. A
// nil out argument to PostJSON skips decoding of the response.
//
// # Error Handling
//
// Transport errors are returned as is so callers can test them with
// errors.Is against context.DeadlineExceeded or context.Canceled. Bad
// statuses are reported as "http <url>: <code>". HostPort wraps url.Parse
// failures with the node ID so a misconfigured server is easy to spot in the
// coordinator's log.
//
// # Concurrency Model
//
// The types in this package are plain values and are safe to copy. The
// shared http.Client is safe for concurrent use, so PostJSON and GetJSON may
// be called from any number of goroutines.
//
// # Usage Example
//
//	// Registering a data server
//	info := cluster.NodeInfo{
//	    ID:         "node-1",
//	    Addr:       "http://10.0.0.9:1095",
//	    TotalBytes: total,
//	    FreeBytes:  free,
//	}
//	err := cluster.PostJSON(ctx, "http://coord:8080/register",
//	    cluster.RegisterRequest{Node: info}, nil)
//
//	// Asking for the owner of a path
//	var resp cluster.LocateResponse
//	err = cluster.GetJSON(ctx, "http://coord:8080/locate?path=/data/f&cap=784", &resp)
//	if err == nil && resp.Status == "ok" {
//	    fmt.Println("redirect to", resp.Target)
//	}
//
// # Limitations
//
//   - No TLS between cluster members
//   - No retry inside PostJSON or GetJSON; data servers retry registration
//     themselves with a fixed delay
//   - Response bodies of failed requests are discarded
//
// # See Also
//
// Related packages:
//   - internal/coordinator: shard placement and node health
//   - internal/locator: the redirector's client for /locate and /space
//   - internal/redirect: the locality decision engine
package cluster
