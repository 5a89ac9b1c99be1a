// Package redirect implements the locality-aware redirect decision used by
// the redirector when answering "where is file X".
//
// # Overview
//
// By default a locate request is answered with whatever the cluster's
// remote locator returns: the address of the storage node holding the file.
// When the client and that node both sit on private network segments, for
// example inside the same rack, sending the client across the network is
// wasteful. In that case the logical path is rewritten into a physical path
// the client can open directly and the answer is marked as a local redirect.
//
// # Decision Gates
//
// Engine.Decide evaluates the following gates in order. The first one that
// fails returns the remote answer unchanged:
//
//  1. The remote locator succeeded.
//  2. The target address is private. A target given by host name is
//     resolved first; a failed lookup counts as not private.
//  3. The client address is private.
//  4. The client protocol version (low 16 bits of the capability code) is
//     at least MinLocalCapability.
//  5. The open flags are one of the simple permitted modes (see OpenFlags.Permitted).
//  6. If the policy restricts local redirects to reads, the flags are read-only.
//  7. The path translates to a non-empty physical path.
//
// Only after gate 6 does the engine call its Translator, and at most once.
//
// # Responses
//
//	Remote:  {"status":"redirect","host":"10.0.0.9","port":1094,"capability":1808}
//	Local:   {"status":"redirect_local","port":-1,"path":"/local/data/f"}
//	Failure: {"status":"error","error":"no owner for shard 3"}
//
// # Concurrency
//
// Engine and Finder carry no mutable state. The Policy is copied into the
// Finder at construction and never changes, so both may be shared by any
// number of request goroutines without locking.
//
// # Usage
//
//	pol, _ := policy.LoadFile("/etc/torua/redirector.cf", "torua")
//	engine := redirect.NewEngine(nil, namespace.NewLocalRoot("/local"))
//	finder := redirect.NewFinder(locator.NewClient(coordURL), engine, pol)
//	resp, _ := finder.Locate(ctx, redirect.Request{Path: "/data/f", Client: addr}, capability)
package redirect
