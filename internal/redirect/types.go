package redirect

import (
	"context"
	"net/netip"
)

// MinLocalCapability is the lowest client protocol version that understands
// a local redirect.
const MinLocalCapability = 784

// capabilityVersionMask selects the protocol version from a capability code.
// The upper bits are feature flags and play no part in the decision.
const capabilityVersionMask = 0x0000ffff

// Request is a single locate call as seen by the engine.
type Request struct {
	Path   string     // logical path being located
	Flags  OpenFlags  // requested open mode
	Client netip.Addr // resolved address of the requesting client
}

// LocateStatus tells whether the remote locator produced a usable target.
type LocateStatus int

const (
	LocateOK LocateStatus = iota
	LocateError
)

func (s LocateStatus) String() string {
	if s == LocateOK {
		return "ok"
	}
	return "error"
}

// Result is what the remote locator answered. It is passed back to the
// client unchanged whenever no local redirect is made.
type Result struct {
	Target     string       `json:"target,omitempty"` // "host:port"
	Capability uint32       `json:"capability"`
	Status     LocateStatus `json:"status"`
	Err        string       `json:"error,omitempty"`
}

// Version returns the protocol version carried in the low 16 bits of the
// capability code.
func (r Result) Version() uint32 {
	return r.Capability & capabilityVersionMask
}

// Failed builds the Result used when the remote locator could not be reached
// or returned no answer.
func Failed(err error) Result {
	res := Result{Status: LocateError}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}

// Env carries what the hosting service knows about the client.
type Env struct {
	Client     netip.Addr
	Capability uint32
}

// Locator resolves a logical path to a storage target.
type Locator interface {
	Locate(ctx context.Context, path string, flags OpenFlags, env Env) (Result, error)
}

// SpaceInfo is the answer to a space query.
type SpaceInfo struct {
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
	Nodes      int    `json:"nodes"`
}

// SpaceLocator answers resource-space queries.
type SpaceLocator interface {
	Space(ctx context.Context, path string) (SpaceInfo, error)
}

// Translator maps a logical path to the physical path reachable on this node.
type Translator interface {
	Translate(ctx context.Context, logical string) (string, error)
}
