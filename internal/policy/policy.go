// Package policy holds the operator-controlled redirect policy and the loader
// for its directive file.
//
// A Policy is loaded once at startup, before any request is served, and is
// passed by value from then on. Nothing in this package mutates a Policy after
// it has been returned to the caller.
package policy

// DefaultProduct prefixes directive keys when no product name is configured.
const DefaultProduct = "torua"

// Policy narrows which operations may be answered with a local redirect.
type Policy struct {
	// ReadOnlyRedirectOnly restricts local redirects to plain read-only opens.
	ReadOnlyRedirectOnly bool `json:"read_only_redirect_only" yaml:"read_only_redirect_only"`
}

// Default returns the policy used when no directive file is available.
func Default() Policy {
	return Policy{}
}
