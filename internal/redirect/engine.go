package redirect

import (
	"context"
	"net"
	"net/netip"

	"github.com/dreamware/redirlocal/internal/policy"
)

// Resolver looks up the addresses of a host name. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Engine decides between answering a locate request with a local path and
// passing the remote locator's answer through. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	classifier Classifier
	translator Translator
	resolver   Resolver
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithResolver sets the resolver used for targets given by host name.
func WithResolver(r Resolver) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// NewEngine returns an Engine. A nil classifier selects PrivateClassifier;
// host names are resolved with net.DefaultResolver unless WithResolver says
// otherwise.
func NewEngine(classifier Classifier, translator Translator, opts ...EngineOption) *Engine {
	if classifier == nil {
		classifier = PrivateClassifier
	}
	e := &Engine{classifier: classifier, translator: translator, resolver: net.DefaultResolver}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide runs the locality gates in order and returns on the first one that
// fails. The translator is only consulted once every gate has passed; a
// translation error or an empty path falls back to the remote answer.
func (e *Engine) Decide(ctx context.Context, req Request, res Result, pol policy.Policy) Decision {
	if res.Status != LocateOK {
		return Remote(res, ReasonLocatorFailed)
	}

	target, ok := e.targetAddr(ctx, res.Target)
	if !ok || !e.classifier.IsPrivate(target) {
		return Remote(res, ReasonTargetPublic)
	}
	if !e.classifier.IsPrivate(req.Client) {
		return Remote(res, ReasonClientPublic)
	}

	if res.Version() < MinLocalCapability {
		return Remote(res, ReasonOldClient)
	}

	if !req.Flags.Permitted() {
		return Remote(res, ReasonFlagsRejected)
	}
	if pol.ReadOnlyRedirectOnly && !req.Flags.ReadOnly() {
		return Remote(res, ReasonPolicy)
	}

	if e.translator == nil {
		return Remote(res, ReasonTranslateFailed)
	}
	physical, err := e.translator.Translate(ctx, req.Path)
	if err != nil || physical == "" {
		return Remote(res, ReasonTranslateFailed)
	}
	return Local(physical)
}

// targetAddr returns the address of a "host:port" target. A host name is
// resolved and its first address used; a failed or empty lookup yields
// ok == false.
func (e *Engine) targetAddr(ctx context.Context, target string) (netip.Addr, bool) {
	if addr, ok := ParseHostAddr(target); ok {
		return addr, true
	}
	host := target
	if h, _, err := net.SplitHostPort(target); err == nil {
		host = h
	}
	if host == "" {
		return netip.Addr{}, false
	}
	addrs, err := e.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil || len(addrs) == 0 {
		return netip.Addr{}, false
	}
	return addrs[0], true
}
