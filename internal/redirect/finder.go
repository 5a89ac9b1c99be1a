package redirect

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/redirlocal/internal/policy"
)

// ErrNoSpaceLocator is returned by Space when no space locator is configured.
var ErrNoSpaceLocator = errors.New("redirect: no space locator configured")

// Finder answers locate and space requests for the redirector. Locate asks
// the remote locator first and then lets the Engine decide whether to answer
// with a local path instead. Space is forwarded untouched.
type Finder struct {
	locator Locator
	space   SpaceLocator
	engine  *Engine
	policy  policy.Policy
	logger  *zap.Logger
	metrics *Metrics
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithSpaceLocator sets the collaborator that answers space queries.
func WithSpaceLocator(s SpaceLocator) FinderOption {
	return func(f *Finder) { f.space = s }
}

// WithLogger sets the logger used for per-request debug output.
func WithLogger(l *zap.Logger) FinderOption {
	return func(f *Finder) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics sets the collectors decisions are recorded in.
func WithMetrics(m *Metrics) FinderOption {
	return func(f *Finder) { f.metrics = m }
}

// NewFinder returns a Finder. pol is copied and never changes afterwards.
func NewFinder(locator Locator, engine *Engine, pol policy.Policy, opts ...FinderOption) *Finder {
	f := &Finder{
		locator: locator,
		engine:  engine,
		policy:  pol,
		logger:  zap.NewNop(),
	}
	if s, ok := locator.(SpaceLocator); ok {
		f.space = s
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Policy returns the policy the Finder was built with.
func (f *Finder) Policy() policy.Policy {
	return f.policy
}

// Locate resolves req and returns the response for the client together with
// the decision behind it. Locator failures are passed through verbatim.
func (f *Finder) Locate(ctx context.Context, req Request, capability uint32) (Response, Decision) {
	start := time.Now()

	var res Result
	if f.locator == nil {
		res = Failed(errors.New("no remote locator configured"))
	} else {
		var err error
		res, err = f.locator.Locate(ctx, req.Path, req.Flags, Env{Client: req.Client, Capability: capability})
		if err != nil {
			res = Failed(err)
		}
	}

	d := f.engine.Decide(ctx, req, res, f.policy)
	f.metrics.ObserveDecision(d, time.Since(start))

	if ce := f.logger.Check(zap.DebugLevel, "locate decided"); ce != nil {
		ce.Write(
			zap.String("path", req.Path),
			zap.Stringer("flags", req.Flags),
			zap.Stringer("client", req.Client),
			zap.String("target", res.Target),
			zap.Uint32("version", res.Version()),
			zap.String("outcome", d.Outcome()),
			zap.String("reason", string(d.Reason())),
		)
	}
	return ResponseFromDecision(d), d
}

// Space forwards a space query to the configured SpaceLocator.
func (f *Finder) Space(ctx context.Context, path string) (SpaceInfo, error) {
	if f.space == nil {
		return SpaceInfo{}, ErrNoSpaceLocator
	}
	info, err := f.space.Space(ctx, path)
	f.metrics.ObserveSpace(err)
	return info, err
}
