package redirect

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dreamware/redirlocal/internal/policy"
)

type fakeLocator struct {
	res     Result
	err     error
	gotEnv  Env
	gotPath string
	space   SpaceInfo
}

func (f *fakeLocator) Locate(_ context.Context, path string, _ OpenFlags, env Env) (Result, error) {
	f.gotPath = path
	f.gotEnv = env
	return f.res, f.err
}

func (f *fakeLocator) Space(_ context.Context, _ string) (SpaceInfo, error) {
	return f.space, f.err
}

func TestFinderLocateLocal(t *testing.T) {
	loc := &fakeLocator{res: okResult("10.0.0.9:1094", 0x0400|784)}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	f := NewFinder(loc, NewEngine(nil, &fakeTranslator{}), policy.Default(), WithMetrics(m))

	client := netip.MustParseAddr("10.0.0.5")
	resp, d := f.Locate(context.Background(), Request{Path: "/data/f", Client: client}, 0x0400|784)

	assert.True(t, d.IsLocal())
	assert.Equal(t, Response{Status: ResponseRedirectLocal, Port: LocalPort, Path: "/local/data/f"}, resp)
	assert.Equal(t, "/data/f", loc.gotPath)
	assert.Equal(t, Env{Client: client, Capability: 0x0400 | 784}, loc.gotEnv)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("local", string(ReasonLocal))))
}

func TestFinderLocateTransportError(t *testing.T) {
	loc := &fakeLocator{err: errors.New("connection refused")}
	tr := &fakeTranslator{}
	f := NewFinder(loc, NewEngine(nil, tr), policy.Default())

	resp, d := f.Locate(context.Background(), Request{Path: "/f", Client: privateClient}, 784)

	assert.False(t, d.IsLocal())
	assert.Equal(t, ReasonLocatorFailed, d.Reason())
	assert.Equal(t, ResponseError, resp.Status)
	assert.Equal(t, "connection refused", resp.Err)
	assert.Zero(t, tr.calls)
}

func TestFinderLocateWithoutLocator(t *testing.T) {
	f := NewFinder(nil, NewEngine(nil, &fakeTranslator{}), policy.Default())
	resp, _ := f.Locate(context.Background(), Request{Path: "/f", Client: privateClient}, 784)
	assert.Equal(t, ResponseError, resp.Status)
}

func TestFinderPolicyIsFixed(t *testing.T) {
	pol := policy.Policy{ReadOnlyRedirectOnly: true}
	f := NewFinder(&fakeLocator{res: okResult("10.0.0.9:1094", 784)}, NewEngine(nil, &fakeTranslator{}), pol)
	pol.ReadOnlyRedirectOnly = false

	assert.True(t, f.Policy().ReadOnlyRedirectOnly)
	_, d := f.Locate(context.Background(), Request{Path: "/f", Flags: OpenReadWrite, Client: privateClient}, 784)
	assert.Equal(t, ReasonPolicy, d.Reason())
}

func TestFinderLogsDecisionAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := NewFinder(&fakeLocator{res: okResult("203.0.113.7:1094", 784)}, NewEngine(nil, &fakeTranslator{}), policy.Default(),
		WithLogger(zap.New(core)))

	f.Locate(context.Background(), Request{Path: "/f", Client: privateClient}, 784)

	entries := logs.FilterMessage("locate decided").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "remote", fields["outcome"])
	assert.Equal(t, string(ReasonTargetPublic), fields["reason"])
}

func TestFinderSpace(t *testing.T) {
	loc := &fakeLocator{space: SpaceInfo{TotalBytes: 100, FreeBytes: 40, Nodes: 2}}
	f := NewFinder(loc, NewEngine(nil, nil), policy.Default())

	info, err := f.Space(context.Background(), "/data")
	require.NoError(t, err)
	assert.Equal(t, loc.space, info)

	f = NewFinder(locatorOnly{}, NewEngine(nil, nil), policy.Default())
	_, err = f.Space(context.Background(), "/data")
	assert.ErrorIs(t, err, ErrNoSpaceLocator)

	f = NewFinder(locatorOnly{}, NewEngine(nil, nil), policy.Default(), WithSpaceLocator(loc))
	info, err = f.Space(context.Background(), "/data")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Nodes)
}

type locatorOnly struct{}

func (locatorOnly) Locate(context.Context, string, OpenFlags, Env) (Result, error) {
	return Result{}, nil
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecision(Local("/p"), time.Millisecond)
		m.ObserveSpace(nil)
	})
}
