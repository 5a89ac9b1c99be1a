// Package locator is the redirector's client for the coordinator's locate
// and space endpoints.
package locator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dreamware/redirlocal/internal/cluster"
	"github.com/dreamware/redirlocal/internal/redirect"
)

// ErrUnavailable wraps transport failures talking to the coordinator.
var ErrUnavailable = errors.New("locator: coordinator unavailable")

// Client asks a coordinator where files live. It satisfies both
// redirect.Locator and redirect.SpaceLocator.
type Client struct {
	base string
	get  func(ctx context.Context, url string, out any) error
}

// NewClient returns a Client for the coordinator at base, e.g.
// "http://10.0.0.1:8080".
func NewClient(base string) *Client {
	return &Client{base: strings.TrimRight(base, "/"), get: cluster.GetJSON}
}

// Locate asks the coordinator for path. Transport failures are returned as
// errors; a coordinator-side failure comes back as a Result with
// LocateError status and no error.
func (c *Client) Locate(ctx context.Context, path string, flags redirect.OpenFlags, env redirect.Env) (redirect.Result, error) {
	q := url.Values{}
	q.Set("path", path)
	q.Set("flags", strconv.FormatUint(uint64(flags), 10))
	q.Set("cap", strconv.FormatUint(uint64(env.Capability), 10))

	var resp cluster.LocateResponse
	if err := c.get(ctx, c.base+"/locate?"+q.Encode(), &resp); err != nil {
		return redirect.Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return toResult(resp), nil
}

// Space asks the coordinator for the cluster's space totals.
func (c *Client) Space(ctx context.Context, path string) (redirect.SpaceInfo, error) {
	q := url.Values{}
	q.Set("path", path)

	var resp cluster.SpaceResponse
	if err := c.get(ctx, c.base+"/space?"+q.Encode(), &resp); err != nil {
		return redirect.SpaceInfo{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return redirect.SpaceInfo{TotalBytes: resp.TotalBytes, FreeBytes: resp.FreeBytes, Nodes: resp.Nodes}, nil
}

func toResult(resp cluster.LocateResponse) redirect.Result {
	res := redirect.Result{
		Target:     resp.Target,
		Capability: resp.Capability,
		Status:     redirect.LocateOK,
	}
	if resp.Status != "ok" {
		res.Status = redirect.LocateError
		res.Err = resp.Error
		if res.Err == "" {
			res.Err = "locate failed"
		}
	}
	return res
}
