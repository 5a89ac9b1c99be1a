package redirect

import (
	"net"
	"strconv"
)

// ResponseStatus is the kind of answer returned to a locating client.
type ResponseStatus string

const (
	// ResponseRedirect points the client at another server.
	ResponseRedirect ResponseStatus = "redirect"
	// ResponseRedirectLocal tells the client to open Path directly.
	ResponseRedirectLocal ResponseStatus = "redirect_local"
	// ResponseError carries the locator's failure.
	ResponseError ResponseStatus = "error"
)

// LocalPort marks a local redirect in the Port field.
const LocalPort = -1

// Response is the caller-facing answer to a locate request.
type Response struct {
	Status     ResponseStatus `json:"status"`
	Host       string         `json:"host,omitempty"`
	Port       int            `json:"port"`
	Capability uint32         `json:"capability,omitempty"`
	Path       string         `json:"path,omitempty"`
	Err        string         `json:"error,omitempty"`
}

// ResponseFromResult encodes a locator result without altering it.
func ResponseFromResult(res Result) Response {
	if res.Status != LocateOK {
		return Response{Status: ResponseError, Capability: res.Capability, Err: res.Err}
	}
	resp := Response{Status: ResponseRedirect, Host: res.Target, Capability: res.Capability}
	if host, port, err := net.SplitHostPort(res.Target); err == nil {
		resp.Host = host
		if p, err := strconv.Atoi(port); err == nil {
			resp.Port = p
		}
	}
	return resp
}

// ResponseFromDecision builds the response for d.
func ResponseFromDecision(d Decision) Response {
	if path, ok := d.Path(); ok {
		return Response{Status: ResponseRedirectLocal, Port: LocalPort, Path: path}
	}
	res, _ := d.Result()
	return ResponseFromResult(res)
}
