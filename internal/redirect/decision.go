package redirect

// Reason names the gate that settled a decision.
type Reason string

const (
	ReasonLocatorFailed   Reason = "locator_failed"
	ReasonTargetPublic    Reason = "target_public"
	ReasonClientPublic    Reason = "client_public"
	ReasonOldClient       Reason = "old_client"
	ReasonFlagsRejected   Reason = "flags_rejected"
	ReasonPolicy          Reason = "policy"
	ReasonTranslateFailed Reason = "translate_failed"
	ReasonLocal           Reason = "local"
)

// Decision is either a remote redirect carrying the locator's result, or a
// local redirect carrying a physical path. The zero Decision is a remote
// redirect with an empty result; use Remote and Local to build one.
type Decision struct {
	local  bool
	result Result
	path   string
	reason Reason
}

// Remote returns a decision that hands res back to the client unchanged.
func Remote(res Result, reason Reason) Decision {
	return Decision{result: res, reason: reason}
}

// Local returns a decision that redirects the client to physicalPath.
func Local(physicalPath string) Decision {
	return Decision{local: true, path: physicalPath, reason: ReasonLocal}
}

// IsLocal reports whether d is a local redirect.
func (d Decision) IsLocal() bool { return d.local }

// Result returns the locator result of a remote redirect.
func (d Decision) Result() (Result, bool) { return d.result, !d.local }

// Path returns the physical path of a local redirect.
func (d Decision) Path() (string, bool) { return d.path, d.local }

// Reason returns the gate that produced d.
func (d Decision) Reason() Reason { return d.reason }

// Outcome is "local" or "remote", used as a metric label.
func (d Decision) Outcome() string {
	if d.local {
		return "local"
	}
	return "remote"
}
