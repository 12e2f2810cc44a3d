package routine

// Result is the machine-inspectable outcome of a routine.
type Result struct {
	// Outcome is the lifecycle state after the last operation.
	Outcome State `json:"outcome"`

	// Reason is the human-readable message reported with the outcome.
	Reason string `json:"reason,omitempty"`

	// Cause classifies the outcome for errors.Is checks. It is set for
	// failures and for successes reached through degenerate geometry.
	Cause error `json:"-"`
}

// IsTerminal reports whether the result ends the routine.
func (r Result) IsTerminal() bool {
	return r.Outcome.IsTerminal()
}

// Error returns the cause message, or "" when there is none.
func (r Result) Error() string {
	if r.Cause == nil {
		return ""
	}
	return r.Cause.Error()
}
