package model

import (
	"time"
)

// RunState is the lifecycle state of one acquisition run.
type RunState int

const (
	// RunStateIdle is the state before Run is called.
	RunStateIdle RunState = iota
	// RunStateInitializing means the browser session is being created.
	RunStateInitializing
	// RunStateReady means the session is up and no target has started yet.
	RunStateReady
	// RunStateCollecting means targets are being processed.
	RunStateCollecting
	// RunStateCompleted is terminal: every target has an outcome.
	RunStateCompleted
	// RunStateInitFailed is terminal: the session could not be created.
	RunStateInitFailed
)

// String returns the state name.
func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateInitializing:
		return "initializing"
	case RunStateReady:
		return "ready"
	case RunStateCollecting:
		return "collecting"
	case RunStateCompleted:
		return "completed"
	case RunStateInitFailed:
		return "init_failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s RunState) IsTerminal() bool {
	return s == RunStateCompleted || s == RunStateInitFailed
}

// MarshalText encodes the state by name.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TargetResult is the outcome for one target of a run.
type TargetResult struct {
	// URL is the normalized target, or the trimmed input when it could not
	// be normalized.
	URL string `json:"url"`

	// Success is true when the cookie set was read from the session.
	// It does not reflect whether the cookies were persisted.
	Success bool `json:"success"`

	// Cookies is the collected cookie set. Empty on failure.
	Cookies []Cookie `json:"cookies"`

	// Count is len(Cookies).
	Count int `json:"count"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`

	// Persisted reports whether the cookies were written to the store.
	Persisted bool `json:"persisted"`

	// ConsentDismissed is true when a consent banner was clicked.
	ConsentDismissed bool `json:"consent_dismissed"`

	// ThirdParty counts cookies set by another registrable domain.
	ThirdParty int `json:"third_party"`

	// Duration is how long the target took.
	Duration time.Duration `json:"duration"`
}

// NewSuccessResult builds a successful TargetResult from a cookie set.
func NewSuccessResult(target string, cookies []Cookie) *TargetResult {
	if cookies == nil {
		cookies = []Cookie{}
	}
	third := 0
	for _, c := range cookies {
		if c.IsThirdParty(target) {
			third++
		}
	}
	return &TargetResult{
		URL:        target,
		Success:    true,
		Cookies:    cookies,
		Count:      len(cookies),
		ThirdParty: third,
	}
}

// NewFailureResult builds a failed TargetResult.
func NewFailureResult(target string, err error) *TargetResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &TargetResult{
		URL:     target,
		Success: false,
		Cookies: []Cookie{},
		Count:   0,
		Error:   msg,
	}
}

// Warning records a non-fatal problem tied to a target, such as a failed
// save that did not change the target's collection outcome.
type Warning struct {
	// Target is the URL the warning belongs to.
	Target string `json:"target"`

	// Message describes the problem.
	Message string `json:"message"`
}

// RunResult is the aggregate outcome of one acquisition run.
// Every input target appears in Results with an explicit outcome.
type RunResult struct {
	// RunID uniquely identifies the run in logs and reports.
	RunID string `json:"run_id"`

	// Browser is the browser kind used for the run.
	Browser string `json:"browser,omitempty"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// State is the final state of the run.
	State RunState `json:"state"`

	// Targets lists result keys in input order, without duplicates.
	Targets []string `json:"targets"`

	// Results maps each target key to its outcome.
	Results map[string]*TargetResult `json:"results"`

	// Warnings collects non-fatal problems, in the order they occurred.
	Warnings []Warning `json:"warnings,omitempty"`

	// Error is set when the run as a whole failed (e.g. session setup).
	Error string `json:"error,omitempty"`
}

// NewRunResult creates an empty RunResult.
func NewRunResult(runID string) *RunResult {
	return &RunResult{
		RunID:     runID,
		StartedAt: time.Now(),
		State:     RunStateIdle,
		Targets:   make([]string, 0),
		Results:   make(map[string]*TargetResult),
	}
}

// Record stores the outcome for a target. A repeated target keeps its first
// position in Targets and takes the latest outcome.
func (r *RunResult) Record(result *TargetResult) {
	if _, exists := r.Results[result.URL]; !exists {
		r.Targets = append(r.Targets, result.URL)
	}
	r.Results[result.URL] = result
}

// Warn appends a warning.
func (r *RunResult) Warn(target, message string) {
	r.Warnings = append(r.Warnings, Warning{Target: target, Message: message})
}

// Ordered returns the target results in input order.
func (r *RunResult) Ordered() []*TargetResult {
	out := make([]*TargetResult, 0, len(r.Targets))
	for _, t := range r.Targets {
		out = append(out, r.Results[t])
	}
	return out
}

// SuccessCount returns the number of successful targets.
func (r *RunResult) SuccessCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// FailureCount returns the number of failed targets.
func (r *RunResult) FailureCount() int {
	return len(r.Results) - r.SuccessCount()
}

// TotalCookies returns the number of cookies collected across all targets.
func (r *RunResult) TotalCookies() int {
	n := 0
	for _, res := range r.Results {
		n += res.Count
	}
	return n
}

// Duration returns the wall time of the run.
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
