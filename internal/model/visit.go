package model

import "time"

// Visit is the state of one target while it moves through the collection
// pipeline. Each step reads what earlier steps recorded and adds its own part.
type Visit struct {
	// Target is the normalized URL being visited.
	Target string

	// WaitTime is the settle interval after the initial navigation.
	WaitTime time.Duration

	// StartedAt is when the visit began.
	StartedAt time.Time

	// Navigated is set once the browser accepted the navigation.
	Navigated bool

	// ConsentDismissed is set when a consent banner was found and clicked.
	ConsentDismissed bool

	// Cookies holds the cookie set read from the session.
	Cookies []Cookie

	// PerformedSteps lists completed pipeline steps in order.
	PerformedSteps []string
}

// NewVisit creates a Visit for the given target.
func NewVisit(target string, waitTime time.Duration) *Visit {
	return &Visit{
		Target:    target,
		WaitTime:  waitTime,
		StartedAt: time.Now(),
	}
}
