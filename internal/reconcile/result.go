// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

// outcome classifies how a single item ended.
type outcome int

const (
	outcomeFailed outcome = iota
	outcomeCreated
	outcomeUpdated
	outcomeSkipped
)

func (o outcome) String() string {
	switch o {
	case outcomeCreated:
		return "created"
	case outcomeUpdated:
		return "updated"
	case outcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// itemResult is the explicit result of processing one item.
//
// failures are recorded in the report without stopping the run. An attach
// failure under the trusting policy yields outcomeCreated or outcomeUpdated
// together with a failure. fatal is set only for tracking store errors.
type itemResult struct {
	outcome  outcome
	failures []error
	fatal    error
}
