// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ItemFailure records why a single item could not be fully synced.
type ItemFailure struct {
	Key    string `json:"key" yaml:"key"`
	Reason string `json:"reason" yaml:"reason"`
}

// SyncReport summarizes one reconciliation run. Key slices preserve the
// order in which items were processed.
type SyncReport struct {
	Processed int           `json:"processed" yaml:"processed"`
	Created   []string      `json:"created" yaml:"created"`
	Updated   []string      `json:"updated" yaml:"updated"`
	Skipped   []string      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Failed    []ItemFailure `json:"failed" yaml:"failed"`
}

// HasFailures reports whether any item failed.
func (r SyncReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// Summary renders the end-of-run totals line.
func (r SyncReport) Summary() string {
	s := fmt.Sprintf("processed: %d, created: %d, updated: %d, failed: %d",
		r.Processed, len(r.Created), len(r.Updated), len(r.Failed))
	if len(r.Skipped) > 0 {
		s += fmt.Sprintf(", skipped: %d", len(r.Skipped))
	}
	return s
}
