// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source turns content origins into lazy sequences of content items
// for the reconciliation engine.
//
// Items returns an error only during setup (a missing category, folder, or
// directory, or a failed discovery request). Once the sequence is returned
// it never fails: transport problems end it early with the items produced
// so far.
package source

import (
	"context"
	"iter"

	"github.com/pdiddy/kb-sync/pkg/types"
)

// Source produces content items for one sync run.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Items performs setup and returns the item sequence.
	Items(ctx context.Context) (iter.Seq[types.ContentItem], error)
}
