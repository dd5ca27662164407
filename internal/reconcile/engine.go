// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile keeps a remote vector store in step with content items
// and records the outcome in the tracking store.
//
// Items are processed one at a time in source order. An item with no remote
// file is created and attached; an item that already has one is detached and
// deleted (best effort) and then recreated. Per-item failures are recorded in
// the report and never stop the run. Only tracking store failures do.
package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/pdiddy/kb-sync/pkg/types"
)

// Store is the tracking store as seen by the engine.
type Store interface {
	Get(ctx context.Context, key string) (types.TrackedRecord, bool, error)
	Upsert(ctx context.Context, rec types.TrackedRecord) error
}

// Index is the remote index client as seen by the engine.
type Index interface {
	CreateFile(ctx context.Context, name string, r io.Reader) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
	Attach(ctx context.Context, fileID string) error
	Detach(ctx context.Context, fileID string) error
}

// Engine reconciles content items against the tracking store and remote index.
type Engine struct {
	store  Store
	index  Index
	logger *slog.Logger

	alwaysReplace      bool
	trustAttachFailure bool
	now                func() time.Time
	progressEvery      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithAlwaysReplace selects the replace policy. The default (true) deletes
// and recreates every item that already has a remote file. False enables
// change detection: an item whose source timestamp is not newer than the
// record's last sync is skipped.
func WithAlwaysReplace(v bool) Option {
	return func(e *Engine) { e.alwaysReplace = v }
}

// WithTrustLocalStateOnAttachFailure selects what happens when a new file
// cannot be attached to the vector store. The default (true) records the new
// file id anyway. False removes the unattached file and leaves the record
// without a remote file so the next run creates it again.
func WithTrustLocalStateOnAttachFailure(v bool) Option {
	return func(e *Engine) { e.trustAttachFailure = v }
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithProgressEvery logs a progress line after every n processed items.
// Zero disables progress lines.
func WithProgressEvery(n int) Option {
	return func(e *Engine) { e.progressEvery = n }
}

// New returns an Engine using store and index for the duration of a run.
func New(store Store, index Index, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		store:              store,
		index:              index,
		logger:             logger,
		alwaysReplace:      true,
		trustAttachFailure: true,
		now:                time.Now,
		progressEvery:      10,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync processes every item from items exactly once and returns the report.
// The returned error is non-nil only when the tracking store fails or ctx is
// cancelled; the report then covers the items processed so far.
//
// Cancellation is observed between items only. Once an item has started,
// its remote calls and the upsert run to completion.
func (e *Engine) Sync(ctx context.Context, items iter.Seq[types.ContentItem]) (types.SyncReport, error) {
	var report types.SyncReport

	for item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Processed++
		res := e.processItem(ctx, item)
		e.logger.Debug("item processed", "key", item.Key, "outcome", res.outcome.String())

		switch res.outcome {
		case outcomeCreated:
			report.Created = append(report.Created, item.Key)
		case outcomeUpdated:
			report.Updated = append(report.Updated, item.Key)
		case outcomeSkipped:
			report.Skipped = append(report.Skipped, item.Key)
		}
		for _, err := range res.failures {
			e.logger.Error("item failed", "key", item.Key, "reason", err.Error())
			report.Failed = append(report.Failed, types.ItemFailure{Key: item.Key, Reason: err.Error()})
		}
		if res.fatal != nil {
			return report, res.fatal
		}

		if e.progressEvery > 0 && report.Processed%e.progressEvery == 0 {
			e.logger.Info("progress", "processed", report.Processed,
				"created", len(report.Created), "updated", len(report.Updated), "failed", len(report.Failed))
		}
	}

	// A source may end its sequence early when ctx is cancelled.
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// processItem runs the per-item sequence: look up, replace or create,
// attach, upsert. It never returns early without a populated itemResult.
func (e *Engine) processItem(ctx context.Context, item types.ContentItem) itemResult {
	ctx = context.WithoutCancel(ctx)

	rec, exists, err := e.store.Get(ctx, item.Key)
	if err != nil {
		return fatalResult(asPersistence("reading "+item.Key, err))
	}

	replacing := exists && rec.HasRemoteFile()
	if replacing {
		if !e.alwaysReplace && unchangedSince(item, rec) {
			e.logger.Debug("unchanged, skipping", "key", item.Key, "remote_file_id", rec.RemoteFileID)
			return itemResult{outcome: outcomeSkipped}
		}
		e.removeRemote(ctx, item.Key, rec.RemoteFileID)
	}

	fileID, err := e.createFile(ctx, item)
	if err != nil {
		return itemResult{outcome: outcomeFailed, failures: []error{err}}
	}
	e.logger.Info("uploaded", "key", item.Key, "remote_file_id", fileID)

	var res itemResult
	if err := e.index.Attach(ctx, fileID); err != nil {
		res.failures = append(res.failures, fmt.Errorf("attaching %s: %w", fileID, err))
		if !e.trustAttachFailure {
			return e.discardUnattached(ctx, item, rec, exists, fileID, res)
		}
	} else {
		e.logger.Debug("attached", "key", item.Key, "remote_file_id", fileID)
	}

	next := types.TrackedRecord{
		Key:          item.Key,
		DisplayName:  item.DisplayName,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    e.now().UTC(),
		RemoteFileID: fileID,
	}
	if !exists {
		next.CreatedAt = item.SourceCreatedAt
		if next.CreatedAt.IsZero() {
			next.CreatedAt = next.UpdatedAt
		}
	}
	if err := e.store.Upsert(ctx, next); err != nil {
		fatal := asPersistence("upserting "+item.Key, err)
		res.failures = append(res.failures, fatal)
		res.fatal = fatal
		res.outcome = outcomeFailed
		return res
	}

	if exists {
		res.outcome = outcomeUpdated
	} else {
		res.outcome = outcomeCreated
	}
	return res
}

// removeRemote detaches and deletes the previous remote file. Both calls are
// best effort: failures are logged and the item continues to the create path.
func (e *Engine) removeRemote(ctx context.Context, key, fileID string) {
	if err := e.index.Detach(ctx, fileID); err != nil {
		e.logger.Warn("detach failed", "key", key, "remote_file_id", fileID, "reason", err.Error())
	}
	if err := e.index.DeleteFile(ctx, fileID); err != nil {
		e.logger.Warn("delete failed", "key", key, "remote_file_id", fileID, "reason", err.Error())
		return
	}
	e.logger.Debug("removed previous file", "key", key, "remote_file_id", fileID)
}

func (e *Engine) createFile(ctx context.Context, item types.ContentItem) (string, error) {
	var r io.Reader
	if item.Path != "" {
		f, err := os.Open(item.Path)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", item.Path, err)
		}
		defer f.Close()
		r = f
	} else {
		r = bytes.NewReader(item.Body)
	}

	fileID, err := e.index.CreateFile(ctx, item.UploadName(), r)
	if err != nil {
		return "", fmt.Errorf("uploading: %w", err)
	}
	if fileID == "" {
		return "", errors.New("uploading: remote index returned an empty file id")
	}
	return fileID, nil
}

// discardUnattached handles an attach failure when local state must not be
// trusted. The new file is deleted best effort. A prior record loses its
// remote file id, since that file was already removed in the replace step.
func (e *Engine) discardUnattached(ctx context.Context, item types.ContentItem, rec types.TrackedRecord, exists bool, fileID string, res itemResult) itemResult {
	if err := e.index.DeleteFile(ctx, fileID); err != nil {
		e.logger.Warn("delete of unattached file failed", "key", item.Key, "remote_file_id", fileID, "reason", err.Error())
	}
	res.outcome = outcomeFailed
	if !exists || !rec.HasRemoteFile() {
		return res
	}

	rec.RemoteFileID = ""
	rec.UpdatedAt = e.now().UTC()
	if err := e.store.Upsert(ctx, rec); err != nil {
		res.fatal = asPersistence("upserting "+item.Key, err)
		res.failures = append(res.failures, res.fatal)
	}
	return res
}

// unchangedSince reports whether item carries a source timestamp that is not
// newer than the record's last sync.
func unchangedSince(item types.ContentItem, rec types.TrackedRecord) bool {
	if item.SourceUpdatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		return false
	}
	return !item.SourceUpdatedAt.After(rec.UpdatedAt)
}

// fatalResult reports a tracking store failure. The item is also listed as
// failed so the report totals account for it.
func fatalResult(err error) itemResult {
	return itemResult{outcome: outcomeFailed, failures: []error{err}, fatal: err}
}

func asPersistence(op string, err error) error {
	var pe *types.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &types.PersistenceError{Op: op, Err: err}
}
