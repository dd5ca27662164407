// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// TimestampLayout is the UTC timestamp format used by the Freshdesk API and
// by the tracking store's text columns.
const TimestampLayout = "2006-01-02T15:04:05Z"

// ContentItem is one unit of content produced by a source adapter during a
// sync run. It is never modified after the adapter yields it.
type ContentItem struct {
	// Key is the source-assigned identifier, unique within its source
	// (e.g. "153000123456" for an article, "kb_faq.pdf" for a dropped file).
	Key string `json:"key" yaml:"key"`

	// DisplayName is the human-readable title.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Body holds the payload when the item is not backed by a file.
	Body []byte `json:"-" yaml:"-"`

	// Path is the local file to upload. When set it takes precedence over Body.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// SourceUpdatedAt is the last-modified time reported by the source.
	// The zero value means the source did not report one.
	SourceUpdatedAt time.Time `json:"source_updated_at" yaml:"source_updated_at"`

	// SourceCreatedAt is the creation time reported by the source, or zero.
	SourceCreatedAt time.Time `json:"source_created_at" yaml:"source_created_at"`
}

// UploadName returns the file name sent to the remote index.
func (c ContentItem) UploadName() string {
	if c.Path != "" {
		return filepath.Base(c.Path)
	}
	return c.DisplayName
}

// TrackedRecord is the durable mapping from a content key to the remote
// file that currently represents it.
type TrackedRecord struct {
	Key         string    `json:"key" yaml:"key"`
	DisplayName string    `json:"title" yaml:"title"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`

	// RemoteFileID is empty when the item has never been synced (or its
	// remote file is known to be gone). Otherwise it names a file believed
	// to exist in the remote index.
	RemoteFileID string `json:"remote_file_id,omitempty" yaml:"remote_file_id,omitempty"`
}

// HasRemoteFile reports whether the record points at a remote file.
func (r TrackedRecord) HasRemoteFile() bool {
	return r.RemoteFileID != ""
}
