// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kb-sync/pkg/types"
)

// ExportEntry is a tracked record as written by ExportYAML and ExportJSON.
type ExportEntry struct {
	Key          string `json:"key" yaml:"key"`
	Title        string `json:"title" yaml:"title"`
	CreatedAt    string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	RemoteFileID string `json:"remote_file_id,omitempty" yaml:"remote_file_id,omitempty"`
}

// ExportYAML writes every record whose key starts with prefix to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, prefix string, w io.Writer) error {
	entries, err := s.exportEntries(ctx, prefix)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every record whose key starts with prefix to w as JSON.
func (s *Store) ExportJSON(ctx context.Context, prefix string, w io.Writer) error {
	entries, err := s.exportEntries(ctx, prefix)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportEntries(ctx context.Context, prefix string) ([]ExportEntry, error) {
	records, err := s.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(records))
	for i, r := range records {
		entries[i] = ExportEntry{
			Key:          r.Key,
			Title:        r.DisplayName,
			RemoteFileID: r.RemoteFileID,
		}
		if !r.CreatedAt.IsZero() {
			entries[i].CreatedAt = r.CreatedAt.Format(types.TimestampLayout)
		}
		if !r.UpdatedAt.IsZero() {
			entries[i].UpdatedAt = r.UpdatedAt.Format(types.TimestampLayout)
		}
	}
	return entries, nil
}
