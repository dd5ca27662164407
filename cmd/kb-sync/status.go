// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-sync/internal/tracking"
	"github.com/pdiddy/kb-sync/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List tracked items and their remote file ids",
	Long: `Status prints the records in the tracking database, optionally limited to
keys with a given prefix (for example kb_ or manual_). Records without a remote
file id have never been synced successfully.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	prefix, _ := cmd.Flags().GetString("prefix")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := tracking.Open(viper.GetString("tracking.db_path"))
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	return formatStatusOutput(cmd.OutOrStdout(), records, jsonOutput)
}

func formatStatusOutput(w io.Writer, records []types.TrackedRecord, jsonOutput bool) error {
	if jsonOutput {
		if records == nil {
			records = []types.TrackedRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No tracked items.")
		return nil
	}

	fmt.Fprintf(w, "%-24s  %-40s  %-20s  %s\n", "Key", "Title", "Updated", "Remote file")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for _, r := range records {
		title := truncateTitle(r.DisplayName, 40)
		updated := "-"
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.Format(types.TimestampLayout)
		}
		remote := r.RemoteFileID
		if remote == "" {
			remote = "(none)"
		}
		fmt.Fprintf(w, "%-24s  %-40s  %-20s  %s\n", r.Key, title, updated, remote)
	}

	fmt.Fprintf(w, "\n%d records\n", len(records))
	return nil
}

func init() {
	statusCmd.Flags().String("prefix", "", "only list keys starting with this prefix")
	statusCmd.Flags().Bool("json", false, "output records as JSON")

	rootCmd.AddCommand(statusCmd)
}

// truncateTitle shortens s to at most n runes, marking the cut with "...".
func truncateTitle(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
