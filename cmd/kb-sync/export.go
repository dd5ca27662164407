// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-sync/internal/tracking"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the tracking database to YAML or JSON",
	Long: `Export writes every tracked record (or those matching --prefix) to stdout,
or to --output when given.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	prefix, _ := cmd.Flags().GetString("prefix")
	output, _ := cmd.Flags().GetString("output")

	if format != "yaml" && format != "json" && format != "" {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	store, err := tracking.Open(viper.GetString("tracking.db_path"))
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = store.ExportYAML(cmd.Context(), prefix, w)
	case "json":
		err = store.ExportJSON(cmd.Context(), prefix, w)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("prefix", "", "only export keys starting with this prefix")
	exportCmd.Flags().String("output", "", "write to this file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}
