// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-sync/internal/logging"
	"github.com/pdiddy/kb-sync/internal/reconcile"
	"github.com/pdiddy/kb-sync/internal/source"
	"github.com/pdiddy/kb-sync/internal/tracking"
	"github.com/pdiddy/kb-sync/internal/vectorstore"
	"github.com/pdiddy/kb-sync/pkg/types"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload content to the vector store and record the remote file ids",
	Long: `Sync reads items from one source and makes the vector store hold exactly one
file per item. Items already tracked are deleted remotely and uploaded again;
new items are uploaded and attached. Per-item failures are reported in the
summary and do not stop the run.`,
}

// --- articles subcommand ---

var syncArticlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Sync Freshdesk solution articles",
	Long: `Articles lists the configured folders of the Freshdesk solution category,
writes each article to the docs directory as Markdown, and uploads it. Article
keys are the Freshdesk article ids.`,
	RunE: runSyncArticles,
}

func runSyncArticles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	src, err := source.NewFreshdesk(cfg.Freshdesk, logger)
	if err != nil {
		return err
	}
	return runSync(cmd.Context(), cmd.OutOrStdout(), cfg, src)
}

// --- dir subcommand ---

var syncDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Sync the files of a local drop directory",
	Long: `Dir uploads every regular file in --dir (not recursive). Keys are the file
names with --prefix prepended, so kb_files/ and manuals/ can share one tracking
database. Use --vector-store to target a different store than openai.vector_store_id.`,
	RunE: runSyncDir,
}

func runSyncDir(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	prefix, _ := cmd.Flags().GetString("prefix")
	vectorStore, _ := cmd.Flags().GetString("vector-store")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if vectorStore != "" {
		cfg.OpenAI.VectorStoreID = vectorStore
	}
	src := source.NewDirectory(types.DirectoryConfig{Dir: dir, KeyPrefix: prefix}, logger)
	return runSync(cmd.Context(), cmd.OutOrStdout(), cfg, src)
}

// --- shared ---

// runSync wires one source to the engine for a single run. Store and client
// live until the run returns.
func runSync(ctx context.Context, w io.Writer, cfg types.SyncConfig, src source.Source) error {
	log := logging.WithRun(logger, "sync "+src.Name())

	index, err := vectorstore.New(cfg.OpenAI)
	if err != nil {
		return err
	}
	store, err := tracking.Open(cfg.Tracking.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := src.Items(ctx)
	if err != nil {
		log.Error("setup failed", "source", src.Name(), "reason", err.Error())
		return err
	}

	log.Info("sync started", "source", src.Name(), "vector_store_id", index.VectorStoreID(),
		"always_replace", cfg.Policy.AlwaysReplace,
		"trust_local_state_on_attach_failure", cfg.Policy.TrustLocalStateOnAttachFailure)

	engine := reconcile.New(store, index, log,
		reconcile.WithAlwaysReplace(cfg.Policy.AlwaysReplace),
		reconcile.WithTrustLocalStateOnAttachFailure(cfg.Policy.TrustLocalStateOnAttachFailure),
	)
	report, syncErr := engine.Sync(ctx, items)

	// The summary is written even when the run was interrupted.
	total, countErr := store.Count(context.WithoutCancel(ctx))
	if countErr != nil {
		total = -1
	}
	writeSummary(w, report, total)
	log.Info("sync finished", "summary", report.Summary())

	return syncErr
}

// writeSummary prints the run totals, any failures, and the number of
// records in the tracking store (omitted when negative).
func writeSummary(w io.Writer, report types.SyncReport, total int) {
	for _, f := range report.Failed {
		fmt.Fprintf(w, "failed:  %s (%s)\n", f.Key, f.Reason)
	}
	fmt.Fprintf(w, "\nSync summary: %s\n", report.Summary())
	if total >= 0 {
		fmt.Fprintf(w, "Tracked records: %d\n", total)
	}
}

func init() {
	syncCmd.PersistentFlags().Bool("always-replace", true, "replace every tracked item; false skips items not updated since the last sync")
	syncCmd.PersistentFlags().Bool("trust-attach-failure", true, "record a new file id even when attaching it to the vector store failed")
	viper.BindPFlag("policy.always_replace", syncCmd.PersistentFlags().Lookup("always-replace"))
	viper.BindPFlag("policy.trust_local_state_on_attach_failure", syncCmd.PersistentFlags().Lookup("trust-attach-failure"))

	syncDirCmd.Flags().String("dir", "kb_files", "directory to upload")
	syncDirCmd.Flags().String("prefix", "kb", "key prefix for files in the directory")
	syncDirCmd.Flags().String("vector-store", "", "vector store id (default openai.vector_store_id)")

	syncCmd.AddCommand(syncArticlesCmd)
	syncCmd.AddCommand(syncDirCmd)

	rootCmd.AddCommand(syncCmd)
}

var (
	_ source.Source   = (*source.Freshdesk)(nil)
	_ source.Source   = (*source.Directory)(nil)
	_ reconcile.Index = (*vectorstore.Client)(nil)
	_ reconcile.Store = (*tracking.Store)(nil)
)
