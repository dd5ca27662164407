// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the kb-sync CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kb-sync/internal/logging"
	"github.com/pdiddy/kb-sync/internal/secrets"
	"github.com/pdiddy/kb-sync/internal/source"
	"github.com/pdiddy/kb-sync/internal/tracking"
	"github.com/pdiddy/kb-sync/internal/vectorstore"
	"github.com/pdiddy/kb-sync/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "kb-sync/0.1"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is built from the log.* settings before any subcommand runs.
var (
	logger    = slog.New(slog.NewTextHandler(io.Discard, nil))
	logCloser io.Closer
)

// rootCmd is the base command for the kb-sync CLI.
var rootCmd = &cobra.Command{
	Use:   "kb-sync",
	Short: "Keep an OpenAI vector store in sync with Freshdesk articles and local files",
	Long: `kb-sync uploads help-center articles from a Freshdesk solution category and
files dropped into local directories to an OpenAI vector store. A local SQLite
database tracks which remote file currently represents each item, so every
run replaces the previous upload instead of duplicating it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var logCfg types.LogConfig
		if err := viper.UnmarshalKey("log", &logCfg); err != nil {
			return fmt.Errorf("reading log config: %w", err)
		}
		l, closer, err := logging.New(logCfg, os.Stderr)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logger, logCloser = l, closer

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Info("secrets loaded", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(viper.GetViper())

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./kb-sync.yaml or ~/.config/kb-sync/config.yaml)")
	pf.String("db", "", "tracking database path (default attachments.db)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "write logs to a rotating file instead of stderr")
	pf.String("secrets-dir", "", "directory of secret files (default .secrets/)")

	viper.BindPFlag("tracking.db_path", pf.Lookup("db"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.file", pf.Lookup("log-file"))
	viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
}

// setDefaults registers every configuration key so environment variables
// reach viper.Unmarshal even when no config file sets them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("secrets_dir", ".secrets/")

	v.SetDefault("freshdesk.domain", "")
	v.SetDefault("freshdesk.api_key", "")
	v.SetDefault("freshdesk.category", source.DefaultCategory)
	v.SetDefault("freshdesk.folders", source.DefaultFolders)
	v.SetDefault("freshdesk.filter_date", source.DefaultFilterDate)
	v.SetDefault("freshdesk.per_page", source.DefaultPerPage)
	v.SetDefault("freshdesk.rate_limit", 2.0)
	v.SetDefault("freshdesk.docs_dir", source.DefaultDocsDir)
	v.SetDefault("freshdesk.timeout", "60s")
	v.SetDefault("freshdesk.user_agent", defaultUserAgent)

	v.SetDefault("openai.base_url", vectorstore.DefaultBaseURL)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.vector_store_id", "")
	v.SetDefault("openai.max_retries", 5)
	v.SetDefault("openai.timeout", "60s")
	v.SetDefault("openai.user_agent", defaultUserAgent)

	v.SetDefault("tracking.db_path", tracking.DefaultDBPath)

	v.SetDefault("policy.always_replace", true)
	v.SetDefault("policy.trust_local_state_on_attach_failure", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kb-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "kb-sync"))
		}
	}

	viper.SetEnvPrefix("KB_SYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the full configuration from v and fills API keys
// from the secrets directory when config and environment leave them empty.
func loadConfig(v *viper.Viper) (types.SyncConfig, error) {
	var cfg types.SyncConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	cfg.Freshdesk.APIKey = secrets.Resolve(loadedSecrets, secrets.FreshdeskAPIKey, cfg.Freshdesk.APIKey)
	cfg.OpenAI.APIKey = secrets.Resolve(loadedSecrets, secrets.OpenAIAPIKey, cfg.OpenAI.APIKey)
	return cfg, nil
}

// closeLog flushes and closes the log file, if one was opened. Cobra skips
// post-run hooks when a command fails, so main calls this after every run.
func closeLog() {
	if logCloser == nil {
		return
	}
	if err := logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
	logCloser = nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}
