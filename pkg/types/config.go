package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "kb-sync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FreshdeskConfig holds settings for the Freshdesk article source.
type FreshdeskConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Domain is the helpdesk host, e.g. "example.freshdesk.com".
	Domain string `json:"domain" yaml:"domain" mapstructure:"domain"`

	// APIKey authenticates as the basic-auth user (password "X").
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// Category is the solution category name to sync (default "Frequently Asked Questions").
	Category string `json:"category" yaml:"category" mapstructure:"category"`

	// Folders lists the folder names within Category to sync.
	Folders []string `json:"folders" yaml:"folders" mapstructure:"folders"`

	// FilterDate skips articles last updated before it, in TimestampLayout.
	FilterDate string `json:"filter_date" yaml:"filter_date" mapstructure:"filter_date"`

	// PerPage is the page size for article listing (default 100).
	PerPage int `json:"per_page" yaml:"per_page" mapstructure:"per_page"`

	// RateLimit caps requests per second against the Freshdesk API (default 2).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// DocsDir is where article bodies are written as Markdown before upload.
	DocsDir string `json:"docs_dir" yaml:"docs_dir" mapstructure:"docs_dir"`
}

// DirectoryConfig holds settings for a local file-drop source.
type DirectoryConfig struct {
	// Dir is the flat directory to enumerate.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// KeyPrefix is prepended to file names to form item keys ("kb" -> "kb_<name>").
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
}

// VectorStoreConfig holds settings for the remote index client.
type VectorStoreConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the API root (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the bearer token.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// VectorStoreID is the index that created files are attached to.
	VectorStoreID string `json:"vector_store_id" yaml:"vector_store_id" mapstructure:"vector_store_id"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// PolicyConfig exposes the reconciliation policies.
type PolicyConfig struct {
	// AlwaysReplace deletes and recreates every item that already has a
	// remote file. When false, items not updated since the last sync are skipped.
	AlwaysReplace bool `json:"always_replace" yaml:"always_replace" mapstructure:"always_replace"`

	// TrustLocalStateOnAttachFailure records the new remote file id even
	// when attaching it to the vector store failed.
	TrustLocalStateOnAttachFailure bool `json:"trust_local_state_on_attach_failure" yaml:"trust_local_state_on_attach_failure" mapstructure:"trust_local_state_on_attach_failure"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// File, when set, sends logs to a rotating file instead of stderr.
	File string `json:"file" yaml:"file" mapstructure:"file"`

	MaxSizeMB  int `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days" mapstructure:"max_age_days"`
}

// TrackingConfig locates the tracking store.
type TrackingConfig struct {
	// DBPath is the SQLite database file (default "attachments.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// SyncConfig groups all settings for a kb-sync invocation.
type SyncConfig struct {
	Freshdesk FreshdeskConfig   `json:"freshdesk" yaml:"freshdesk" mapstructure:"freshdesk"`
	OpenAI    VectorStoreConfig `json:"openai" yaml:"openai" mapstructure:"openai"`
	Tracking  TrackingConfig    `json:"tracking" yaml:"tracking" mapstructure:"tracking"`
	Policy    PolicyConfig      `json:"policy" yaml:"policy" mapstructure:"policy"`
	Log       LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
}
