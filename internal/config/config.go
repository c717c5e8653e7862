package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Backends a list store can run on.
const (
	BackendFile      = "file"
	BackendSQL       = "sql"
	BackendPathstore = "pathstore"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	Backend      string
	DataDir      string
	Format       string
	DefaultLabel string

	// Relational backend
	DatabaseDriver string
	DatabaseURL    string

	// Pathstore backend
	PathstoreURL    string
	PathstoreAPIKey string
	PathstorePrefix string

	// Rolling window for store latency stats
	StatsWindow time.Duration

	// Import workers
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Upload limits
	MaxUploadBytes int64

	// PDF
	PDFFallbackPdftotext bool
}

// envKeys maps config keys to the environment variables that set them.
var envKeys = map[string]string{
	"port":                   "PORT",
	"api_key":                "TODO_API_KEY",
	"backend":                "TODO_BACKEND",
	"data_dir":               "TODO_DATA_DIR",
	"format":                 "TODO_FORMAT",
	"default_label":          "TODO_DEFAULT_LABEL",
	"database_driver":        "DATABASE_DRIVER",
	"database_url":           "DATABASE_URL",
	"pathstore_url":          "PATHSTORE_URL",
	"pathstore_api_key":      "PATHSTORE_API_KEY",
	"pathstore_prefix":       "PATHSTORE_PREFIX",
	"stats_window":           "STATS_WINDOW",
	"worker_count":           "WORKER_COUNT",
	"max_queue_size":         "MAX_QUEUE_SIZE",
	"job_ttl":                "JOB_TTL",
	"max_upload_bytes":       "MAX_UPLOAD_BYTES",
	"pdf_fallback_pdftotext": "PDF_FALLBACK_PDFTOTEXT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8090")
	v.SetDefault("backend", BackendFile)
	v.SetDefault("data_dir", os.TempDir())
	v.SetDefault("format", "json")
	v.SetDefault("default_label", "ToDo List")
	v.SetDefault("database_driver", "pgx")
	v.SetDefault("pathstore_url", "http://localhost:8080")
	v.SetDefault("pathstore_prefix", "todo/lists")
	v.SetDefault("stats_window", time.Hour)
	v.SetDefault("worker_count", 2)
	v.SetDefault("max_queue_size", 100)
	v.SetDefault("job_ttl", time.Hour)
	v.SetDefault("max_upload_bytes", 10<<20) // 10MB
	v.SetDefault("pdf_fallback_pdftotext", true)
}

// Load reads configuration from defaults, an optional config file (YAML,
// TOML or JSON by extension) and the environment, in increasing priority.
// A .env file in the working directory is applied to the environment first
// without overriding variables that are already set.
func Load(path string) (Config, error) {
	if err := gotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	dataDir, err := homedir.Expand(v.GetString("data_dir"))
	if err != nil {
		return Config{}, fmt.Errorf("expand data_dir: %w", err)
	}

	cfg := Config{
		Port: v.GetString("port"),

		APIKey: v.GetString("api_key"),

		Backend:      strings.ToLower(v.GetString("backend")),
		DataDir:      dataDir,
		Format:       v.GetString("format"),
		DefaultLabel: v.GetString("default_label"),

		DatabaseDriver: v.GetString("database_driver"),
		DatabaseURL:    v.GetString("database_url"),

		PathstoreURL:    v.GetString("pathstore_url"),
		PathstoreAPIKey: v.GetString("pathstore_api_key"),
		PathstorePrefix: strings.Trim(v.GetString("pathstore_prefix"), "/"),

		StatsWindow: v.GetDuration("stats_window"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),
		JobTTL:       v.GetDuration("job_ttl"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.DefaultLabel == "" {
		cfg.DefaultLabel = "ToDo List"
	}

	return cfg, nil
}

// Validate checks the storage settings every entry point needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("TODO_DATA_DIR is required for the file backend")
		}
	case BackendSQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the sql backend")
		}
		if c.DatabaseDriver != "pgx" && c.DatabaseDriver != "sqlite" {
			return fmt.Errorf("DATABASE_DRIVER must be pgx or sqlite, got %q", c.DatabaseDriver)
		}
	case BackendPathstore:
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	default:
		return fmt.Errorf("TODO_BACKEND must be one of file, sql, pathstore; got %q", c.Backend)
	}
	return nil
}

// ValidateServer additionally checks what the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("TODO_API_KEY is required")
	}
	return nil
}
