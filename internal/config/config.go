package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "sns-contents-tracker"

// Source kinds.
const (
	KindBlog      = "blog"
	KindMicroblog = "microblog"
)

// Store backends.
const (
	BackendNotion = "notion"
	BackendSQLite = "sqlite"
)

var (
	// ErrConfigMissing is fatal and reported before any network call.
	ErrConfigMissing = errors.New("missing required configuration")
	// ErrConfigInvalid covers malformed global settings.
	ErrConfigInvalid = errors.New("invalid configuration")
)

// envFile is the dotenv file read by Load, relative to the working directory.
var envFile = ".env"

// Source addresses one feed. Blogs use URL; microblog accounts use Handle
// and an ordered list of mirror instances.
type Source struct {
	Kind      string   `yaml:"kind"`
	Name      string   `yaml:"name,omitempty"`
	URL       string   `yaml:"url,omitempty"`
	Handle    string   `yaml:"handle,omitempty"`
	Instances []string `yaml:"instances,omitempty"`
	Disabled  bool     `yaml:"disabled,omitempty"`
}

type NotionConfig struct {
	APIKey            string  `yaml:"api_key,omitempty"`
	DatabaseID        string  `yaml:"database_id,omitempty"`
	BaseURL           string  `yaml:"base_url"`
	Version           string  `yaml:"version"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type StoreConfig struct {
	Backend    string       `yaml:"backend"`
	Notion     NotionConfig `yaml:"notion"`
	SQLitePath string       `yaml:"sqlite_path,omitempty"`
}

type Config struct {
	Limit            int         `yaml:"limit"`
	FetchConcurrency int         `yaml:"fetch_concurrency"`
	HTTPTimeout      string      `yaml:"http_timeout"`
	UserAgent        string      `yaml:"user_agent"`
	LogLevel         string      `yaml:"log_level"`
	LogFormat        string      `yaml:"log_format"`
	Store            StoreConfig `yaml:"store"`
	NitterInstances  []string    `yaml:"nitter_instances"`
	Sources          []Source    `yaml:"sources"`
}

func (c *Config) HTTPTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// EnabledSources returns the sources to run, in configured order. Microblog
// sources without their own instance list inherit NitterInstances.
func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Disabled {
			continue
		}
		if s.Kind == KindMicroblog && len(s.Instances) == 0 {
			s.Instances = append([]string(nil), c.NitterInstances...)
		}
		out = append(out, s)
	}
	return out
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// DataPath is the default location of the SQLite store backend.
func DataPath() string {
	return filepath.Join(xdg.DataHome, appName, "contents.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load builds the configuration from the embedded defaults, the YAML file at
// path (or the XDG default), a .env file and the process environment, in
// that order of precedence, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", envFile, err)
	}

	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration is the common case.
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(cfg, os.Getenv)

	if cfg.Store.Backend == BackendSQLite && cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = DataPath()
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("NOTION_API_KEY"); v != "" {
		cfg.Store.Notion.APIKey = v
	}
	if v := getenv("DATABASE_ID"); v != "" {
		cfg.Store.Notion.DatabaseID = v
	}
	if v := getenv("CONTENT_STORE"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := splitList(getenv("NITTER_INSTANCES")); len(v) > 0 {
		cfg.NitterInstances = v
	}
	for _, u := range splitList(getenv("BLOG_URLS")) {
		cfg.Sources = append(cfg.Sources, Source{Kind: KindBlog, URL: u})
	}
	for _, h := range splitList(getenv("TWITTER_USERNAMES")) {
		cfg.Sources = append(cfg.Sources, Source{Kind: KindMicroblog, Handle: h})
	}
}

// splitList parses a comma-separated environment value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings no command can start without. Per-source
// addressing is checked when the source is built, so one bad source only
// fails itself.
func Validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case BackendNotion:
		var missing []string
		if cfg.Store.Notion.APIKey == "" {
			missing = append(missing, "NOTION_API_KEY")
		}
		if cfg.Store.Notion.DatabaseID == "" {
			missing = append(missing, "DATABASE_ID")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrConfigMissing, strings.Join(missing, ", "))
		}
	case BackendSQLite:
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH", ErrConfigMissing)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q (valid: notion, sqlite)", ErrConfigInvalid, cfg.Store.Backend)
	}

	if cfg.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrConfigInvalid, cfg.Limit)
	}
	if cfg.FetchConcurrency <= 0 {
		return fmt.Errorf("%w: fetch_concurrency must be positive, got %d", ErrConfigInvalid, cfg.FetchConcurrency)
	}
	return nil
}

// RequireSources fails when an ingestion run would have nothing to scan.
func (c *Config) RequireSources() error {
	if len(c.EnabledSources()) == 0 {
		return fmt.Errorf("%w: no sources configured (set BLOG_URLS or TWITTER_USERNAMES)", ErrConfigMissing)
	}
	return nil
}
