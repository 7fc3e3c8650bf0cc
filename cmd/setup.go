package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Movie-Song/sns-contents-tracker/internal/config"
	"github.com/Movie-Song/sns-contents-tracker/internal/feed"
	"github.com/Movie-Song/sns-contents-tracker/internal/logger"
	"github.com/Movie-Song/sns-contents-tracker/internal/store"
)

// env bundles what every subcommand needs.
type env struct {
	cfg    *config.Config
	log    logger.Logger
	client *http.Client
	store  store.Store
	close  func() error
}

func setup() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return setupWith(cfg)
}

func setupWith(cfg *config.Config) (*env, error) {
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	client := feed.NewHTTPClient(cfg.HTTPTimeoutDuration())
	s, closeStore, err := store.Open(cfg.Store, client)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &env{
		cfg:    cfg,
		log:    log.With(logger.String("store", cfg.Store.Backend)),
		client: client,
		store:  s,
		close: func() error {
			err := closeStore()
			_ = log.Sync()
			return err
		},
	}, nil
}

// parseSince accepts Go durations plus a day suffix ("30d").
func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
