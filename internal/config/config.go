// Package config loads, holds and hot-swaps WeiBack's config.toml.
// Mutation follows the teacher's "load defaults, let env vars win"
// pattern (internal/socialimport/framework.go's rateLimitFromEnv),
// and the snapshot model from spec.md §9: Set replaces the globally
// visible snapshot, but jobs that already captured a Config keep their
// copy for the duration of the run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/pelletier/go-toml"

	"github.com/weiback-dev/weiback/internal/model"
)

// SDKConfig mirrors the source's nested sdk_config.* keys.
type SDKConfig struct {
	FavCount    int `toml:"fav_count"`
	StatusCount int `toml:"status_count"`
	RetryTimes  int `toml:"retry_times"`
}

// Config is the full set of tunables from config.toml (spec.md §6).
type Config struct {
	DBPath             string                  `toml:"db_path"`
	SessionPath        string                  `toml:"session_path"`
	PicturePath        string                  `toml:"picture_path"`
	VideoPath          string                  `toml:"video_path"`
	DownloadPictures   bool                    `toml:"download_pictures"`
	PictureDefinition  model.PictureDefinition `toml:"-"`
	PictureDefStr      string                  `toml:"picture_definition"`
	BackupTaskInterval int                     `toml:"backup_task_interval"`
	OtherTaskInterval  int                     `toml:"other_task_interval"`
	PostsPerHTML       int                     `toml:"posts_per_html"`
	SDK                SDKConfig               `toml:"sdk_config"`
	DevModeOutDir      string                  `toml:"dev_mode_out_dir,omitempty"`
}

// Default returns the baseline configuration used before any
// config.toml is read, or when individual keys are absent from it.
func Default() Config {
	return Config{
		DBPath:             "weiback.db",
		SessionPath:        "session",
		PicturePath:        "pictures",
		VideoPath:          "videos",
		DownloadPictures:   true,
		PictureDefinition:  model.Original,
		PictureDefStr:      "original",
		BackupTaskInterval: 3,
		OtherTaskInterval:  1,
		PostsPerHTML:       50,
		SDK: SDKConfig{
			FavCount:    20,
			StatusCount: 20,
			RetryTimes:  3,
		},
	}
}

var definitionNames = map[string]model.PictureDefinition{
	"thumbnail":     model.Thumbnail,
	"bmiddle":       model.Bmiddle,
	"large":         model.Large,
	"original":      model.Original,
	"mw2000":        model.Mw2000,
	"largest":       model.Largest,
	"real_original": model.RealOriginal,
}

// Load reads config.toml from path, falling back to Default() for any
// key it doesn't set. A missing file is not an error: Default() alone
// is returned.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnvOverrides(cfg), nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if def, ok := definitionNames[cfg.PictureDefStr]; ok {
		cfg.PictureDefinition = def
	}
	return applyEnvOverrides(cfg), nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg Config) error {
	if cfg.PictureDefStr == "" {
		cfg.PictureDefStr = cfg.PictureDefinition.String()
	}
	b, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets WEIBACK_* env vars win over file/defaults,
// same pattern as rateLimitFromEnv in the teacher's social import
// framework (file/defaults first, explicit env var wins if set and
// parses).
func applyEnvOverrides(cfg Config) Config {
	if v := os.Getenv("WEIBACK_BACKUP_TASK_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BackupTaskInterval = n
		}
	}
	if v := os.Getenv("WEIBACK_OTHER_TASK_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.OtherTaskInterval = n
		}
	}
	if v := os.Getenv("WEIBACK_POSTS_PER_HTML"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PostsPerHTML = n
		}
	}
	if v := os.Getenv("WEIBACK_DOWNLOAD_PICTURES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DownloadPictures = b
		}
	}
	return cfg
}

// Store holds the globally-visible config snapshot behind an
// atomic.Pointer: Get is lock-free, Set fully replaces the value.
// In-flight jobs capture their own Config value at start and never
// re-read the Store mid-job (spec.md §9 "Config mutability").
type Store struct {
	v atomic.Pointer[Config]
}

func NewStore(initial Config) *Store {
	s := &Store{}
	s.v.Store(&initial)
	return s
}

// Get returns the current snapshot.
func (s *Store) Get() Config {
	return *s.v.Load()
}

// Set replaces the visible snapshot. Jobs already running keep the
// copy they captured at start.
func (s *Store) Set(cfg Config) {
	s.v.Store(&cfg)
}
