package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"livefind/internal/engine"
	"livefind/internal/highlight"
	"livefind/internal/watcher"
)

// Config represents the application configuration
type Config struct {
	Version    int                `toml:"version"`
	Selectors  SelectorSettings   `toml:"selectors"`
	Watcher    WatcherSettings    `toml:"watcher"`
	Navigation NavigationSettings `toml:"navigation"`
	Marker     MarkerSettings     `toml:"marker"`
	Feed       FeedSettings       `toml:"feed"`
	UISettings UISettings         `toml:"ui"`
}

// SelectorSettings names the parts of a page the engine looks at
type SelectorSettings struct {
	Candidates         []string `toml:"candidates"`          // comment text nodes that get scanned
	Comments           []string `toml:"comments"`            // inserted elements that look like comments
	Containers         []string `toml:"containers"`          // subtrees observed for new comments
	AnchoredContainers []string `toml:"anchored_containers"` // observed via their closest div
	TextElements       []string `toml:"text_elements"`
}

// WatcherSettings tunes change detection
type WatcherSettings struct {
	Debounce         Duration `toml:"debounce"`
	ScrollDebounce   Duration `toml:"scroll_debounce"`
	MinCommentLength int      `toml:"min_comment_length"`
}

// NavigationSettings tunes navigation detection
type NavigationSettings struct {
	PollInterval Duration `toml:"poll_interval"`
	HistoryDelay Duration `toml:"history_delay"`
}

// MarkerSettings describes the highlight markup
type MarkerSettings struct {
	Tag         string `toml:"tag"`
	Class       string `toml:"class"`
	Style       string `toml:"style"`
	ActiveStyle string `toml:"active_style"`
}

// FeedSettings configures where fed content is inserted
type FeedSettings struct {
	Targets []string `toml:"targets"`
	Settle  Duration `toml:"settle"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	Strict bool `toml:"strict"`
}

// Duration is a time.Duration written as "800ms" in the config file
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a new config service
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	return &configService{
		filePath: filepath.Join(configDir, "livefind", "config.toml"),
	}
}

// Load loads the configuration from the default location, falling back
// to defaults when no file exists yet
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to the default location
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Keys missing
// from the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	opts := engine.DefaultOptions()
	return &Config{
		Version: 1,
		Selectors: SelectorSettings{
			Candidates:         clone(opts.Candidates),
			Comments:           clone(opts.Watcher.CommentSelectors),
			Containers:         clone(opts.Watcher.Containers),
			AnchoredContainers: clone(opts.Watcher.AnchoredContainers),
			TextElements:       clone(opts.Watcher.TextElements),
		},
		Watcher: WatcherSettings{
			Debounce:         Duration{opts.Watcher.Debounce},
			ScrollDebounce:   Duration{opts.Watcher.ScrollDebounce},
			MinCommentLength: opts.Watcher.MinTextLength,
		},
		Navigation: NavigationSettings{
			PollInterval: Duration{opts.PollInterval},
			HistoryDelay: Duration{opts.HistoryDelay},
		},
		Marker: MarkerSettings{
			Tag:         opts.Style.Tag,
			Class:       opts.Style.Class,
			Style:       opts.Style.Style,
			ActiveStyle: opts.Style.ActiveStyle,
		},
		Feed: FeedSettings{
			Targets: []string{"#comments", ".commentarea", ".sitetable"},
			Settle:  Duration{150 * time.Millisecond},
		},
	}
}

// EngineOptions converts the configuration into engine options
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Candidates: c.Selectors.Candidates,
		Watcher: watcher.Options{
			Containers:         c.Selectors.Containers,
			AnchoredContainers: c.Selectors.AnchoredContainers,
			CommentSelectors:   c.Selectors.Comments,
			TextElements:       c.Selectors.TextElements,
			MinTextLength:      c.Watcher.MinCommentLength,
			Debounce:           c.Watcher.Debounce.Duration,
			ScrollDebounce:     c.Watcher.ScrollDebounce.Duration,
		},
		PollInterval: c.Navigation.PollInterval.Duration,
		HistoryDelay: c.Navigation.HistoryDelay.Duration,
		Style: highlight.Style{
			Tag:         c.Marker.Tag,
			Class:       c.Marker.Class,
			Style:       c.Marker.Style,
			ActiveStyle: c.Marker.ActiveStyle,
		},
	}
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
