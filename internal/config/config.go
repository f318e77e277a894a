package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	DefaultServerURL = "http://localhost:8080"
	configFileName   = "config.yml"
	configDirName    = "manga-t"
	MaxRecentlyRead  = 10 // Maximum number of recently read series to track

	envPrefix = "MANGAT_"
)

// Reader display defaults and bounds.
const (
	DefaultScale      = 1.0
	MinScale          = 0.5
	MaxScale          = 3.0
	ScaleStep         = 0.25
	DefaultBrightness = 100
	MinBrightness     = 30
	MaxBrightness     = 150
	BrightnessStep    = 10
)

// RecentlyReadEntry represents a recently opened chapter
type RecentlyReadEntry struct {
	MangaSlug string    `koanf:"manga_slug" yaml:"manga_slug"`
	ChapterID string    `koanf:"chapter_id" yaml:"chapter_id"`
	Title     string    `koanf:"title" yaml:"title"`
	OpenedAt  time.Time `koanf:"opened_at" yaml:"opened_at"`
}

// Config holds the application configuration
type Config struct {
	ServerURL string `koanf:"server_url" yaml:"server_url"`
	Token     string `koanf:"token" yaml:"token,omitempty"`
	Username  string `koanf:"username" yaml:"username,omitempty"`

	// Reader preferences
	Mode           string  `koanf:"mode" yaml:"mode"`                       // vertical | horizontal | swipe
	Scale          float64 `koanf:"scale" yaml:"scale"`                     // zoom multiplier
	Brightness     int     `koanf:"brightness" yaml:"brightness"`           // percent
	ContainerWidth int     `koanf:"container_width" yaml:"container_width"` // percent of terminal width
	RenderAll      bool    `koanf:"render_all" yaml:"render_all"`           // render whole chapters up front
	Watermark      string  `koanf:"watermark" yaml:"watermark,omitempty"`
	Theme          string  `koanf:"theme" yaml:"theme,omitempty"`

	RecentlyRead []RecentlyReadEntry `koanf:"recently_read" yaml:"recently_read,omitempty"`

	// Path to config file (not persisted)
	path string `koanf:"-" yaml:"-"`
}

// Default returns the built-in configuration values.
func Default() *Config {
	return &Config{
		ServerURL:      DefaultServerURL,
		Mode:           "vertical",
		Scale:          DefaultScale,
		Brightness:     DefaultBrightness,
		ContainerWidth: 100,
	}
}

// Load reads configuration from the user config file, then overlays
// environment variable overrides (MANGAT_*).
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from an explicit path. Missing files are
// not an error; defaults plus environment overrides are returned.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()
	cfg.path = path

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.clampPreferences()
	return cfg, nil
}

// clampPreferences keeps persisted reader preferences inside valid bounds,
// so a hand-edited file cannot wedge the viewer.
func (c *Config) clampPreferences() {
	if c.Mode != "vertical" && c.Mode != "horizontal" && c.Mode != "swipe" {
		c.Mode = "vertical"
	}
	if c.Scale < MinScale || c.Scale > MaxScale {
		c.Scale = DefaultScale
	}
	if c.Brightness < MinBrightness || c.Brightness > MaxBrightness {
		c.Brightness = DefaultBrightness
	}
	if c.ContainerWidth < 30 || c.ContainerWidth > 100 {
		c.ContainerWidth = 100
	}
}

// Save persists the configuration to disk
func (c *Config) Save() error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yamlv3.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// SetToken updates the token and saves
func (c *Config) SetToken(token string) error {
	c.Token = token
	return c.Save()
}

// ClearToken removes the token and saves
func (c *Config) ClearToken() error {
	c.Token = ""
	c.Username = ""
	return c.Save()
}

// IsAuthenticated returns true if a token is stored
func (c *Config) IsAuthenticated() bool {
	return c.Token != ""
}

// SetScale stores the zoom preference and saves.
func (c *Config) SetScale(scale float64) error {
	if scale < MinScale {
		scale = MinScale
	}
	if scale > MaxScale {
		scale = MaxScale
	}
	c.Scale = scale
	return c.Save()
}

// SetMode stores the reading mode preference and saves.
func (c *Config) SetMode(mode string) error {
	c.Mode = mode
	c.clampPreferences()
	return c.Save()
}

// SetTheme stores the UI theme preference and saves.
func (c *Config) SetTheme(name string) error {
	c.Theme = name
	return c.Save()
}

// AddRecentlyRead adds a chapter to the recently read list
func (c *Config) AddRecentlyRead(mangaSlug, chapterID, title string) error {
	newList := make([]RecentlyReadEntry, 0, MaxRecentlyRead)
	for _, entry := range c.RecentlyRead {
		if entry.ChapterID != chapterID {
			newList = append(newList, entry)
		}
	}

	entry := RecentlyReadEntry{
		MangaSlug: mangaSlug,
		ChapterID: chapterID,
		Title:     title,
		OpenedAt:  time.Now(),
	}
	c.RecentlyRead = append([]RecentlyReadEntry{entry}, newList...)

	if len(c.RecentlyRead) > MaxRecentlyRead {
		c.RecentlyRead = c.RecentlyRead[:MaxRecentlyRead]
	}

	return c.Save()
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, configDirName, configFileName), nil
}
