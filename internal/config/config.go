package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nomadcxx/parsevideo/internal/logging"
	"github.com/Nomadcxx/parsevideo/internal/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. PARSEVIDEO_SERVER_ADDR.
const EnvPrefix = "PARSEVIDEO"

type Config struct {
	Parser   ParserConfig   `mapstructure:"parser" toml:"parser"`
	Scan     ScanConfig     `mapstructure:"scan" toml:"scan"`
	Watch    WatchConfig    `mapstructure:"watch" toml:"watch"`
	Server   ServerConfig   `mapstructure:"server" toml:"server"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Logging  logging.Config `mapstructure:"logging" toml:"logging"`
}

// ParserConfig controls filename parsing
type ParserConfig struct {
	// RomanNumerals decodes "disc_V" style numerals before matching.
	RomanNumerals bool `mapstructure:"roman_numerals" toml:"roman_numerals"`
	// MatchTimeout bounds each rule's match, as a Go duration string.
	MatchTimeout string `mapstructure:"match_timeout" toml:"match_timeout"`
}

// Timeout returns MatchTimeout as a duration. Call Validate first.
func (p ParserConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(p.MatchTimeout)
	if err != nil {
		return 0
	}
	return d
}

// ScanConfig selects which files a library scan looks at
type ScanConfig struct {
	Extensions []string `mapstructure:"extensions" toml:"extensions"`
	Recursive  bool     `mapstructure:"recursive" toml:"recursive"`
	SkipHidden bool     `mapstructure:"skip_hidden" toml:"skip_hidden"`
}

// WatchConfig contains directories the daemon watches
type WatchConfig struct {
	Dirs []string `mapstructure:"dirs" toml:"dirs"`
	// RescanInterval is how often the daemon rescans Dirs in full. "0"
	// disables periodic rescans.
	RescanInterval string `mapstructure:"rescan_interval" toml:"rescan_interval"`
}

// Interval returns RescanInterval as a duration. Call Validate first.
func (w WatchConfig) Interval() time.Duration {
	d, err := time.ParseDuration(w.RescanInterval)
	if err != nil {
		return 0
	}
	return d
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr" toml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`
}

type DatabaseConfig struct {
	// Path of the sqlite file. Empty means paths.DatabasePath().
	Path string `mapstructure:"path" toml:"path"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			RomanNumerals: false,
			MatchTimeout:  "100ms",
		},
		Scan: ScanConfig{
			Extensions: []string{"mkv", "mp4", "m4v", "avi", "mov", "wmv", "mpg", "mpeg", "ts", "webm"},
			Recursive:  true,
			SkipHidden: true,
		},
		Watch: WatchConfig{
			Dirs:           []string{},
			RescanInterval: "6h",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8687",
			AllowedOrigins: []string{"*"},
		},
		Logging: logging.DefaultConfig(),
	}
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("parser.roman_numerals", cfg.Parser.RomanNumerals)
	v.SetDefault("parser.match_timeout", cfg.Parser.MatchTimeout)
	v.SetDefault("scan.extensions", cfg.Scan.Extensions)
	v.SetDefault("scan.recursive", cfg.Scan.Recursive)
	v.SetDefault("scan.skip_hidden", cfg.Scan.SkipHidden)
	v.SetDefault("watch.dirs", cfg.Watch.Dirs)
	v.SetDefault("watch.rescan_interval", cfg.Watch.RescanInterval)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
}

// Load reads the config file at path (the default location when empty),
// applies PARSEVIDEO_* environment overrides and validates the result. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := paths.ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("unable to get config path: %w", err)
		}
		path = p
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize lower-cases extensions and drops their leading dots.
func (c *Config) normalize() {
	exts := make([]string, 0, len(c.Scan.Extensions))
	for _, e := range c.Scan.Extensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	c.Scan.Extensions = exts
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Parser.MatchTimeout)
	if err != nil {
		return fmt.Errorf("parser.match_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("parser.match_timeout must be positive, got %s", c.Parser.MatchTimeout)
	}
	if c.Watch.RescanInterval != "" {
		d, err := time.ParseDuration(c.Watch.RescanInterval)
		if err != nil {
			return fmt.Errorf("watch.rescan_interval: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("watch.rescan_interval must not be negative, got %s", c.Watch.RescanInterval)
		}
	}
	if len(c.Scan.Extensions) == 0 {
		return errors.New("scan.extensions must not be empty")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must not be empty")
	}
	return nil
}

// DatabasePath returns the configured database path or the default one.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	return paths.DatabasePath()
}

const fileHeader = `# parsevideo configuration
# Generated by: parsevideo config init
# Every key can be overridden with PARSEVIDEO_<SECTION>_<KEY>, e.g. PARSEVIDEO_SERVER_ADDR.

`

// ToTOML renders the config as a TOML document.
func (c *Config) ToTOML() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := paths.ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	content, err := c.ToTOML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// ConfigPath returns the default config file location
func ConfigPath() (string, error) {
	return paths.ConfigPath()
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
