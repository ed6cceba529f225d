package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Storage backend names accepted in StorageConfig.Backend.
const (
	StorageMemory  = "memory"
	StorageSQLite  = "sqlite"
	StorageKeyring = "keyring"
)

// ServerConfig holds the web host settings.
type ServerConfig struct {
	// Listen is the TCP address the web host binds to.
	Listen string `mapstructure:"listen" yaml:"listen"`

	// PublicURL is the externally visible base URL, used to build the
	// OAuth redirect URI. Empty means derive it from the request.
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`
}

// APIConfig locates the email API.
type APIConfig struct {
	// BaseURL is the root URL of the email API service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// EmailsPath is the path of the email list endpoint.
	EmailsPath string `mapstructure:"emails_path" yaml:"emails_path"`
}

// StorageConfig selects where session values are persisted.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite" or "keyring".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the SQLite database file (sqlite backend).
	Path string `mapstructure:"path" yaml:"path"`

	// KeyringService is the keyring service name (keyring backend).
	KeyringService string `mapstructure:"keyring_service" yaml:"keyring_service"`

	// KeyringDir is the directory used by the encrypted-file keyring fallback.
	KeyringDir string `mapstructure:"keyring_dir" yaml:"keyring_dir"`
}

// OAuthConfig holds the Google OAuth client used by the sign-in flow.
// Sign-in is disabled unless both fields are set.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
}

// Enabled reports whether the sign-in flow can run.
func (c OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// DisplayConfig holds rendering preferences.
type DisplayConfig struct {
	// DateLayout is the Go time layout used for parsed email dates.
	DateLayout string `mapstructure:"date_layout" yaml:"date_layout"`

	// TimeZone is an IANA zone name; empty means the host's local zone.
	TimeZone string `mapstructure:"time_zone" yaml:"time_zone"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig  `mapstructure:"server" yaml:"server"`
	API      APIConfig     `mapstructure:"api" yaml:"api"`
	Storage  StorageConfig `mapstructure:"storage" yaml:"storage"`
	OAuth    OAuthConfig   `mapstructure:"oauth" yaml:"oauth"`
	Display  DisplayConfig `mapstructure:"display" yaml:"display"`
	LogLevel string        `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailgate/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailgate", "config.yaml")
}

// defaultDataDir is where the SQLite database and keyring files live.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailgate")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := defaultDataDir()
	return &AppConfig{
		Server: ServerConfig{
			Listen: "127.0.0.1:8080",
		},
		API: APIConfig{
			BaseURL:    "http://127.0.0.1:5000",
			EmailsPath: "/api/emails",
		},
		Storage: StorageConfig{
			Backend:        StorageSQLite,
			Path:           filepath.Join(dir, "session.db"),
			KeyringService: "mailgate",
			KeyringDir:     filepath.Join(dir, "credentials"),
		},
		Display: DisplayConfig{
			DateLayout: "1/2/2006 3:04:05 PM",
		},
		LogLevel: "info",
	}
}

// setDefaults mirrors defaultAppConfig into v so missing keys resolve.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.public_url", d.Server.PublicURL)
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.emails_path", d.API.EmailsPath)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.keyring_service", d.Storage.KeyringService)
	v.SetDefault("storage.keyring_dir", d.Storage.KeyringDir)
	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("display.date_layout", d.Display.DateLayout)
	v.SetDefault("display.time_zone", d.Display.TimeZone)
	v.SetDefault("log_level", d.LogLevel)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values can be overridden with MAILGATE_* environment variables
// (e.g. MAILGATE_API_BASE_URL). If the file does not exist, defaults plus
// environment overrides are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("mailgate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail late.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageSQLite, StorageKeyring:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == StorageSQLite && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the sqlite backend")
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.EmailsPath, "/") {
		return fmt.Errorf("api.emails_path must start with /")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("api", cfg.API)
	v.Set("storage", cfg.Storage)
	v.Set("oauth", cfg.OAuth)
	v.Set("display", cfg.Display)
	v.Set("log_level", cfg.LogLevel)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
