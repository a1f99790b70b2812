// Package config loads bucketagent configuration.
//
// Precedence, highest first: runtime overrides, environment variables
// (BUCKETAGENT_ prefix, optionally from a .env file), the bucketagent.yaml
// config file, then defaults.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "BUCKETAGENT"

	// ConfigName is the config file base name (bucketagent.yaml).
	ConfigName = "bucketagent"

	// ConfigFileEnv names an explicit config file; it must exist.
	ConfigFileEnv = "BUCKETAGENT_CONFIG"

	// DotEnvFile is loaded from the working directory when present.
	DotEnvFile = ".env"
)

// Storage backends.
const (
	BackendS3   = "s3"
	BackendFile = "file"
)

// Config is the full application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
}

// StorageConfig configures the storage agent and its transport.
type StorageConfig struct {
	// Backend selects the store: "s3" (signed HTTP) or "file" (a local
	// directory where each bucket is a subdirectory of Root).
	Backend string `mapstructure:"backend"`
	Root    string `mapstructure:"root"`

	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Profile   string `mapstructure:"profile"`
	APISuffix string `mapstructure:"api_suffix"`
	Scheme    string `mapstructure:"scheme"`

	// Endpoint redirects requests to an S3-compatible server while
	// keeping virtual-hosted Host headers.
	Endpoint string `mapstructure:"endpoint"`

	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EnvSpec maps an environment variable to a config path.
type EnvSpec struct {
	Name string
	Path string
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

var (
	configMu  sync.RWMutex
	appConfig *Config
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendS3)
	v.SetDefault("storage.root", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.profile", "")
	v.SetDefault("storage.api_suffix", "amazonaws.com")
	v.SetDefault("storage.scheme", "https")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.timeout", "30s")
	v.SetDefault("storage.rate_limit", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
}

// Load builds the configuration and stores it for GetConfig.
//
// Each override is a nested map ({"server": {"port": 9000}}) and wins over
// every other source.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	SetDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, spec := range getEnvSpecs() {
		if err := v.BindEnv(spec.Path, spec.Name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", spec.Name, err)
		}
	}

	for _, o := range overrides {
		for key, value := range flatten("", o) {
			v.Set(key, value)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()

	return &cfg, nil
}

// GetConfig returns the most recently loaded configuration, or nil.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendS3:
	case BackendFile:
		if strings.TrimSpace(c.Storage.Root) == "" {
			return &ValidationError{Field: "storage.root", Message: "required for the file backend"}
		}
	default:
		return &ValidationError{Field: "storage.backend", Message: fmt.Sprintf("must be s3 or file, got %q", c.Storage.Backend)}
	}
	switch c.Storage.Scheme {
	case "http", "https":
	default:
		return &ValidationError{Field: "storage.scheme", Message: fmt.Sprintf("must be http or https, got %q", c.Storage.Scheme)}
	}
	if (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
		return &ValidationError{Field: "storage.access_key", Message: "access key and secret key must be set together"}
	}
	if c.Storage.RateLimit < 0 {
		return &ValidationError{Field: "storage.rate_limit", Message: "must be >= 0"}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return &ValidationError{Field: "logging.format", Message: fmt.Sprintf("must be json or console, got %q", c.Logging.Format)}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: fmt.Sprintf("out of range: %d", c.Server.Port)}
	}
	return nil
}

// getEnvSpecs returns short aliases for common keys. The long form
// (BUCKETAGENT_SERVER_PORT) always works and wins over an alias.
func getEnvSpecs() []EnvSpec {
	return []EnvSpec{
		{Name: EnvPrefix + "_BACKEND", Path: "storage.backend"},
		{Name: EnvPrefix + "_ROOT", Path: "storage.root"},
		{Name: EnvPrefix + "_REGION", Path: "storage.region"},
		{Name: EnvPrefix + "_PROFILE", Path: "storage.profile"},
		{Name: EnvPrefix + "_ENDPOINT", Path: "storage.endpoint"},
		{Name: EnvPrefix + "_ACCESS_KEY", Path: "storage.access_key"},
		{Name: EnvPrefix + "_SECRET_KEY", Path: "storage.secret_key"},
		{Name: EnvPrefix + "_LOG_LEVEL", Path: "logging.level"},
		{Name: EnvPrefix + "_LOG_FORMAT", Path: "logging.format"},
		{Name: EnvPrefix + "_HOST", Path: "server.host"},
		{Name: EnvPrefix + "_PORT", Path: "server.port"},
	}
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper) error {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", explicit, err)
		}
		return nil
	}

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, ConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// flatten turns nested maps into dotted keys.
func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}
