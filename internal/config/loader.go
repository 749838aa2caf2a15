package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultFile is read when CONFIG_FILE is not set. It may be absent.
const DefaultFile = "conf.toml"

// Load reads configuration from environment variables and the TOML file
// named by CONFIG_FILE (or DefaultFile when present).
// Environment variables win over file values, which win over defaults.
// Returns an error if validation fails.
func Load() (*Config, error) {
	path, required := os.Getenv("CONFIG_FILE"), true
	if path == "" {
		path, required = DefaultFile, false
	}
	return load(path, required)
}

// LoadFile is Load with an explicit TOML file that must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func load(path string, required bool) (*Config, error) {
	fileValues, err := readFile(path, required)
	if err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileValues[key]
	}

	cfg := &Config{}
	if err := decode(cfg, lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// decode resolves every env-tagged field of cfg through lookup and decodes
// the resulting text values into their Go types.
func decode(cfg *Config, lookup func(string) string) error {
	raw, err := collect(reflect.TypeOf(cfg).Elem(), lookup)
	if err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "env",
		WeaklyTypedInput: true,
		Result:           cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.DecodeHookFuncType(commaList),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// collect builds the decoder input for struct type t: nested structs under
// their field name, leaves under their env name. A leaf takes its env value,
// then its envAlt value, then its default; unset leaves are omitted.
func collect(t reflect.Type, lookup func(string) string) (map[string]any, error) {
	out := make(map[string]any)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			sub, err := collect(field.Type, lookup)
			if err != nil {
				return nil, err
			}
			out[field.Name] = sub
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		value := lookup(name)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = lookup(alt)
		}
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return nil, fmt.Errorf("required environment variable %s is not set", name)
			}
			value = field.Tag.Get("default")
		}
		if value != "" {
			out[name] = value
		}
	}

	return out, nil
}

// commaList splits "a, b ,c," into [a b c] for []string fields.
func commaList(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]string(nil)) {
		return data, nil
	}

	var list []string
	for _, part := range strings.Split(data.(string), ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		errs = append(errs, "DATABASE_URL or POSTGRES_HOST and POSTGRES_DB are required")
	}
	if c.Database.URL == "" && (c.Database.Port <= 0 || c.Database.Port > 65535) {
		errs = append(errs, fmt.Sprintf("POSTGRES_PORT (%d) must be 1-65535", c.Database.Port))
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.HealthCheckPeriod <= 0 {
		errs = append(errs, "DB_HEALTH_CHECK_PERIOD must be positive")
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT must be positive")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT (%d) must be non-negative", c.Server.RateLimit))
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow <= 0 {
		errs = append(errs, "RATE_WINDOW must be positive when RATE_LIMIT is set")
	}

	// Query validation
	if c.Query.Timeout <= 0 {
		errs = append(errs, "QUERY_TIMEOUT must be positive")
	}
	if c.Query.OffersLimit <= 0 {
		errs = append(errs, "QUERY_OFFERS_LIMIT must be positive")
	}
	if c.Query.StatsInterval < 0 {
		errs = append(errs, "DB_STATS_INTERVAL must be non-negative")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Passwords, database URLs and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], Host: %q, Port: %d, Name: %q, MaxConns: %d, MinConns: %d}, ",
		c.Database.Host, c.Database.Port, c.Database.Name, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Query: {Distinct: %v, Timeout: %s, OffersLimit: %d}, ",
		c.Query.Distinct, c.Query.Timeout, c.Query.OffersLimit))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d configured}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
