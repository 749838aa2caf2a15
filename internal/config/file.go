package config

// file.go reads the optional TOML configuration file.
//
// The file layout follows the deployed conf.toml:
//
//	[postgres]
//	user = "bot"
//	password = "secret"
//	host = "db"
//	port = 5432
//	db = "cars"
//
//	[server]
//	port = 8080
//
//	[query]
//	distinct = true
//
//	[logging]
//	level = "debug"
//
// Unknown sections (for example [telegram_bot]) are ignored. File values are
// flattened to the same keys as the environment variables so the loader can
// apply one precedence rule: env > file > default.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type fileConfig struct {
	Postgres struct {
		URL      *string `toml:"url"`
		User     *string `toml:"user"`
		Password *string `toml:"password"`
		Host     *string `toml:"host"`
		Port     *int    `toml:"port"`
		DB       *string `toml:"db"`
		SSLMode  *string `toml:"sslmode"`
		MaxConns *int    `toml:"max_conns"`
		MinConns *int    `toml:"min_conns"`
	} `toml:"postgres"`

	Server struct {
		Host           *string `toml:"host"`
		Port           *int    `toml:"port"`
		RequestTimeout *string `toml:"request_timeout"`
	} `toml:"server"`

	Query struct {
		Distinct      *bool   `toml:"distinct"`
		Timeout       *string `toml:"timeout"`
		OffersLimit   *int    `toml:"offers_limit"`
		StatsInterval *string `toml:"stats_interval"`
	} `toml:"query"`

	Security struct {
		RequireAPIKey *bool    `toml:"require_api_key"`
		APIKeys       []string `toml:"api_keys"`
	} `toml:"security"`

	Logging struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"logging"`
}

// readFile parses the TOML file at path into env-keyed values.
// A missing file yields no values and no error unless required is set.
func readFile(path string, required bool) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := fc.validateDurations(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return fc.values(), nil
}

func (fc *fileConfig) validateDurations() error {
	for key, s := range map[string]*string{
		"server.request_timeout": fc.Server.RequestTimeout,
		"query.timeout":          fc.Query.Timeout,
		"query.stats_interval":   fc.Query.StatsInterval,
	} {
		if s == nil {
			continue
		}
		if _, err := time.ParseDuration(*s); err != nil {
			return fmt.Errorf("%s: invalid duration %q", key, *s)
		}
	}
	return nil
}

// values flattens the set fields of fc to their environment variable names.
func (fc *fileConfig) values() map[string]string {
	v := make(map[string]string)

	putString(v, "DATABASE_URL", fc.Postgres.URL)
	putString(v, "POSTGRES_USER", fc.Postgres.User)
	putString(v, "POSTGRES_PASSWORD", fc.Postgres.Password)
	putString(v, "POSTGRES_HOST", fc.Postgres.Host)
	putInt(v, "POSTGRES_PORT", fc.Postgres.Port)
	putString(v, "POSTGRES_DB", fc.Postgres.DB)
	putString(v, "POSTGRES_SSLMODE", fc.Postgres.SSLMode)
	putInt(v, "DB_MAX_CONNS", fc.Postgres.MaxConns)
	putInt(v, "DB_MIN_CONNS", fc.Postgres.MinConns)

	putString(v, "SERVER_HOST", fc.Server.Host)
	putInt(v, "SERVER_PORT", fc.Server.Port)
	putString(v, "SERVER_REQUEST_TIMEOUT", fc.Server.RequestTimeout)

	putBool(v, "QUERY_DISTINCT", fc.Query.Distinct)
	putString(v, "QUERY_TIMEOUT", fc.Query.Timeout)
	putInt(v, "QUERY_OFFERS_LIMIT", fc.Query.OffersLimit)
	putString(v, "DB_STATS_INTERVAL", fc.Query.StatsInterval)

	putBool(v, "REQUIRE_API_KEY", fc.Security.RequireAPIKey)
	if len(fc.Security.APIKeys) > 0 {
		v["API_KEYS"] = strings.Join(fc.Security.APIKeys, ",")
	}

	putString(v, "LOG_LEVEL", fc.Logging.Level)
	putString(v, "LOG_FORMAT", fc.Logging.Format)

	return v
}

func putString(m map[string]string, key string, s *string) {
	if s != nil {
		m[key] = *s
	}
}

func putInt(m map[string]string, key string, i *int) {
	if i != nil {
		m[key] = strconv.Itoa(*i)
	}
}

func putBool(m map[string]string, key string, b *bool) {
	if b != nil {
		m[key] = strconv.FormatBool(*b)
	}
}
