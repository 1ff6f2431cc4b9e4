package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Переменные окружения
const (
	EnvAddr            = "REFKEEPER_ADDR"
	EnvEnv             = "REFKEEPER_ENV"
	EnvDBDriver        = "REFKEEPER_DB_DRIVER"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvJWTSecret       = "JWT_SECRET"
	EnvTokenTTL        = "REFKEEPER_TOKEN_TTL"
	EnvBcryptCost      = "REFKEEPER_BCRYPT_COST"
	EnvLogLevel        = "REFKEEPER_LOG_LEVEL"
	EnvRateLimit       = "REFKEEPER_RATE_LIMIT"
	EnvRateWindow      = "REFKEEPER_RATE_WINDOW"
	EnvTrustProxy      = "REFKEEPER_TRUST_PROXY"
	EnvPerimeter       = "REFKEEPER_PERIMETER"
	EnvShutdownTimeout = "REFKEEPER_SHUTDOWN_TIMEOUT"
)

// Load собирает конфигурацию из аргументов командной строки (без имени программы)
// и окружения процесса
func Load(args []string) (*Config, error) {
	return load(args, os.LookupEnv)
}

func load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	flags, set, err := parseFlags(args, cfg)
	if err != nil {
		return nil, err
	}

	// .env: значения ниже JSON и реального окружения
	dotenv, err := readDotEnv(cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, mapLookup(dotenv)); err != nil {
		return nil, fmt.Errorf(".env %s: %w", cfg.EnvFile, err)
	}

	if cfg.ConfigFile != "" {
		if err := applyJSON(cfg, cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, lookupEnv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	// флаги применяем последними и только явно заданные
	set.apply(cfg, flags)

	return cfg, nil
}

// flagValues значения флагов до наложения на итоговую конфигурацию
type flagValues struct {
	addr, env, driver, dsn, secret, logLevel, perimeter string
	ttl, rateWindow, shutdown                           time.Duration
	bcryptCost, rateLimit                               int
	trustProxy                                          bool
}

func parseFlags(args []string, cfg *Config) (*flag.FlagSet, *flagValues, error) {
	v := &flagValues{}
	flags := flag.NewFlagSet("refkeeper-server", flag.ContinueOnError)

	flags.StringVar(&cfg.ConfigFile, "c", "", "path to JSON config file")
	flags.StringVar(&cfg.ConfigFile, "config", "", "path to JSON config file")
	flags.StringVar(&cfg.EnvFile, "env-file", cfg.EnvFile, "path to .env file (missing file is ignored)")

	flags.StringVar(&v.addr, "a", "", "address and port to listen on")
	flags.StringVar(&v.env, "env", "", "environment: production or development")
	flags.StringVar(&v.driver, "db-driver", "", "storage driver: sqlite, postgres or memory")
	flags.StringVar(&v.dsn, "d", "", "database DSN (sqlite path or postgres URL)")
	flags.StringVar(&v.secret, "jwt-secret", "", "HMAC secret for session tokens")
	flags.StringVar(&v.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&v.perimeter, "perimeter", "", "comma separated path patterns guarded by the login redirect")
	flags.DurationVar(&v.ttl, "token-ttl", 0, "session token lifetime")
	flags.DurationVar(&v.rateWindow, "rate-window", 0, "rate limit window for auth endpoints")
	flags.DurationVar(&v.shutdown, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.IntVar(&v.bcryptCost, "bcrypt-cost", 0, "bcrypt cost for password hashing")
	flags.IntVar(&v.rateLimit, "rate-limit", 0, "requests per window allowed on auth endpoints")
	flags.BoolVar(&v.trustProxy, "trust-proxy", false, "use X-Forwarded-For/X-Real-IP for client address")

	if err := flags.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parse flags: %w", err)
	}

	return flags, v, nil
}

func (v *flagValues) apply(cfg *Config, flags *flag.FlagSet) {
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.Addr = v.addr
		case "env":
			cfg.Env = v.env
		case "db-driver":
			cfg.DBDriver = v.driver
		case "d":
			cfg.DatabaseDSN = v.dsn
		case "jwt-secret":
			cfg.JWTSecret = v.secret
		case "log-level":
			cfg.LogLevel = v.logLevel
		case "perimeter":
			cfg.PerimeterPatterns = splitList(v.perimeter)
		case "token-ttl":
			cfg.TokenTTL = v.ttl
		case "rate-window":
			cfg.RateWindow = v.rateWindow
		case "shutdown-timeout":
			cfg.ShutdownTimeout = v.shutdown
		case "bcrypt-cost":
			cfg.BcryptCost = v.bcryptCost
		case "rate-limit":
			cfg.RateLimit = v.rateLimit
		case "trust-proxy":
			cfg.TrustProxy = v.trustProxy
		}
	})
}

func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read .env %s: %w", path, err)
	}
	return values, nil
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// jsonConfig DTO для JSON файла; длительности задаются строками ("720h", "30s")
type jsonConfig struct {
	Addr              *string   `json:"addr"`
	Env               *string   `json:"env"`
	DBDriver          *string   `json:"db_driver"`
	DatabaseDSN       *string   `json:"database_dsn"`
	JWTSecret         *string   `json:"jwt_secret"`
	LogLevel          *string   `json:"log_level"`
	TokenTTL          *Duration `json:"token_ttl"`
	RateWindow        *Duration `json:"rate_window"`
	ShutdownTimeout   *Duration `json:"shutdown_timeout"`
	BcryptCost        *int      `json:"bcrypt_cost"`
	RateLimit         *int      `json:"rate_limit"`
	TrustProxy        *bool     `json:"trust_proxy"`
	PerimeterPatterns []string  `json:"perimeter_patterns"`
}

func applyJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIf(&cfg.Addr, jc.Addr)
	setIf(&cfg.Env, jc.Env)
	setIf(&cfg.DBDriver, jc.DBDriver)
	setIf(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setIf(&cfg.JWTSecret, jc.JWTSecret)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.BcryptCost, jc.BcryptCost)
	setIf(&cfg.RateLimit, jc.RateLimit)
	setIf(&cfg.TrustProxy, jc.TrustProxy)
	if jc.TokenTTL != nil {
		cfg.TokenTTL = jc.TokenTTL.Duration
	}
	if jc.RateWindow != nil {
		cfg.RateWindow = jc.RateWindow.Duration
	}
	if jc.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	if jc.PerimeterPatterns != nil {
		cfg.PerimeterPatterns = jc.PerimeterPatterns
	}

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvAddr, &cfg.Addr)
	str(EnvEnv, &cfg.Env)
	str(EnvDBDriver, &cfg.DBDriver)
	str(EnvDatabaseURL, &cfg.DatabaseDSN)
	str(EnvJWTSecret, &cfg.JWTSecret)
	str(EnvLogLevel, &cfg.LogLevel)

	if v, ok := lookup(EnvPerimeter); ok && v != "" {
		cfg.PerimeterPatterns = splitList(v)
	}

	var errs []error
	durations := []struct {
		dst *time.Duration
		key string
	}{
		{key: EnvTokenTTL, dst: &cfg.TokenTTL},
		{key: EnvRateWindow, dst: &cfg.RateWindow},
		{key: EnvShutdownTimeout, dst: &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if v, ok := lookup(d.key); ok && v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", d.key, err))
				continue
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		dst *int
		key string
	}{
		{key: EnvBcryptCost, dst: &cfg.BcryptCost},
		{key: EnvRateLimit, dst: &cfg.RateLimit},
	}
	for _, i := range ints {
		if v, ok := lookup(i.key); ok && v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", i.key, err))
				continue
			}
			*i.dst = parsed
		}
	}

	if v, ok := lookup(EnvTrustProxy); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTrustProxy, err))
		} else {
			cfg.TrustProxy = parsed
		}
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
