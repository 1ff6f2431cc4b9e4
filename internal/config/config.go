// Package config собирает настройки сервера из нескольких источников.
//
// Порядок (каждый следующий перекрывает предыдущий):
//
//	defaults -> .env файл -> JSON файл (-c/-config) -> переменные окружения -> флаги
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/refkeeper/internal/logging"
)

// Поддерживаемые драйверы хранилища
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// EnvDevelopment отключает Secure у cookie и включает текстовые логи
const EnvDevelopment = "development"

// Config runtime настройки сервера
type Config struct {
	Addr              string
	Env               string
	DBDriver          string
	DatabaseDSN       string
	JWTSecret         string
	LogLevel          string
	EnvFile           string
	ConfigFile        string
	PerimeterPatterns []string
	TokenTTL          time.Duration
	RateWindow        time.Duration
	ShutdownTimeout   time.Duration
	BcryptCost        int
	RateLimit         int
	TrustProxy        bool
}

// Default возвращает настройки для локального запуска без внешних зависимостей.
// JWTSecret пуст намеренно: без секрета сервер не стартует.
func Default() *Config {
	return &Config{
		Addr:              ":8080",
		Env:               "production",
		DBDriver:          DriverSQLite,
		DatabaseDSN:       "refkeeper.db",
		LogLevel:          "info",
		EnvFile:           ".env",
		PerimeterPatterns: []string{"/", "/articles*", "/search*"},
		TokenTTL:          30 * 24 * time.Hour,
		RateLimit:         10,
		RateWindow:        time.Minute,
		ShutdownTimeout:   10 * time.Second,
		BcryptCost:        10,
	}
}

// IsDevelopment сообщает, запущен ли сервер в режиме разработки
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

// SecureCookie нужно ли ставить флаг Secure у cookie сессии
func (c *Config) SecureCookie() bool {
	return !c.IsDevelopment()
}

// LogFormat формат логов для текущего окружения
func (c *Config) LogFormat() string {
	if c.IsDevelopment() {
		return logging.FormatText
	}
	return logging.FormatJSON
}

// Validate проверяет настройки, без которых запуск бессмыслен
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required (JWT_SECRET or -jwt-secret)"))
	}
	if !slices.Contains([]string{DriverSQLite, DriverPostgres, DriverMemory}, c.DBDriver) {
		errs = append(errs, fmt.Errorf("unknown db driver %q", c.DBDriver))
	}
	if c.DBDriver != DriverMemory && c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be in [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("rate limit and window must be positive"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
