// Package config reads process configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingDatabaseEnv is returned when any POSTGRES_* variable is unset.
var ErrMissingDatabaseEnv = errors.New("database environment variables (POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_SERVICE_HOST, POSTGRES_SERVICE_PORT, POSTGRES_DB) must be set")

// LoadDotEnv loads .env from the working directory if present. Variables that
// are already set win over the file.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

// Database holds the POSTGRES_* connection settings.
type Database struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// DatabaseFromEnv reads the POSTGRES_* variables.
func DatabaseFromEnv() (Database, error) {
	db := Database{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Host:     os.Getenv("POSTGRES_SERVICE_HOST"),
		Port:     os.Getenv("POSTGRES_SERVICE_PORT"),
		Name:     os.Getenv("POSTGRES_DB"),
	}
	if db.User == "" || db.Password == "" || db.Host == "" || db.Port == "" || db.Name == "" {
		return Database{}, ErrMissingDatabaseEnv
	}
	return db, nil
}

// URL is the postgres:// form used by database/sql, pgxpool and migrate.
func (d Database) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

// Get returns the variable or def when it is unset or blank.
func Get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// GetInt returns the variable parsed as int, or def when unset or invalid.
func GetInt(key string, def int) int {
	v, err := strconv.Atoi(Get(key, ""))
	if err != nil {
		return def
	}
	return v
}

// GetList splits a comma separated variable, dropping empty items.
func GetList(key string, def []string) []string {
	raw := Get(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Debug returns the log level selected by DEBUG=1.
func Debug() slog.Level {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") == "1" {
		level = slog.LevelDebug
	}
	return level
}

// Logger builds the JSON logger shared by all binaries.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: Debug(),
	}))
}
