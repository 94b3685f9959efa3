// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/csvrules/internal/rules"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Reader  ReaderConfig
	Parse   ParseConfig
	Rules   RulesConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// ReaderConfig holds the CSV tokenizer settings passed through to every parse.
type ReaderConfig struct {
	// Delimiter is the field separator, a single character (default: ,)
	Delimiter string `env:"CSV_DELIMITER" default:","`

	// Comment marks lines to skip when they start with it (default: disabled)
	Comment string `env:"CSV_COMMENT"`

	// LazyQuotes tolerates quotes inside unquoted fields (default: false)
	LazyQuotes bool `env:"CSV_LAZY_QUOTES" default:"false"`

	// TrimLeadingSpace ignores leading whitespace in fields (default: false)
	TrimLeadingSpace bool `env:"CSV_TRIM_LEADING_SPACE" default:"false"`
}

// ParseConfig holds limits for parse requests.
type ParseConfig struct {
	// MaxFileSize is the maximum accepted upload size in bytes (default: 50MB)
	MaxFileSize int64 `env:"PARSE_MAX_FILE_SIZE" default:"52428800"`

	// MaxRows caps the rows returned by one parse, 0 for no limit (default: 0)
	MaxRows int `env:"PARSE_MAX_ROWS" default:"0"`

	// PreviewRows is the number of rows rendered by the HTML preview (default: 50)
	PreviewRows int `env:"PARSE_PREVIEW_ROWS" default:"50"`

	// Timeout is the maximum duration of a single parse (default: 2m)
	Timeout time.Duration `env:"PARSE_TIMEOUT" default:"2m"`

	// MaxConcurrent is the number of parses allowed to run at once (default: 5)
	MaxConcurrent int `env:"PARSE_MAX_CONCURRENT" default:"5"`

	// MaxWait is how long a parse waits for a free slot (default: 30s)
	MaxWait time.Duration `env:"PARSE_MAX_WAIT" default:"30s"`
}

// RulesConfig holds ruleset file settings.
type RulesConfig struct {
	// Path is a YAML ruleset file loaded at startup (default: none)
	Path string `env:"RULESET_PATH"`

	// Watch reloads the ruleset when the file changes (default: false)
	Watch bool `env:"RULESET_WATCH" default:"false"`

	// Debounce is how long to wait after the last change before reloading (default: 250ms)
	Debounce time.Duration `env:"RULESET_DEBOUNCE" default:"250ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Options converts the reader settings for the rules package.
// Validate guarantees Delimiter and Comment are at most one rune.
func (c *ReaderConfig) Options() rules.ReaderOptions {
	return rules.ReaderOptions{
		Comma:            firstRune(c.Delimiter),
		Comment:          firstRune(c.Comment),
		LazyQuotes:       c.LazyQuotes,
		TrimLeadingSpace: c.TrimLeadingSpace,
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
