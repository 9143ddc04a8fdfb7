// Package config provides configuration management for the datatect CLI.
//
// Values are layered, lowest to highest: built-in defaults, the settings file
// (datatect.yaml), a .env file, environment variables, and flags given on the
// command line.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Config holds all CLI configuration options.
type Config struct {
	Schema          string        `koanf:"schema"`
	Host            string        `koanf:"host"`
	Index           string        `koanf:"index"`
	OnlyErrors      bool          `koanf:"only_errors"`
	PageSize        int           `koanf:"page_size"`
	ScrollKeepAlive string        `koanf:"scroll_keepalive"`
	Timeout         time.Duration `koanf:"timeout"`
	ProgressEvery   int           `koanf:"progress_every"`
	Workers         int           `koanf:"workers"`
	Report          string        `koanf:"report"`
	OutputFormat    string        `koanf:"output"`
	Verbose         bool          `koanf:"verbose"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	APIKey          string        `koanf:"api_key"`
	FailOnError     bool          `koanf:"fail_on_error"`
}

// Default configuration values.
const (
	DefaultPageSize        = 100
	DefaultScrollKeepAlive = "1m"
	DefaultTimeout         = 30 * time.Second
	DefaultProgressEvery   = 1000
	DefaultReport          = ".datatect/report.db"
	DefaultOutput          = "auto" // text, styled only on a TTY
)

var outputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks value ranges shared by every command.
func (c *Config) Validate() error {
	var errs []error
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.ProgressEvery <= 0 {
		errs = append(errs, fmt.Errorf("progress_every must be positive, got %d", c.ProgressEvery))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.ScrollKeepAlive == "" {
		errs = append(errs, errors.New("scroll_keepalive must not be empty"))
	}
	if !slices.Contains(outputFormats, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output must be one of %v, got %q", outputFormats, c.OutputFormat))
	}
	return errors.Join(errs...)
}

var errSchemaRequired = errors.New("schema is required\nHint: pass --schema or set schema in datatect.yaml")

// ValidateSchema checks that a schema file is configured.
func (c *Config) ValidateSchema() error {
	if c.Schema == "" {
		return errSchemaRequired
	}
	return nil
}

// ValidateScan checks the settings the scan command cannot run without.
func (c *Config) ValidateScan() error {
	errs := []error{c.ValidateSchema()}
	if c.Host == "" {
		errs = append(errs, errors.New("host is required\nHint: pass --host or set ES_HOST in the environment or .env"))
	}
	if c.Index == "" {
		errs = append(errs, errors.New("index is required\nHint: pass --index or set ES_INDEX in the environment or .env"))
	}
	return errors.Join(errs...)
}

