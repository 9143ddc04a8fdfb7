package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with none of our variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range os.Environ() {
		key, _, _ := strings.Cut(name, "=")
		if envKey(key) != "" {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
	ResetConfig()
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newFlags mirrors the flags the root and scan commands register.
func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("schema", "s", "", "")
	fs.String("host", "", "")
	fs.String("index", "", "")
	fs.Bool("only-errors", false, "")
	fs.Int("page-size", 0, "")
	fs.Duration("timeout", 0, "")
	fs.Int("workers", 0, "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		PageSize:        DefaultPageSize,
		ScrollKeepAlive: DefaultScrollKeepAlive,
		Timeout:         DefaultTimeout,
		ProgressEvery:   DefaultProgressEvery,
		OutputFormat:    DefaultOutput,
	}, cfg)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "datatect.yaml", `
schema: schemas/event.yaml
host: http://es:9200/
index: events
page_size: 500
timeout: 5s
only_errors: true
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "datatect.yaml", GetConfigFileUsed())
	assert.Equal(t, "schemas/event.yaml", cfg.Schema)
	assert.Equal(t, "http://es:9200", cfg.Host, "trailing slash is trimmed")
	assert.Equal(t, "events", cfg.Index)
	assert.Equal(t, 500, cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.OnlyErrors)
	assert.Equal(t, DefaultProgressEvery, cfg.ProgressEvery)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "custom.yml", "index: custom\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Index)
	assert.Equal(t, path, GetConfigFileUsed())

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoadConfig_Precedence(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		dotenv    string
		env       map[string]string
		args      []string
		wantHost  string
		wantIndex string
	}{
		{
			name:      "file only",
			file:      "host: http://file\nindex: file-idx\n",
			wantHost:  "http://file",
			wantIndex: "file-idx",
		},
		{
			name:      "dotenv over file",
			file:      "host: http://file\nindex: file-idx\n",
			dotenv:    "ES_HOST=http://dotenv\n",
			wantHost:  "http://dotenv",
			wantIndex: "file-idx",
		},
		{
			name:      "env over dotenv",
			dotenv:    "ES_HOST=http://dotenv\nES_INDEX=dotenv-idx\n",
			env:       map[string]string{"ES_HOST": "http://env"},
			wantHost:  "http://env",
			wantIndex: "dotenv-idx",
		},
		{
			name:      "prefixed env over ES env",
			env:       map[string]string{"ES_INDEX": "es-idx", "DATATECT_INDEX": "dt-idx"},
			wantIndex: "dt-idx",
		},
		{
			name:      "flag over everything",
			file:      "host: http://file\n",
			dotenv:    "ES_HOST=http://dotenv\n",
			env:       map[string]string{"ES_HOST": "http://env", "ES_INDEX": "env-idx"},
			args:      []string{"--host", "http://flag"},
			wantHost:  "http://flag",
			wantIndex: "env-idx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.file != "" {
				writeFile(t, dir, "datatect.yaml", tt.file)
			}
			if tt.dotenv != "" {
				writeFile(t, dir, DotEnvFile, tt.dotenv)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			flags := newFlags()
			require.NoError(t, flags.Parse(tt.args))

			cfg, err := LoadConfig("", flags)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantIndex, cfg.Index)
		})
	}
}

func TestLoadConfig_UnsetFlagsDoNotOverride(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "datatect.yaml", "page_size: 250\nworkers: 3\n")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"-v"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_TypedValuesFromStrings(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, DotEnvFile, "DATATECT_TIMEOUT=90s\nUNRELATED=1\n")
	t.Setenv("DATATECT_PAGE_SIZE", "25")
	t.Setenv("DATATECT_FAIL_ON_ERROR", "true")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--workers", "2", "--timeout", "2m"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.PageSize)
	assert.True(t, cfg.FailOnError)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{"zero page size", "page_size: 0\n", "page_size must be positive"},
		{"negative workers", "workers: -2\n", "workers must not be negative"},
		{"unknown output", "output: html\n", "output must be one of"},
		{"bad duration", "timeout: soon\n", "unable to decode config"},
		{"bad yaml", "host: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			writeFile(t, dir, "datatect.yaml", tt.file)

			_, err := LoadConfig("", nil)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ValidateScan(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateScan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema is required")
	assert.Contains(t, err.Error(), "ES_HOST")
	assert.Contains(t, err.Error(), "ES_INDEX")

	cfg = &Config{Schema: "s.yaml", Host: "http://es:9200", Index: "docs"}
	assert.NoError(t, cfg.ValidateScan())
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"ES_HOST":            "host",
		"ES_INDEX":           "index",
		"ES_API_KEY":         "api_key",
		"DATATECT_PAGE_SIZE": "page_size",
		"DATATECT_":          "",
		"ES_OTHER":           "",
		"HOME":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
