// Package config loads elmbackup settings from the globals file and the
// environment.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"elmbackup/internal/model"
)

// GlobalsFile is the default name of the shell-style settings file.
const GlobalsFile = "globals.sh"

var (
	// ErrGlobalsNotFound is returned when no globals file can be located and
	// the environment does not carry the required settings either.
	ErrGlobalsNotFound = errors.New("globals.sh file not found")
	// ErrMissingSetting is returned by Validate for empty required settings.
	ErrMissingSetting = errors.New("missing required setting")
)

// Config holds everything a run needs besides the manifest.
type Config struct {
	Bucket     string `env:"ELM_BUCKET"`
	Partition  string `env:"PARTITION"`
	ArchiveBin string `env:"ELMBACKUP_ARCHIVE_BIN" envDefault:"elm_archive"`
	Journal    string `env:"ELMBACKUP_JOURNAL" envDefault:"elmbackup.db"`
	LogLevel   string `env:"ELMBACKUP_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"ELMBACKUP_LOG_FORMAT" envDefault:"text"`

	Remote Remote

	// Source is the globals file the settings were read from, if any.
	Source string
}

// Remote configures the S3-compatible endpoint used for inventory listings.
type Remote struct {
	Endpoint  string `env:"ELM_ENDPOINT"`
	AccessKey string `env:"ELM_ACCESS_KEY"`
	SecretKey string `env:"ELM_SECRET_KEY"`
	Secure    bool   `env:"ELM_SECURE" envDefault:"true"`
}

// Load reads the globals file at path (or searches the default locations when
// path is empty) and overlays the process environment on top of it.
func Load(path string) (*Config, error) {
	environ := environMap(os.Environ())

	source, err := locate(path)
	switch {
	case err == nil:
	case errors.Is(err, ErrGlobalsNotFound) && path == "" && environ["ELM_BUCKET"] != "" && environ["PARTITION"] != "":
		// Environment carries everything the file would.
	default:
		return nil, err
	}

	vars := map[string]string{}
	if source != "" {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open globals: %w", err)
		}
		defer f.Close()
		vars, err = ParseGlobals(f)
		if err != nil {
			return nil, fmt.Errorf("parse globals %s: %w", source, err)
		}
	}
	for k, v := range environ {
		vars[k] = v
	}

	cfg := &Config{Source: source}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings a transfer run cannot do without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("%w: ELM_BUCKET", ErrMissingSetting)
	}
	if strings.TrimSpace(c.Partition) == "" {
		return fmt.Errorf("%w: PARTITION", ErrMissingSetting)
	}
	if strings.TrimSpace(c.ArchiveBin) == "" {
		return fmt.Errorf("%w: ELMBACKUP_ARCHIVE_BIN", ErrMissingSetting)
	}
	return nil
}

// ParseGlobals reads KEY=value lines. Leading "export", surrounding quotes and
// trailing comments are stripped; other lines are ignored.
func ParseGlobals(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		vars[key] = cleanValue(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') {
		if end := strings.IndexByte(v[1:], v[0]); end >= 0 {
			return v[1 : end+1]
		}
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// locate resolves the globals file. An explicit path must exist; otherwise the
// working directory is tried first, then the directory of the executable.
func locate(path string) (string, error) {
	if path != "" {
		path = model.ExpandHome(path)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrGlobalsNotFound, path)
		}
		return path, nil
	}

	candidates := []string{GlobalsFile}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), GlobalsFile))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", ErrGlobalsNotFound
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		// Empty values count as unset so they never blank out the file.
		if k, v, ok := strings.Cut(kv, "="); ok && v != "" {
			m[k] = v
		}
	}
	return m
}

// DefaultFolder names the bucket folder for a backup taken at t, e.g.
// backup-Q3-2026. Backups are rare so quarter granularity is enough.
func DefaultFolder(t time.Time) string {
	quarter := (int(t.Month()) + 2) / 3
	return fmt.Sprintf("backup-Q%d-%d", quarter, t.Year())
}
