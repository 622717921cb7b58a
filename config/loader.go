package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/c360studio/docscheck/errs"
)

// ProjectConfigFiles are the file names searched for when no config path
// is given, in order of preference.
var ProjectConfigFiles = []string{"docs-check.yaml", "docs-check.yml", "docs-check.json"}

// Environment variables overriding the file.
const (
	EnvStrict            = "DOCS_CHECK_STRICT"
	EnvStrictEntryPoints = "DOCS_CHECK_STRICT_ENTRY_POINTS"
	EnvWorkers           = "DOCS_CHECK_WORKERS"
)

// EnvFile is read from the config file's directory when present.
const EnvFile = ".env"

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	getenv func(string) (string, bool)
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, getenv: os.LookupEnv}
}

// Load loads configuration with layered precedence:
// 1. The config file at path (searched for from the working directory when empty)
// 2. A .env file next to it
// 3. Process environment variables
//
// The result is validated; every failure is a ConfigError.
func (l *Loader) Load(path string) (Config, error) {
	if path == "" {
		found, err := l.findProjectConfig()
		if err != nil {
			return Config{}, err
		}
		path = found
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, errs.WrapConfig(err, path)
	}

	config, err := LoadFromFile(abs)
	if err != nil {
		return Config{}, err
	}
	l.logger.Debug("Loaded config", slog.String("path", abs))

	env, err := l.environment(filepath.Join(config.Root, EnvFile))
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(config, env); err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return *config, nil
}

// environment returns a lookup over the process environment, falling back
// to the .env file at path. Process variables win, as with godotenv.Load.
func (l *Loader) environment(path string) (func(string) (string, bool), error) {
	fileEnv, err := godotenv.Read(path)
	switch {
	case err == nil:
		l.logger.Debug("Loaded env file", slog.String("path", path))
	case os.IsNotExist(err):
		fileEnv = nil
	default:
		return nil, errs.WrapConfig(fmt.Errorf("failed to read env file: %w", err), path)
	}

	return func(key string) (string, bool) {
		if v, ok := l.getenv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}, nil
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvStrict); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Configf("%s: %q is not a boolean", EnvStrict, v)
		}
		c.Strict = b
	}
	if v, ok := lookup(EnvStrictEntryPoints); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Configf("%s: %q is not a boolean", EnvStrictEntryPoints, v)
		}
		c.StrictEntryPoints = b
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Configf("%s: %q is not an integer", EnvWorkers, v)
		}
		c.Workers = n
	}
	return nil
}

// findProjectConfig searches for a project config file in the current and
// parent directories
func (l *Loader) findProjectConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", errs.WrapConfig(err, ".")
	}

	dir := cwd
	for {
		for _, name := range ProjectConfigFiles {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				l.logger.Debug("Found project config", slog.String("path", configPath))
				return configPath, nil
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", errs.WithHint(errs.Configf("no config file found in %s or its parents", cwd),
		"pass the config path as an argument or run docs-check init")
}
