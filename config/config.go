// Package config provides configuration loading and validation for docs-check.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/idna"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/docscheck/errs"
	"github.com/c360studio/docscheck/processor/ast"
)

// Config is the declarative docs-check configuration. Once loaded it is
// passed by value and never modified.
type Config struct {
	// EntryPoints are globs naming the source files to check
	EntryPoints []string `yaml:"entryPoints" json:"entryPoints"`

	// Exclude globs drop files matched by EntryPoints
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	// IntentionallyNotDocumented lists symbols exempt from the coverage check
	IntentionallyNotDocumented []string `yaml:"intentionallyNotDocumented,omitempty" json:"intentionallyNotDocumented,omitempty"`

	// ExternalSymbolLinkMappings maps identifiers to URLs or URL templates
	ExternalSymbolLinkMappings LinkMappings `yaml:"externalSymbolLinkMappings,omitempty" json:"externalSymbolLinkMappings,omitempty"`

	// RequiredToBeDocumented limits the check to these declaration kinds
	// (empty = all)
	RequiredToBeDocumented []string `yaml:"requiredToBeDocumented,omitempty" json:"requiredToBeDocumented,omitempty"`

	// Strict makes unresolved external links fail the run
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	// StrictEntryPoints makes entry points matching no file an error
	StrictEntryPoints bool `yaml:"strictEntryPoints,omitempty" json:"strictEntryPoints,omitempty"`

	// Workers bounds parser goroutines (0 = one per CPU)
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// Path is the config file the values were loaded from
	Path string `yaml:"-" json:"-"`

	// Root is the directory relative patterns resolve against. It is the
	// config file's directory and is never read from the file itself.
	Root string `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config with sensible defaults. When extensions
// (".go", ".ts", ...) are given the entry point matches only those files
// under ./src.
func DefaultConfig(extensions ...string) *Config {
	return &Config{
		EntryPoints: []string{defaultEntryPoint(extensions)},
		Exclude: []string{
			"**/node_modules/**",
			"**/vendor/**",
		},
		ExternalSymbolLinkMappings: LinkMappings{},
	}
}

func defaultEntryPoint(extensions []string) string {
	names := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if ext = strings.TrimPrefix(ext, "."); ext != "" {
			names = append(names, ext)
		}
	}
	switch len(names) {
	case 0:
		return "./src/**"
	case 1:
		return "./src/**/*." + names[0]
	default:
		return "./src/**/*.{" + strings.Join(names, ",") + "}"
	}
}

// Validate checks that the configuration is valid. Every failure is a
// ConfigError.
func (c *Config) Validate() error {
	if len(c.EntryPoints) == 0 {
		return errs.WithHint(errs.Configf("entryPoints is required"),
			`add at least one glob, e.g. entryPoints: ["./src/**/*.ts"]`)
	}
	for _, p := range c.EntryPoints {
		if !validGlob(p) {
			return errs.Configf("entryPoints: invalid glob %q", p)
		}
	}
	for _, p := range c.Exclude {
		if !validGlob(p) {
			return errs.Configf("exclude: invalid glob %q", p)
		}
	}

	seen := make(map[string]bool, len(c.IntentionallyNotDocumented))
	for _, name := range c.IntentionallyNotDocumented {
		if strings.TrimSpace(name) == "" {
			return errs.Configf("intentionallyNotDocumented: empty symbol name")
		}
		if seen[name] {
			return errs.Configf("intentionallyNotDocumented: %q listed twice", name)
		}
		seen[name] = true
	}

	for key, target := range c.ExternalSymbolLinkMappings {
		if key == "" {
			return errs.Configf("externalSymbolLinkMappings: empty identifier")
		}
		if err := validateLinkTarget(target); err != nil {
			return errs.Configf("externalSymbolLinkMappings[%q]: %v", key, err)
		}
	}

	if _, err := c.RequiredKinds(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errs.Configf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Exemptions returns IntentionallyNotDocumented as a set.
func (c Config) Exemptions() map[string]struct{} {
	set := make(map[string]struct{}, len(c.IntentionallyNotDocumented))
	for _, name := range c.IntentionallyNotDocumented {
		set[name] = struct{}{}
	}
	return set
}

// RequiredKinds parses RequiredToBeDocumented. Nil means every kind.
func (c Config) RequiredKinds() ([]ast.DeclarationKind, error) {
	var kinds []ast.DeclarationKind
	for _, name := range c.RequiredToBeDocumented {
		k, err := ast.ParseKind(name)
		if err != nil {
			return nil, errs.WithHint(errs.Configf("requiredToBeDocumented: %v", err),
				"valid kinds: "+kindNames())
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func kindNames() string {
	var names []string
	for _, k := range ast.AllKinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}

func validGlob(pattern string) bool {
	p := strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(pattern)), "./")
	return p != "" && doublestar.ValidatePattern(p)
}

// validateLinkTarget checks that target is an absolute http(s) URL with a
// valid host. A {name} placeholder is allowed anywhere.
func validateLinkTarget(target string) error {
	u, err := url.Parse(strings.ReplaceAll(target, "{name}", "x"))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http or https URL", target)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%q has no host", target)
	}
	if _, err := idna.Lookup.ToASCII(host); err != nil {
		return fmt.Errorf("%q has an invalid host: %v", target, err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file. Files ending in
// .json are decoded as JSON. Unknown keys are rejected.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapConfig(fmt.Errorf("failed to read config file: %w", err), path)
	}

	config := &Config{}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(config); err != nil {
			return nil, errs.WrapConfig(fmt.Errorf("failed to parse config file: %w", err), path)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty file decodes to io.EOF and leaves the zero config
		if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, errs.WrapConfig(fmt.Errorf("failed to parse config file: %w", err), path)
		}
	}

	config.Path = path
	config.Root = filepath.Dir(path)
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
