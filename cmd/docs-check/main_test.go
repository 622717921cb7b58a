package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project writes files (slash-separated path → content) under a temp dir
// and returns the path of its docs-check.yaml.
func project(t *testing.T, configYAML string, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	configPath := filepath.Join(root, "docs-check.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0644))
	return configPath
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const undocumentedFoo = "export function foo(): void {}\n"

const bufferRef = "/** Copies into a {@link Buffer}. */\nexport function copy(): void {}\n"

func TestCheck_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		source   string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "undocumented function",
			config:   "entryPoints: [./lib/a.*]\nintentionallyNotDocumented: []\n",
			source:   undocumentedFoo,
			wantCode: 1,
			wantOut:  `{"symbol":"foo","reason":"MissingDocumentation"}` + "\n",
		},
		{
			name:     "exempted function",
			config:   "entryPoints: [./lib/a.*]\nintentionallyNotDocumented: [foo]\n",
			source:   undocumentedFoo,
			wantCode: 0,
			wantOut:  "",
		},
		{
			name:     "mapped external link",
			config:   "entryPoints: [./lib/a.*]\nexternalSymbolLinkMappings:\n  Buffer: https://example.org/Buffer\n",
			source:   bufferRef,
			wantCode: 0,
			wantOut:  `{"reference":"Buffer","resolvedURL":"https://example.org/Buffer"}` + "\n",
		},
		{
			name:     "unmapped external link",
			config:   "entryPoints: [./lib/a.*]\nexternalSymbolLinkMappings: {}\n",
			source:   bufferRef,
			wantCode: 0,
			wantOut:  `{"reference":"Buffer","resolvedURL":null}` + "\n",
		},
		{
			name:     "unmapped external link strict flag",
			config:   "entryPoints: [./lib/a.*]\n",
			source:   bufferRef,
			args:     []string{"--strict"},
			wantCode: 1,
			wantOut:  `{"reference":"Buffer","resolvedURL":null}` + "\n",
		},
		{
			name:     "unmapped external link strict config",
			config:   "entryPoints: [./lib/a.*]\nstrict: true\n",
			source:   bufferRef,
			wantCode: 1,
			wantOut:  `{"reference":"Buffer","resolvedURL":null}` + "\n",
		},
		{
			name:     "flag overrides strict config",
			config:   "entryPoints: [./lib/a.*]\nstrict: true\n",
			source:   bufferRef,
			args:     []string{"--strict=false"},
			wantCode: 0,
			wantOut:  `{"reference":"Buffer","resolvedURL":null}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := project(t, tt.config, map[string]string{"lib/a.ts": tt.source})
			args := append([]string{configPath, "--format", "jsonl"}, tt.args...)

			code, out, stderr := runCLI(t, args...)
			assert.Equal(t, tt.wantCode, code, stderr)
			assert.Equal(t, tt.wantOut, out)
		})
	}
}

func TestCheck_FatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		files   map[string]string
		args    []string
		wantErr string
	}{
		{
			name:    "missing entry points",
			config:  "exclude: [x]\n",
			wantErr: "ConfigError",
		},
		{
			name:    "invalid mapping URL",
			config:  "entryPoints: [./lib/**]\nexternalSymbolLinkMappings:\n  Buffer: not a url\n",
			wantErr: "ConfigError",
		},
		{
			name:    "duplicate symbol",
			config:  "entryPoints: [./lib/**]\n",
			files:   map[string]string{"lib/a.ts": undocumentedFoo, "lib/b.ts": undocumentedFoo},
			wantErr: "DuplicateSymbolError",
		},
		{
			name:    "zero match strict",
			config:  "entryPoints: [./missing/**]\n",
			args:    []string{"--strict-entry-points"},
			wantErr: "PatternError",
		},
		{
			name:    "invalid format",
			config:  "entryPoints: [./lib/**]\n",
			args:    []string{"--format", "xml"},
			wantErr: "unknown --format",
		},
		{
			name:    "negative workers",
			config:  "entryPoints: [./lib/**]\n",
			args:    []string{"--workers", "-1"},
			wantErr: "--workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := project(t, tt.config, tt.files)
			code, _, stderr := runCLI(t, append([]string{configPath}, tt.args...)...)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestCheck_PatternErrorListsExtensions(t *testing.T) {
	configPath := project(t, "entryPoints: [./missing/**]\nstrictEntryPoints: true\n", nil)

	code, _, stderr := runCLI(t, configPath)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "PatternError")
	assert.Contains(t, stderr, "hint: supported extensions: ")
	assert.Contains(t, stderr, ".go")
	assert.Contains(t, stderr, ".pyi")
}

func TestCheck_MissingConfigFile(t *testing.T) {
	code, _, stderr := runCLI(t, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "ConfigError")
}

func TestCheck_ParseErrorsAreNotFatal(t *testing.T) {
	configPath := project(t, "entryPoints: [./lib/**]\n", map[string]string{
		"lib/good.ts": "/** Documented. */\nexport function good(): void {}\n",
		"lib/bad.ts":  "export function (((\n",
	})

	code, out, stderr := runCLI(t, configPath)
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Skipped files (1)")
	assert.Contains(t, out, "lib/bad.ts")
	assert.Contains(t, out, "2 files, 1 symbols, 0 undocumented")
}

func TestCheck_TextOutput(t *testing.T) {
	configPath := project(t, "entryPoints: [./lib/a.*]\nintentionallyNotDocumented: [gone]\n",
		map[string]string{"lib/a.ts": undocumentedFoo})

	code, out, _ := runCLI(t, configPath)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Undocumented symbols (1)")
	assert.Contains(t, out, "lib/a.ts:1:1 foo MissingDocumentation (function)")
	assert.Contains(t, out, "Stale exemptions (1)")
}

func TestCheck_ReportAndMetricsFiles(t *testing.T) {
	configPath := project(t, "entryPoints: [./lib/a.*]\n", map[string]string{"lib/a.ts": undocumentedFoo})
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.jsonl")
	metricsPath := filepath.Join(dir, "docs-check.prom")

	code, _, stderr := runCLI(t, configPath, "--report-file", reportPath, "--metrics-file", metricsPath)
	assert.Equal(t, 1, code, stderr)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, `{"symbol":"foo","reason":"MissingDocumentation"}`+"\n", string(data))

	data, err = os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docs_check_coverage_violations 1")
	assert.Contains(t, string(data), `docs_check_symbols{kind="Function"} 1`)
}

func TestCheck_Deterministic(t *testing.T) {
	files := map[string]string{
		"lib/a.ts":    undocumentedFoo + bufferRef,
		"lib/b/c.ts":  "export class Widget {}\n",
		"pkg/x/x.go":  "package x\n\nfunc Run() {}\n",
		"py/mod.py":   "def helper():\n    pass\n",
		"java/A.java": "public class A {\n  public void go() {}\n}\n",
	}
	configPath := project(t, "entryPoints: [./lib/**, ./pkg/**, ./py/**, ./java/**]\n", files)

	_, first, _ := runCLI(t, configPath, "--format", "jsonl", "--workers", "4")
	_, second, _ := runCLI(t, configPath, "--format", "jsonl", "--workers", "1")
	assert.Equal(t, first, second)
	assert.Equal(t, 7, strings.Count(first, "\n"), first)
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "docs-check version "+Version)
	assert.Regexp(t, `(?m)^  go\s+\.go$`, out)
	assert.Regexp(t, `(?m)^  python\s+\.py \.pyi$`, out)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs-check.yaml")

	code, out, stderr := runCLI(t, "init", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Created")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "entryPoints")
	assert.Contains(t, string(data), "./src/**/*.{")
	assert.Contains(t, string(data), "go,")

	code, _, stderr = runCLI(t, "init", path)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "already exists")
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, isConfigFile("docs-check.yaml", "docs-check.yaml"))
	assert.True(t, isConfigFile(".env", "docs-check.yaml"))
	assert.False(t, isConfigFile("lib/docs-check.yaml", "docs-check.yaml"))
}
