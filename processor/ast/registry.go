package ast

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileParser extracts exported symbols from one source file.
// Implementations are not required to be safe for concurrent use; the
// registry hands out a fresh parser per call.
type FileParser interface {
	ParseFile(ctx context.Context, file *SourceFile) (*ParseResult, error)
}

// ParserFactory creates a FileParser for a specific language.
type ParserFactory func() FileParser

// ParserRegistry maintains a registry of language parsers.
// Parsers are registered by name with their supported file extensions.
// Thread-safe for concurrent access.
type ParserRegistry struct {
	mu      sync.RWMutex
	parsers map[string]ParserFactory // name → factory
	extMap  map[string]string        // extension → parser name
}

// NewParserRegistry creates a new empty parser registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		parsers: make(map[string]ParserFactory),
		extMap:  make(map[string]string),
	}
}

// Register adds a parser factory for the given extensions.
// The first registration wins if there's an extension conflict.
// Extensions should include the leading dot (e.g., ".go", ".ts").
func (r *ParserRegistry) Register(name string, extensions []string, factory ParserFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers[name] = factory

	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if _, exists := r.extMap[ext]; !exists {
			r.extMap[ext] = name
		}
	}
}

// GetParserName returns the parser name registered for a file extension.
func (r *ParserRegistry) GetParserName(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.extMap[strings.ToLower(ext)]
	return name, ok
}

// CreateParser instantiates a parser by name.
func (r *ParserRegistry) CreateParser(name string) (FileParser, error) {
	r.mu.RLock()
	factory, ok := r.parsers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("parser not registered: %s", name)
	}

	return factory(), nil
}

// Supports reports whether a parser is registered for the file's extension.
func (r *ParserRegistry) Supports(path string) bool {
	_, ok := r.GetParserName(filepath.Ext(path))
	return ok
}

// ListParsers returns all registered parser names, sorted.
func (r *ParserRegistry) ListParsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListExtensions returns all registered file extensions, sorted.
func (r *ParserRegistry) ListExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.extMap))
	for ext := range r.extMap {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// GetExtensionsForParser returns all extensions mapped to a parser name, sorted.
func (r *ParserRegistry) GetExtensionsForParser(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var extensions []string
	for ext, parserName := range r.extMap {
		if parserName == name {
			extensions = append(extensions, ext)
		}
	}
	sort.Strings(extensions)
	return extensions
}

// HasParser returns true if a parser with the given name is registered.
func (r *ParserRegistry) HasParser(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.parsers[name]
	return ok
}

// DefaultRegistry is the global parser registry.
// Language parsers register themselves via init() functions.
var DefaultRegistry = NewParserRegistry()
