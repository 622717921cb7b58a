// Package errs defines the error taxonomy shared by the docs-check pipeline.
//
// Every failure the pipeline can raise carries a Kind. Parse failures are
// recoverable and collected into the report; every other kind aborts the run.
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind defines the category of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindPattern
	KindParse
	KindDuplicateSymbol
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindPattern:
		return "PatternError"
	case KindParse:
		return "ParseError"
	case KindDuplicateSymbol:
		return "DuplicateSymbolError"
	default:
		return "Error"
	}
}

// Error is a categorized pipeline error.
type Error struct {
	Kind Kind

	// Path is the offending file or pattern, if any.
	Path string

	// Symbol is the offending qualified name, if any.
	Symbol string

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Symbol != "":
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Path, e.Symbol, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	case e.Symbol != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Configf creates a ConfigError with a formatted message.
func Configf(format string, args ...any) error {
	return &Error{Kind: KindConfig, Err: errors.Newf(format, args...)}
}

// WrapConfig wraps err as a ConfigError about the file at path.
func WrapConfig(err error, path string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindConfig, Path: path, Err: errors.WithStack(err)}
}

// Patternf creates a PatternError for pattern.
func Patternf(pattern, format string, args ...any) error {
	return &Error{Kind: KindPattern, Path: pattern, Err: errors.Newf(format, args...)}
}

// Parse wraps err as a ParseError for the file at path.
func Parse(path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindParse, Path: path, Err: err}
}

// DuplicateSymbol reports a qualified name exported from two places.
func DuplicateSymbol(name, first, second string) error {
	err := errors.Newf("exported from both %s and %s", first, second)
	err = errors.WithHint(err, "rename one declaration or narrow entryPoints so only one file exports it")
	return &Error{Kind: KindDuplicateSymbol, Symbol: name, Err: err}
}

// WithHint attaches operator guidance that the CLI prints below the error.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Err = errors.WithHint(e.Err, hint)
		return &cp
	}
	return errors.WithHint(err, hint)
}

// Hints returns the hints attached anywhere in the error chain.
func Hints(err error) string {
	return errors.FlattenHints(err)
}

// KindOf returns the Kind of the first categorized error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal reports whether err must abort the run. Only parse errors are
// recoverable.
func IsFatal(err error) bool {
	return err != nil && KindOf(err) != KindParse
}
