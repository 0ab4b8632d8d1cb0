package binpatch

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrInvalidPattern  = errors.New("invalid hex pattern")
	ErrFileAccess      = errors.New("file access failed")
	ErrPatternNotFound = errors.New("search pattern not found")
)

// Error codes returned by ErrorCode.
const (
	CodeInvalidPattern  = "INVALID_PATTERN"
	CodeFileAccess      = "FILE_ACCESS"
	CodePatternNotFound = "PATTERN_NOT_FOUND"
)

// InvalidPatternError reports a malformed hex pattern detected at construction.
type InvalidPatternError struct {
	// Name identifies the pattern ("search" or "replace").
	Name  string
	Value string
	// Position is the zero-based index of the offending character, or -1 when
	// the failure concerns the pattern as a whole (odd length, empty).
	Position int
	Reason   string
}

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	if e == nil {
		return ""
	}
	name := e.Name
	if name == "" {
		name = "hex"
	}
	if e.Position >= 0 {
		return fmt.Sprintf("invalid %s pattern %q: %s at position %d", name, e.Value, e.Reason, e.Position)
	}
	return fmt.Sprintf("invalid %s pattern %q: %s", name, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidPattern.
func (e *InvalidPatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}

// FileAccessError wraps an I/O failure with the operation and path involved.
type FileAccessError struct {
	// Op is one of "read", "backup" or "write".
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileAccessError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s %s failed", e.Op, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the underlying OS error.
func (e *FileAccessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is ErrFileAccess.
func (e *FileAccessError) Is(target error) bool {
	return target == ErrFileAccess
}

// PatternNotFoundError is returned by Patch when the search bytes are absent
// from the content currently held in memory.
type PatternNotFoundError struct {
	Path   string
	Search []byte
}

// Error implements the error interface.
func (e *PatternNotFoundError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return fmt.Sprintf("search pattern %s not found", EncodePattern(e.Search))
	}
	return fmt.Sprintf("search pattern %s not found in %s", EncodePattern(e.Search), e.Path)
}

// Is reports whether target is ErrPatternNotFound.
func (e *PatternNotFoundError) Is(target error) bool {
	return target == ErrPatternNotFound
}

// ErrorCode maps an error returned by this package to a stable code. It
// returns an empty string for nil and for errors of unknown origin.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPattern):
		return CodeInvalidPattern
	case errors.Is(err, ErrPatternNotFound):
		return CodePatternNotFound
	case errors.Is(err, ErrFileAccess):
		return CodeFileAccess
	default:
		return ""
	}
}

// FormatError renders a human readable, multi-line report for err.
func FormatError(err error) string {
	if err == nil {
		return "Unknown error occurred."
	}

	var (
		invalid  *InvalidPatternError
		access   *FileAccessError
		notFound *PatternNotFoundError
	)
	switch {
	case errors.As(err, &invalid):
		parts := []string{err.Error()}
		if invalid.Position >= 0 && invalid.Position < len(invalid.Value) {
			parts = append(parts, "", "  "+invalid.Value, "  "+strings.Repeat(" ", invalid.Position)+"^")
		}
		parts = append(parts, "", "Patterns are even-length hex strings without prefix or separators, e.g. AB00FF14.")
		return strings.Join(parts, "\n")
	case errors.As(err, &notFound):
		parts := []string{err.Error(), "", "Search bytes: " + formatHexGroups(notFound.Search)}
		parts = append(parts, "The file was not modified.")
		return strings.Join(parts, "\n")
	case errors.As(err, &access):
		parts := []string{err.Error()}
		if access.Op == opWrite {
			parts = append(parts, "", "The target file was left unchanged.")
		}
		return strings.Join(parts, "\n")
	default:
		return err.Error()
	}
}

func formatHexGroups(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	groups := make([]string, len(data))
	for i, b := range data {
		groups[i] = EncodePattern([]byte{b})
	}
	return strings.Join(groups, " ")
}
