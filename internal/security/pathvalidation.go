// Package security guards the file names derived from user input, such as
// module names, so outputs cannot escape the chosen output directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path resolves outside its base directory.
var ErrPathEscape = errors.New("path escapes output directory")

// canonical resolves symlinks in path, or in its deepest existing parent when
// path itself does not exist yet.
func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	check := path
	for {
		parent := filepath.Dir(check)
		if parent == check {
			return path
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, _ := filepath.Rel(parent, path)
			return filepath.Join(resolved, rel)
		}
		check = parent
	}
}

// ValidatePathWithinDirectory checks that filePath stays inside baseDir after
// cleaning and symlink resolution. baseDir need not exist yet.
func ValidatePathWithinDirectory(filePath, baseDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}

	rel, err := filepath.Rel(canonical(absBase), canonical(absPath))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathEscape, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscape, filePath, baseDir)
	}
	return nil
}

// OutputPath joins sanitized name components under baseDir and verifies the
// result stays within it.
func OutputPath(baseDir string, parts ...string) (string, error) {
	elems := make([]string, 0, len(parts)+1)
	elems = append(elems, baseDir)
	for _, p := range parts {
		elems = append(elems, SanitizeFilename(p))
	}
	path := filepath.Join(elems...)
	if err := ValidatePathWithinDirectory(path, baseDir); err != nil {
		return "", err
	}
	return path, nil
}

// EnsureOutputDir creates baseDir/sub (sanitized) and returns its path.
func EnsureOutputDir(baseDir, sub string) (string, error) {
	dir, err := OutputPath(baseDir, sub)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return dir, nil
}

// SanitizeFilename replaces every character other than ASCII letters,
// digits, dot, underscore and dash with an underscore, collapses runs of
// underscores, trims leading dots and underscores, and caps the length.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
