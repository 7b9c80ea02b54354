package filesystem

import "path/filepath"

// Canonical returns path as an absolute, cleaned path with symlinks resolved
// when they can be. Different spellings of one file give the same result.
// When resolution fails, the absolute form is returned.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
