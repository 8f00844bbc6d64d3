// Package pathsafe validates user-supplied filesystem paths before the
// Directory Scanner touches them. It rejects traversal sequences, absolute
// paths embedded in otherwise-relative input, null bytes, Windows-reserved
// device names, and symbolic links.
package pathsafe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// reservedWindowsNames are device names Windows treats specially regardless
// of extension (CON.txt is still the console device).
var reservedWindowsNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// ValidateName checks a single path component (a file or directory name, not
// a full path) for traversal and reserved-name hazards. It does not touch
// the filesystem.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("pathsafe: empty name")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("pathsafe: %q contains a null byte", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("pathsafe: %q contains a traversal sequence", name)
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("pathsafe: %q is an absolute path", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("pathsafe: %q contains a path separator", name)
	}
	base := strings.ToUpper(strings.TrimSuffix(name, filepath.Ext(name)))
	if reservedWindowsNames[base] {
		return fmt.Errorf("pathsafe: %q is a reserved device name", name)
	}
	return nil
}

// ValidateDir checks that directory exists, is a directory, and is not
// itself a symlink. It does not descend into the directory.
func ValidateDir(directory string) error {
	if directory == "" {
		return fmt.Errorf("pathsafe: empty directory path")
	}
	if strings.ContainsRune(directory, 0) {
		return fmt.Errorf("pathsafe: directory path contains a null byte")
	}
	info, err := os.Lstat(directory)
	if err != nil {
		return fmt.Errorf("pathsafe: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("pathsafe: %q is a symlink, refusing to follow", directory)
	}
	if !info.IsDir() {
		return fmt.Errorf("pathsafe: %q is not a directory", directory)
	}
	return nil
}

// SafeJoin validates name and joins it onto directory, rejecting any entry
// that is itself a symlink (evaluated after the join, since a non-symlink
// name can still point at a symlink target on disk).
func SafeJoin(directory, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	full := filepath.Join(directory, name)
	if !strings.HasPrefix(full, filepath.Clean(directory)+string(filepath.Separator)) {
		return "", fmt.Errorf("pathsafe: %q escapes %q", name, directory)
	}
	info, err := os.Lstat(full)
	if err != nil {
		return "", fmt.Errorf("pathsafe: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("pathsafe: %q is a symlink, refusing to follow", full)
	}
	return full, nil
}
