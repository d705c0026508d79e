// Package security guards the two places this solver accepts a filesystem
// path from outside the process: the CLI's --input/--output flags
// (internal/platform/cli.solve.go) and a configured SQLite warm-start
// store path (internal/store.NewRepository). Both run every path through
// ValidateFilePath before touching the filesystem.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// shellMetacharacters are rejected outright: none of this solver's path
// inputs should ever legitimately contain one, so their presence is either
// a mistake or an injection attempt.
var shellMetacharacters = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}

// ValidateFilePath rejects a path containing shell metacharacters, cleans
// it, resolves it to absolute, and resolves symlinks if the target exists.
// A nonexistent target (the common case for --output) is not an error.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	for _, char := range shellMetacharacters {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("file path contains forbidden character %q: %s", char, path)
		}
	}

	// Clean the path to remove . and .. components
	cleanPath := filepath.Clean(path)

	// If the path is relative, make it absolute based on current working directory
	if !filepath.IsAbs(cleanPath) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		cleanPath = filepath.Join(cwd, cleanPath)
	}

	// Try to resolve symlinks for existing files
	resolvedPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, return cleaned path
			return cleanPath, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	return resolvedPath, nil
}

// ValidateFilePathInDir is ValidateFilePath plus a containment check: the
// resolved path must fall inside baseDir, so a "../../etc/passwd"-style
// input can't escape a directory the caller intends to confine reads to.
func ValidateFilePathInDir(path, baseDir string) (string, error) {
	if baseDir == "" {
		return "", fmt.Errorf("base directory cannot be empty")
	}

	// First validate the path normally
	cleanPath, err := ValidateFilePath(path)
	if err != nil {
		return "", err
	}

	// Clean and resolve the base directory
	cleanBaseDir := filepath.Clean(baseDir)
	if !filepath.IsAbs(cleanBaseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		cleanBaseDir = filepath.Join(cwd, cleanBaseDir)
	}

	// Resolve symlinks for base dir if it exists
	resolvedBaseDir, err := filepath.EvalSymlinks(cleanBaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve base directory: %w", err)
		}
		resolvedBaseDir = cleanBaseDir
	}

	// Ensure the resolved path is within the base directory
	// Add trailing separator to prevent prefix matching issues (e.g., /foo matching /foobar)
	if !strings.HasPrefix(cleanPath, resolvedBaseDir+string(filepath.Separator)) && cleanPath != resolvedBaseDir {
		return "", fmt.Errorf("file path escapes base directory: %s is not within %s", path, baseDir)
	}

	return cleanPath, nil
}

// SafeReadFile is os.ReadFile preceded by ValidateFilePath.
func SafeReadFile(path string) ([]byte, error) {
	cleanPath, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.ReadFile(cleanPath)
}

// SafeReadFileInDir is os.ReadFile preceded by ValidateFilePathInDir.
func SafeReadFileInDir(path, baseDir string) ([]byte, error) {
	cleanPath, err := ValidateFilePathInDir(path, baseDir)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.ReadFile(cleanPath)
}

// SafeOpen is os.Open preceded by ValidateFilePath. The CLI's --input flag
// handler uses this to open the solve-request JSON file.
func SafeOpen(path string) (*os.File, error) {
	cleanPath, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.Open(cleanPath)
}

// SafeOpenInDir is os.Open preceded by ValidateFilePathInDir.
func SafeOpenInDir(path, baseDir string) (*os.File, error) {
	cleanPath, err := ValidateFilePathInDir(path, baseDir)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.Open(cleanPath)
}
