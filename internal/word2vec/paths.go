package word2vec

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	defaultCacheDirName  = "labelkit"
	defaultVectorDirName = "vectors"
)

var vectorIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateVectorID rejects vector set IDs that could escape the cache dir.
func ValidateVectorID(id string) error {
	if !vectorIDPattern.MatchString(id) {
		return fmt.Errorf("invalid vector ID %q", id)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("invalid vector ID %q", id)
	}
	return nil
}

// ResolveCacheDir returns the cache directory for vector assets.
func ResolveCacheDir(cacheDir string) (string, error) {
	if strings.TrimSpace(cacheDir) != "" {
		return expandUser(cacheDir)
	}
	base, err := os.UserCacheDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("failed to resolve cache dir: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, defaultCacheDirName), nil
}

// VectorDir returns the directory for the given vector set ID.
func VectorDir(cacheDir, vectorID string) (string, error) {
	if err := ValidateVectorID(vectorID); err != nil {
		return "", err
	}
	root := filepath.Join(cacheDir, defaultVectorDirName)
	dir := filepath.Join(root, vectorID)
	if err := ensureUnderRoot(root, dir); err != nil {
		return "", err
	}
	return dir, nil
}

func ensureUnderRoot(root, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %s escapes %s", path, root)
	}
	return nil
}

func expandUser(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	if trimmed == "~" {
		return home, nil
	}
	if strings.HasPrefix(trimmed, "~/") {
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Join(home, trimmed[1:]), nil
}
