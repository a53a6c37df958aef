package model

import (
	"os"
	"path/filepath"
)

// defaultCacheDir returns ~/.clausewise/cache, or a temp dir when no home exists
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "clausewise-cache")
	}
	return filepath.Join(home, ".clausewise", "cache")
}
