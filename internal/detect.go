package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnvVar overrides the data directory when set
const HomeEnvVar = "CONTEXT_CAPTURE_HOME"

// StoragePaths holds the detected paths for local state
type StoragePaths struct {
	BasePath  string // ~/.context-capture unless overridden
	StorePath string // sqlite key-value store
	LogPath   string // popup log file
}

// DetectStoragePaths resolves the data directory and the files inside it
func DetectStoragePaths() (StoragePaths, error) {
	basePath := os.Getenv(HomeEnvVar)
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return StoragePaths{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		basePath = filepath.Join(home, ".context-capture")
	}

	return StoragePaths{
		BasePath:  basePath,
		StorePath: filepath.Join(basePath, "store.db"),
		LogPath:   filepath.Join(basePath, "popup.log"),
	}, nil
}

// StoreExists checks if the key-value store has been created
func (sp StoragePaths) StoreExists() bool {
	_, err := os.Stat(sp.StorePath)
	return err == nil
}

// EnsureBase creates the data directory
func (sp StoragePaths) EnsureBase() error {
	if err := os.MkdirAll(sp.BasePath, 0755); err != nil {
		return &StorageError{Path: sp.BasePath, Op: "mkdir", Err: err}
	}
	return nil
}
