package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes the default configuration to dir, creating it if needed.
// An existing configuration is left alone.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	return InitializeFs(afero.NewOsFs(), dir, logger)
}

// InitializeFs is Initialize on an arbitrary filesystem.
func InitializeFs(fsys afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := fsys.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("couldn't create configuration directory: %w", err)
	}

	configFs := afero.NewBasePathFs(fsys, dir)
	switch exists, err := afero.Exists(configFs, ConfigurationName); {
	case err != nil:
		return nil, err
	case exists:
		logger.Printf("Configuration already exists in %q, not overwriting.\n", dir)
	default:
		logger.Printf("Writing %s to %q\n", ConfigurationName, dir)
		if err := afero.WriteFile(configFs, ConfigurationName, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	// The event log is private to the user.
	if _, err := configFs.Stat(EventLogName); os.IsNotExist(err) {
		fd, err := configFs.OpenFile(EventLogName, os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, err
		}
		fd.Close()
	}

	return LoadFs(fsys, dir)
}
