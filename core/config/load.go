package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs loads the configuration from a directory of fsys.
func LoadFs(fsys afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	configFs := afero.NewBasePathFs(fsys, path)
	configContents, err := afero.ReadFile(configFs, ConfigurationName)
	if err != nil {
		return nil, err
	}

	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(path, ConfigurationName), err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(path, ConfigurationName), err)
	}
	out.configFs = configFs
	return &out, nil
}

// LoadOrDefault loads the configuration from the directory, falling back to
// the built-in configuration if the directory has none. Files the default
// configuration writes still go to the directory if it exists.
func LoadOrDefault(path string, logger *log.Logger) (*Configuration, error) {
	cfg, err := Load(path)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, fs.ErrNotExist):
		logger.Printf("No configuration in %q, using defaults. Run init to create one.\n", path)
	default:
		return nil, err
	}

	cfg = Default()
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}
	if path, err = filepath.Abs(path); err != nil {
		return nil, err
	}
	if info, statErr := afero.NewOsFs().Stat(path); statErr == nil && info.IsDir() {
		cfg.configFs = afero.NewBasePathFs(afero.NewOsFs(), path)
	}
	return cfg, nil
}
