package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/n0remac/robotraj/config"
)

// fileConfig is the on-disk shape of a trajctl config file, mirroring
// config.Config's fields.
type fileConfig struct {
	CacheDir  string `yaml:"cache_dir"`
	Lossy     bool   `yaml:"lossy"`
	Separator string `yaml:"separator"`
}

// loadConfig reads a YAML config file when path is non-empty, then applies
// flag overrides: a non-empty cacheDirFlag replaces the file's cache_dir,
// and a true lossyFlag turns lossy on. A false lossyFlag leaves the file's
// lossy setting as it is.
func loadConfig(path, cacheDirFlag string, lossyFlag bool) (config.Config, error) {
	var fc fileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return config.Config{}, err
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return config.Config{}, err
		}
	}
	if cacheDirFlag != "" {
		fc.CacheDir = cacheDirFlag
	}
	if lossyFlag {
		fc.Lossy = true
	}
	return config.Config{
		CacheDir:  fc.CacheDir,
		Lossy:     fc.Lossy,
		Separator: fc.Separator,
	}.WithDefaults(), nil
}
