// Package config loads YAML configuration files with environment overrides.
//
// Before overrides are applied, .env files are loaded in priority order:
//
//  1. the file named by ENV_FILE (if set, only this file)
//  2. .env.local
//  3. .env
//
// Struct fields opt into overrides with an `env:"NAME"` tag:
//
//	type CacheConfig struct {
//	    Backend string        `yaml:"backend" env:"CACHE_BACKEND"`
//	    TTL     time.Duration `yaml:"ttl"     env:"CACHE_TTL"`
//	}
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path into a T and applies env overrides.
// A missing file yields the zero T so a service can run from the
// environment alone.
func Load[T any](path string) (*T, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := new(T)
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults runs setDefaults between two override passes, so an
// environment variable beats both the file and the default.
func LoadWithDefaults[T any](path string, setDefaults func(*T)) (*T, error) {
	cfg, err := Load[T](path)
	if err != nil {
		return nil, err
	}
	if setDefaults == nil {
		return cfg, nil
	}

	setDefaults(cfg)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns CONFIG_PATH when set, otherwise defaultPath.
func GetConfigPath(defaultPath string) string {
	if path, ok := os.LookupEnv("CONFIG_PATH"); ok && path != "" {
		return path
	}
	return defaultPath
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv never overrides variables already present in the process
// environment, so earlier files take precedence over later ones.
func loadDotEnv() error {
	files := []string{".env.local", ".env"}
	if explicit := os.Getenv("ENV_FILE"); explicit != "" {
		files = []string{explicit}
	}

	for _, name := range files {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", name, err)
		}
	}
	return nil
}
