// Package config loads pdk config from YAML. Env overrides take precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// S3 holds the S3 host backend settings.
type S3 struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	PathStyle    bool   `yaml:"path_style"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	SessionToken string `yaml:"session_token"`
}

// Config holds the resolved editor settings. Paths use XDG defaults when
// not in the file.
type Config struct {
	Host       string `yaml:"host"` // folder | s3 | sqlite
	FolderDir  string `yaml:"folder_dir"`
	DbPath     string `yaml:"db_path"`
	S3         S3     `yaml:"s3"`
	EncryptKey string `yaml:"encrypt_key"` // hex, 32 bytes; empty disables
}

type rawConfig struct {
	Host       string `yaml:"host"`
	FolderDir  string `yaml:"folder_dir"`
	DbPath     string `yaml:"db_path"`
	S3         S3     `yaml:"s3"`
	EncryptKey string `yaml:"encrypt_key"`
}

// Load reads config from XDG_CONFIG_HOME/pdk/config.yaml. Missing file uses
// defaults. Env overrides: PDK_HOST, PDK_FOLDER_DIR, PDK_DB_PATH.
func Load() (*Config, error) {
	dataHome := xdgDataHome()
	configHome := xdgConfigHome()
	path := filepath.Join(configHome, "pdk", "config.yaml")

	c := &Config{
		Host:      "folder",
		FolderDir: filepath.Join(dataHome, "pdk", "host"),
		DbPath:    filepath.Join(dataHome, "pdk", "pdk.db"),
	}

	b, err := os.ReadFile(path)
	if err == nil {
		var raw rawConfig
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
		if raw.Host != "" {
			c.Host = raw.Host
		}
		if raw.FolderDir != "" {
			c.FolderDir = resolvePath(raw.FolderDir, dataHome)
		}
		if raw.DbPath != "" {
			c.DbPath = resolvePath(raw.DbPath, dataHome)
		}
		c.S3 = raw.S3
		c.EncryptKey = raw.EncryptKey
	}

	// Env overrides
	if v := os.Getenv("PDK_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PDK_FOLDER_DIR"); v != "" {
		c.FolderDir = v
	}
	if v := os.Getenv("PDK_DB_PATH"); v != "" {
		c.DbPath = v
	}

	switch c.Host {
	case "folder", "s3", "sqlite":
	default:
		return nil, fmt.Errorf("unknown host backend %q", c.Host)
	}
	return c, nil
}

func xdgDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share")
}

func xdgConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// resolvePath expands $XDG_DATA_HOME, $HOME in paths from config file.
func resolvePath(p, dataHome string) string {
	return filepath.Clean(os.Expand(p, func(key string) string {
		if key == "XDG_DATA_HOME" {
			return dataHome
		}
		if key == "XDG_CONFIG_HOME" {
			return xdgConfigHome()
		}
		if key == "HOME" {
			home, _ := os.UserHomeDir()
			return home
		}
		return ""
	}))
}
