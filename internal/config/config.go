// Package config loads server settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v2"
)

const (
	defaultPort     = "3000"
	defaultDataDir  = "data"
	defaultSecret   = "frc-qn-secret-key-2025"
	defaultUsername = "frcqn"
	defaultPassword = "00000000"
)

type Admin struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

type Config struct {
	Port    string `yaml:"port"`
	DataDir string `yaml:"data_dir"`
	Secret  string `yaml:"secret"`
	Admin   Admin  `yaml:"admin"`
}

// Load reads the YAML file at path when it exists, then applies env
// overrides (PORT, DATA_DIR, SECRET_KEY, ADMIN_USERNAME,
// ADMIN_PASSWORD_HASH) and fills remaining gaps with defaults. When no
// password hash is configured at all, the default password is hashed at
// startup and a warning is logged.
func Load(path string, logger *logrus.Logger) (*Config, error) {
	if logger == nil {
		logger = logrus.New()
	}
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	override(&cfg.Port, "PORT")
	override(&cfg.DataDir, "DATA_DIR")
	override(&cfg.Secret, "SECRET_KEY")
	override(&cfg.Admin.Username, "ADMIN_USERNAME")
	override(&cfg.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	if cfg.Secret == "" {
		cfg.Secret = defaultSecret
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = defaultUsername
	}
	if cfg.Admin.PasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash default password: %w", err)
		}
		cfg.Admin.PasswordHash = string(hash)
		logger.Warn("no admin password hash configured, using the default password")
	}
	return cfg, nil
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
