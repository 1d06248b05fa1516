// Package config loads taskboard settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// Config holds server and client settings. Both binaries read the same file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Session  SessionConfig  `yaml:"session"`
	Users    []models.User  `yaml:"users"`
	Logging  LoggingConfig  `yaml:"logging"`
	Client   ClientConfig   `yaml:"client"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	TLSCert         string        `yaml:"tls_cert"`
	TLSKey          string        `yaml:"tls_key"`
	AllowedOrigin   string        `yaml:"allowed_origin"`
	StaticDir       string        `yaml:"static_dir"`
	PrivatePage     string        `yaml:"private_page"`
	Debug           bool          `yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type UpstreamConfig struct {
	BaseURL string `yaml:"base_url"`
}

type SessionConfig struct {
	KeyFile string        `yaml:"key_file"`
	Name    string        `yaml:"name"`
	MaxAge  time.Duration `yaml:"max_age"`
	Secure  bool          `yaml:"secure"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

type ClientConfig struct {
	ServerURL       string        `yaml:"server_url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	DataDir         string        `yaml:"data_dir"`
	CacheFile       string        `yaml:"cache_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			AllowedOrigin:   "http://localhost:3000",
			StaticDir:       "public",
			PrivatePage:     "private.html",
			ShutdownTimeout: 10 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:5678",
		},
		Session: SessionConfig{
			KeyFile: "session.key",
			Name:    "taskboard",
			MaxAge:  24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
		Client: ClientConfig{
			ServerURL:       "http://localhost:3000",
			RefreshInterval: 60 * time.Second,
			DataDir:         utils.GetDataDir(),
		},
	}
}

// Load reads path over the defaults and applies TASKBOARD_* overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if v := os.Getenv("TASKBOARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TASKBOARD_ALLOWED_ORIGIN"); v != "" {
		c.Server.AllowedOrigin = v
	}
	if v := os.Getenv("TASKBOARD_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("TASKBOARD_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TASKBOARD_DEBUG: %w", err)
		}
		c.Server.Debug = b
	}
	if v := os.Getenv("TASKBOARD_UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("TASKBOARD_SESSION_KEY_FILE"); v != "" {
		c.Session.KeyFile = v
	}
	if v := os.Getenv("TASKBOARD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TASKBOARD_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("TASKBOARD_SERVER_URL"); v != "" {
		c.Client.ServerURL = v
	}
	if v := os.Getenv("TASKBOARD_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TASKBOARD_REFRESH_INTERVAL: %w", err)
		}
		c.Client.RefreshInterval = d
	}
	if v := os.Getenv("TASKBOARD_DATA_DIR"); v != "" {
		c.Client.DataDir = v
	}
	return nil
}

// Validate checks values both binaries depend on.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		errs = append(errs, errors.New("server.tls_cert and server.tls_key must be set together"))
	}
	if err := checkURL("upstream.base_url", c.Upstream.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if err := checkURL("client.server_url", c.Client.ServerURL); err != nil {
		errs = append(errs, err)
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("session.max_age must be positive"))
	}
	if c.Client.RefreshInterval < time.Second {
		errs = append(errs, errors.New("client.refresh_interval must be at least 1s"))
	}
	for i, u := range c.Users {
		if u.Email == "" || !strings.HasPrefix(u.PasswordHash, "$2") {
			errs = append(errs, fmt.Errorf("users[%d]: email and bcrypt password_hash are required", i))
		}
	}
	return errors.Join(errs...)
}

func checkURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	return nil
}
