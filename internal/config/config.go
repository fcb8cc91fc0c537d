package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
	"github.com/go-playground/validator/v10"
)

type http struct {
	Address     string   `koanf:"address"      validate:"required,hostname_port"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`
}

type repoConfig struct {
	Path          string `koanf:"path"           validate:"required"`
	RemoteURL     string `koanf:"remote_url"`
	RemoteName    string `koanf:"remote_name"    validate:"required"`
	Branch        string `koanf:"branch"`
	MonitoredFile string `koanf:"monitored_file" validate:"required,excludesall=/\\"`
}

type identityConfig struct {
	Name  string `koanf:"name"  validate:"required"`
	Email string `koanf:"email" validate:"required,email"`
}

type gitSSHAuthConfig struct {
	PrivateKey string `koanf:"private_key" validate:"omitempty,file"`
	Passphrase string `koanf:"passphrase"`
}

type gitHTTPSAuthConfig struct {
	Username string `koanf:"username"`
	Token    string `koanf:"token"`
}

type gitAuthConfig struct {
	SSH   gitSSHAuthConfig   `koanf:"ssh"`
	HTTPS gitHTTPSAuthConfig `koanf:"https"`
}

type gitConfig struct {
	Binary  string        `koanf:"binary"  validate:"required"`
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
	Auth    gitAuthConfig `koanf:"auth"`
}

type syncConfig struct {
	TriggerPolicy string        `koanf:"trigger_policy" validate:"oneof=coalesce ignore"`
	Interval      time.Duration `koanf:"interval"       validate:"min=0"`
	OnStart       bool          `koanf:"on_start"`
	HistoryLimit  int           `koanf:"history_limit"  validate:"min=0"`
}

type storageConfig struct {
	DataDir  string `koanf:"data_dir"  validate:"required_unless=InMemory true"`
	InMemory bool   `koanf:"in_memory"`
}

type logConfig struct {
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"  validate:"min=0"`
	MaxBackups int    `koanf:"max_backups"  validate:"min=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"min=0"`
	Compress   bool   `koanf:"compress"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Repo     repoConfig     `koanf:"repo"`
	Identity identityConfig `koanf:"identity"`
	Git      gitConfig      `koanf:"git"`
	Sync     syncConfig     `koanf:"sync"`
	Storage  storageConfig  `koanf:"storage"`
	Log      logConfig      `koanf:"log"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Address:     "127.0.0.1:8787",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Repo: repoConfig{
			Path:          "./repo",
			RemoteName:    "origin",
			MonitoredFile: "documento_teste.txt",
		},

		Identity: identityConfig{
			Name:  "GitHub Sync Bot",
			Email: "bot@example.com",
		},

		Git: gitConfig{
			Binary:  "git",
			Timeout: 60 * time.Second,
		},

		Sync: syncConfig{
			TriggerPolicy: "coalesce",
			HistoryLimit:  20,
		},

		Storage: storageConfig{
			DataDir: "./data",
		},

		Log: logConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func New(validate *validator.Validate) (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
