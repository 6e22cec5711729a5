// Package config loads server and CLI settings from .env, an optional
// config.yaml, and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeMock     = "mock"

	StorageMemory    = "memory"
	StorageRedis     = "redis"
	StorageFirestore = "firestore"
)

type Config struct {
	App struct {
		Port      string `mapstructure:"port"`
		ProjectID string `mapstructure:"project_id"`
	} `mapstructure:"app"`
	Auth struct {
		Mode string `mapstructure:"mode"`
	} `mapstructure:"auth"`
	Firebase struct {
		Credentials string `mapstructure:"credentials"`
	} `mapstructure:"firebase"`
	Storage struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"storage"`
	Redis struct {
		URL      string `mapstructure:"url"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	GitHub struct {
		BaseURL string `mapstructure:"base_url"`
		Mock    bool   `mapstructure:"mock"`
		Token   string `mapstructure:"token"`
	} `mapstructure:"github"`
	Deploy struct {
		VercelToken string `mapstructure:"vercel_token"`
		BaseURL     string `mapstructure:"base_url"`
	} `mapstructure:"deploy"`
	Publish struct {
		BlobConcurrency int `mapstructure:"blob_concurrency"`
	} `mapstructure:"publish"`
}

var envBindings = map[string][]string{
	"app.port":                 {"PORT", "APP_PORT"},
	"app.project_id":           {"FIREBASE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"},
	"auth.mode":                {"AUTH_MODE"},
	"firebase.credentials":     {"GOOGLE_APPLICATION_CREDENTIALS"},
	"storage.backend":          {"STORAGE_BACKEND"},
	"redis.url":                {"REDIS_URL"},
	"redis.addr":               {"REDIS_ADDR"},
	"redis.password":           {"REDIS_PASSWORD"},
	"github.base_url":          {"GITHUB_BASE_URL"},
	"github.mock":              {"GITHUB_MOCK"},
	"github.token":             {"GITHUB_TOKEN"},
	"deploy.vercel_token":      {"VERCEL_TOKEN"},
	"deploy.base_url":          {"VERCEL_BASE_URL"},
	"publish.blob_concurrency": {"PUBLISH_BLOB_CONCURRENCY"},
}

// Load reads configuration. dir is searched for config.yaml; an empty dir
// means the working directory. Missing .env and config.yaml are not errors.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	_ = godotenv.Load(dir + "/.env")

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.project_id", "demo-portfolio")
	v.SetDefault("auth.mode", AuthModeFirebase)
	v.SetDefault("storage.backend", StorageMemory)
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("deploy.base_url", "https://api.vercel.com")
	v.SetDefault("publish.blob_concurrency", 4)
}

func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeFirebase, AuthModeMock:
	default:
		return fmt.Errorf("auth.mode must be %q or %q, got %q", AuthModeFirebase, AuthModeMock, c.Auth.Mode)
	}
	switch c.Storage.Backend {
	case StorageMemory, StorageFirestore:
	case StorageRedis:
		if c.Redis.URL == "" && c.Redis.Addr == "" {
			return errors.New("storage.backend=redis requires redis.url or redis.addr")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Publish.BlobConcurrency < 1 {
		return fmt.Errorf("publish.blob_concurrency must be positive, got %d", c.Publish.BlobConcurrency)
	}
	return nil
}

// NeedsFirebase reports whether the Firebase Admin SDK must be initialized.
func (c *Config) NeedsFirebase() bool {
	return c.Auth.Mode == AuthModeFirebase || c.Storage.Backend == StorageFirestore
}
