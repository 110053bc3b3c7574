// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Logging      LoggingConfig      `yaml:"logging"`
	Repository   RepositoryConfig   `yaml:"repository"`
	Holds        HoldsConfig        `yaml:"holds"`
	Auth         AuthConfig         `yaml:"auth"`
	Trace        TraceConfig        `yaml:"trace"`
	Tasks        TasksConfig        `yaml:"tasks"`
	Registration RegistrationConfig `yaml:"registration"`
	Worker       WorkerConfig       `yaml:"worker"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	Host           string        `yaml:"host"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      int           `yaml:"rate_limit"` // запросов в минуту с одного ip
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MigrateOnStart bool          `yaml:"migrate_on_start"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres" или "inmemory"
}

type HoldsConfig struct {
	Type string `yaml:"type"` // "redis" или "inmemory"
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type TraceConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	MemoTTL time.Duration `yaml:"memo_ttl"`
}

type TasksConfig struct {
	Timezone string `yaml:"timezone"`
}

type RegistrationConfig struct {
	HoldTTL time.Duration `yaml:"hold_ttl"`
}

type WorkerConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

// Load читает config.yml (или файл из FARM_CONFIG); если файла нет, работает на значениях по умолчанию
func Load() (*Config, error) {
	path := DefaultPath
	if fromEnv, ok := os.LookupEnv("FARM_CONFIG"); ok && fromEnv != "" {
		path = fromEnv
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 30 * time.Second,
			RateLimit:      100,
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			MinConnections: 2,
			IdleTimeout:    5 * time.Minute,
			MigrateOnStart: true,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "farm:",
		},
		Repository: RepositoryConfig{Type: "inmemory"},
		Holds:      HoldsConfig{Type: "inmemory"},
		Auth:       AuthConfig{Issuer: "farm-tracker"},
		Trace: TraceConfig{
			BaseURL: "http://data.ekape.or.kr/openapi-data/service/user/animalTrace/traceNoSearch",
			Timeout: 30 * time.Second,
			MemoTTL: 10 * time.Minute,
		},
		Tasks:        TasksConfig{Timezone: "Asia/Seoul"},
		Registration: RegistrationConfig{HoldTTL: 30 * time.Minute},
		Worker: WorkerConfig{
			Enabled:   false,
			Interval:  5 * time.Minute,
			BatchSize: 100,
		},
	}
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"FARM_DATABASE_URL":  &c.Database.URL,
		"FARM_REDIS_ADDR":    &c.Redis.Addr,
		"FARM_JWT_SECRET":    &c.Auth.JWTSecret,
		"FARM_TRACE_API_KEY": &c.Trace.APIKey,
	}
	for name, target := range overrides {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			*target = value
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.Trace.Timeout <= 0 {
		c.Trace.Timeout = 30 * time.Second
	}
	if c.Registration.HoldTTL <= 0 {
		c.Registration.HoldTTL = 30 * time.Minute
	}
	if c.Tasks.Timezone == "" {
		c.Tasks.Timezone = "Asia/Seoul"
	}
	if c.Worker.BatchSize <= 0 {
		c.Worker.BatchSize = 100
	}
	if c.Worker.Interval <= 0 {
		c.Worker.Interval = 5 * time.Minute
	}
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case "inmemory":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("repository.type=postgres требует database.url")
		}
	default:
		return fmt.Errorf("неизвестный repository.type %q", c.Repository.Type)
	}

	switch c.Holds.Type {
	case "inmemory", "redis":
	default:
		return fmt.Errorf("неизвестный holds.type %q", c.Holds.Type)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret не задан")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("tasks.timezone: %w", err)
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Tasks.Timezone)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
