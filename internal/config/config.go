// Package config loads the balancer settings from a yaml file
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hextechpal/streambalancer"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Redis    RedisConfig    `yaml:"redis"`
	Stream   StreamConfig   `yaml:"stream"`
	Balancer BalancerConfig `yaml:"balancer"`
	HTTP     HTTPConfig     `yaml:"http"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StreamConfig struct {
	Key          string `yaml:"key"`
	Group        string `yaml:"group"`
	PodKeyPrefix string `yaml:"pod_key_prefix"`
	MaxPending   int64  `yaml:"max_pending"`
}

type BalancerConfig struct {
	NameSpace string        `yaml:"namespace"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
	Debug     bool          `yaml:"debug"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func Default() *Config {
	return &Config{
		Redis: RedisConfig{Addr: "localhost:6379"},
		Stream: StreamConfig{
			MaxPending: streambalancer.DefaultMaxPending,
		},
		Balancer: BalancerConfig{NameSpace: "streambalancer"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Load reads path on top of the defaults, an empty path returns the defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// BalancerConfig maps the file to the library configuration
func (c *Config) BalancerConfig() *streambalancer.Config {
	return &streambalancer.Config{
		RedisOptions: &redis.Options{
			Addr:     c.Redis.Addr,
			Username: c.Redis.Username,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		},
		Stream:       c.Stream.Key,
		Group:        c.Stream.Group,
		PodKeyPrefix: c.Stream.PodKeyPrefix,
		NameSpace:    c.Balancer.NameSpace,
		MaxPending:   c.Stream.MaxPending,
		LockTTL:      c.Balancer.LockTTL,
		Debug:        c.Balancer.Debug,
	}
}
