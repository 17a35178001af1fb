package core

import (
	"strings"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
)

type Config struct {
	Addr             string `config:"addr"`
	RedisURL         string `config:"redis_url"`
	ChannelKeyPrefix string `config:"channel_key_prefix"`
	HealthCheck      string `config:"health_check"`
	PollTimeout      int    `config:"poll_timeout"`
}

// NewConfig loads path plus an optional ".local.yml" overlay next to it.
// Values may reference environment variables.
func NewConfig(path string) (*Config, error) {
	var appConfig Config

	config.WithOptions(func(opt *config.Options) {
		opt.ParseEnv = true
		opt.DecoderConfig.TagName = "config"
	})

	config.AddDriver(yaml.Driver)

	if err := config.LoadFiles(path); err != nil {
		return nil, err
	}

	if err := config.LoadExists(strings.Replace(path, ".yml", ".local.yml", 1)); err != nil {
		return nil, err
	}

	if err := config.BindStruct("", &appConfig); err != nil {
		return nil, err
	}

	if appConfig.Addr == "" {
		appConfig.Addr = ":6750"
	}

	return &appConfig, nil
}
