// internal/config/config.go
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`

	Auth struct {
		JWKSURL    string `yaml:"jwks_url"`
		Issuer     string `yaml:"issuer"`
		AdminGroup string `yaml:"admin_group"`
	} `yaml:"auth"`

	Directory struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"directory"`

	Workers int `yaml:"workers"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects missing required keys at load time. A missing key must be
// a startup error, never a silent default.
func (c *Config) validate() error {
	switch {
	case c.Database.URL == "":
		return errors.New("config: database.url is required")
	case c.RabbitMQ.URL == "":
		return errors.New("config: rabbitmq.url is required")
	case c.Auth.JWKSURL == "":
		return errors.New("config: auth.jwks_url is required")
	case c.Auth.Issuer == "":
		return errors.New("config: auth.issuer is required")
	case c.Directory.BaseURL == "":
		return errors.New("config: directory.base_url is required")
	}
	if c.Auth.AdminGroup == "" {
		c.Auth.AdminGroup = "PLATFORM_ADMIN"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}
