// Package config loads optional YAML configuration and resolves the Douyin
// credential from its sources in precedence order.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CookieEnvVar is the environment variable holding the Douyin cookie. The
// root command loads .env files via godotenv, so a dotenv entry under this
// key lands here too.
const CookieEnvVar = "DOUYIN_COOKIE"

// Config holds the optional file-based settings. Zero values mean "use the
// built-in default".
type Config struct {
	Cookie    string   `yaml:"cookie"`
	Endpoints []string `yaml:"endpoints"`
	UserAgent string   `yaml:"user_agent"`

	Retries  *int     `yaml:"retries"`
	Upscale  *float64 `yaml:"upscale"`
	MaxSize  *int     `yaml:"max_size"`
	CacheDir string   `yaml:"cache_dir"`
}

// Load reads a YAML config file. An empty path yields an empty config.
func Load(path string) (*Config, error) {
	cfg := &Config{}
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

// ResolveCookie picks the active credential: explicit flag value first, then
// the config file, then the environment. First non-empty wins; empty means
// unauthenticated.
func (c *Config) ResolveCookie(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if c.Cookie != "" {
		return c.Cookie
	}
	return os.Getenv(CookieEnvVar)
}
