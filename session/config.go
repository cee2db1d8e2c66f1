package session

import (
	"time"

	"github.com/coxswain-io/coxswain/common/config"
)

const (
	// _defaultOperationTimeout bounds connect, launch and kill when the
	// config leaves them unset.
	_defaultOperationTimeout = 30 * time.Second
)

// Config holds the per-operation timeouts of a session. Timeouts count
// from the moment the operation arms its event subscription.
type Config struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"min=0"`
	LaunchTimeout  time.Duration `yaml:"launch_timeout" validate:"min=0"`
	KillTimeout    time.Duration `yaml:"kill_timeout" validate:"min=0"`
}

// LoadConfig reads, merges and validates the given YAML config files
// into a Config. Later files override earlier ones.
func LoadConfig(configFiles ...string) (Config, error) {
	var cfg Config
	if err := config.Parse(&cfg, configFiles...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = _defaultOperationTimeout
	}
	if c.LaunchTimeout <= 0 {
		c.LaunchTimeout = _defaultOperationTimeout
	}
	if c.KillTimeout <= 0 {
		c.KillTimeout = _defaultOperationTimeout
	}
}
