package conn

import (
	"fmt"
	"time"

	"github.com/lcx/hermes/backoff"
	"github.com/lcx/hermes/resolver"
)

// TransportCfgName is the configuration name transport settings load
// under, both at startup and on hot reload.
const TransportCfgName = "transport"

// TransportCfg carries the tunables of connection management. Zero
// fields keep their defaults, so a config file only needs the values it
// actually changes.
type TransportCfg struct {
	// Target is the dial destination, host:port or unix://path.
	Target string `mapstructure:"target"`
	// IdleTimeoutSec retires a connection with no active streams after
	// this many seconds. Defaults to 300.
	IdleTimeoutSec int `mapstructure:"idleTimeoutSec"`
	// MaxRecvMsgSize caps the decompressed size of one inbound message
	// in bytes. Zero means unlimited.
	MaxRecvMsgSize int `mapstructure:"maxRecvMsgSize"`

	// InitialBackoffMS is the delay before the first redial, in
	// milliseconds. Defaults to 1000.
	InitialBackoffMS int `mapstructure:"initialBackoffMS"`
	// MaxBackoffMS clamps the redial delay growth. Defaults to 120000.
	MaxBackoffMS int `mapstructure:"maxBackoffMS"`
	// BackoffMultiplier scales the delay between redials. Defaults to 1.6.
	BackoffMultiplier float64 `mapstructure:"backoffMultiplier"`
	// BackoffJitter is the random perturbation fraction. Defaults to 0.2.
	BackoffJitter float64 `mapstructure:"backoffJitter"`
	// MinConnectTimeoutSec floors the per-attempt connect timeout.
	// Defaults to 20.
	MinConnectTimeoutSec int `mapstructure:"minConnectTimeoutSec"`
	// Retries bounds how many redials follow a failure before the
	// connection shuts down. Zero or negative means unlimited.
	Retries int `mapstructure:"retries"`
}

// GetName implements config.Config.
func (c *TransportCfg) GetName() string {
	return TransportCfgName
}

// Validate implements config.Config.
func (c *TransportCfg) Validate() error {
	if c.Target != "" {
		if _, err := resolver.Parse(c.Target); err != nil {
			return fmt.Errorf("transport cfg: %w", err)
		}
	}
	if c.IdleTimeoutSec < 0 {
		return fmt.Errorf("transport cfg: idleTimeoutSec must not be negative, got %d", c.IdleTimeoutSec)
	}
	if c.MaxRecvMsgSize < 0 {
		return fmt.Errorf("transport cfg: maxRecvMsgSize must not be negative, got %d", c.MaxRecvMsgSize)
	}
	if c.InitialBackoffMS < 0 || c.MaxBackoffMS < 0 || c.MinConnectTimeoutSec < 0 {
		return fmt.Errorf("transport cfg: backoff durations must not be negative")
	}
	if c.BackoffMultiplier != 0 && c.BackoffMultiplier <= 1 {
		return fmt.Errorf("transport cfg: backoffMultiplier must be greater than 1, got %v", c.BackoffMultiplier)
	}
	if c.BackoffJitter < 0 || c.BackoffJitter > 1 {
		return fmt.Errorf("transport cfg: backoffJitter must be within [0,1], got %v", c.BackoffJitter)
	}
	return nil
}

// IdleTimeout returns the configured idle timeout as a duration.
func (c *TransportCfg) IdleTimeout() time.Duration {
	if c.IdleTimeoutSec <= 0 {
		return DefaultIdleTimeout
	}
	return time.Duration(c.IdleTimeoutSec) * time.Second
}

// BackoffCfg maps the flat config fields onto backoff parameters,
// substituting defaults for values left at zero.
func (c *TransportCfg) BackoffCfg() backoff.Cfg {
	cfg := backoff.DefaultCfg()
	if c.InitialBackoffMS > 0 {
		cfg.InitialBackoff = time.Duration(c.InitialBackoffMS) * time.Millisecond
	}
	if c.MaxBackoffMS > 0 {
		cfg.MaximumBackoff = time.Duration(c.MaxBackoffMS) * time.Millisecond
	}
	if c.BackoffMultiplier > 1 {
		cfg.Multiplier = c.BackoffMultiplier
	}
	if c.BackoffJitter > 0 {
		cfg.Jitter = c.BackoffJitter
	}
	if c.MinConnectTimeoutSec > 0 {
		cfg.MinConnectTimeout = time.Duration(c.MinConnectTimeoutSec) * time.Second
	}
	if c.Retries > 0 {
		cfg.Retries = backoff.UpTo(c.Retries)
	}
	return cfg
}
