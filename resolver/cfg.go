package resolver

import (
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
)

// ConsulCfgName is the configuration name consul resolution loads under.
const ConsulCfgName = "consul"

// ConsulCfg carries the consul resolver settings. Zero fields keep the
// consul client defaults, including the CONSUL_HTTP_ADDR environment
// override.
type ConsulCfg struct {
	// Address is the consul agent address, host:port.
	Address string `mapstructure:"address"`
	// Scheme selects http or https. Empty keeps the client default.
	Scheme string `mapstructure:"scheme"`
	// Datacenter scopes queries to one datacenter when set.
	Datacenter string `mapstructure:"datacenter"`
	// Token authenticates API requests when the agent requires it.
	Token string `mapstructure:"token"`

	// Service is the logical service name to resolve.
	Service string `mapstructure:"service"`
	// Tag restricts resolution to instances carrying it.
	Tag string `mapstructure:"tag"`
	// WaitTimeSec bounds how long a Watch blocks server-side, in
	// seconds. Zero keeps the resolver default.
	WaitTimeSec int `mapstructure:"waitTimeSec"`
}

// GetName implements config.Config.
func (c *ConsulCfg) GetName() string {
	return ConsulCfgName
}

// Validate implements config.Config.
func (c *ConsulCfg) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("consul cfg: service must not be empty")
	}
	if c.Scheme != "" && c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("consul cfg: scheme must be http or https, got %q", c.Scheme)
	}
	if c.WaitTimeSec < 0 {
		return fmt.Errorf("consul cfg: waitTimeSec must not be negative, got %d", c.WaitTimeSec)
	}
	return nil
}

// APIConfig maps the flat config fields onto a consul client config,
// keeping client defaults for values left at zero.
func (c *ConsulCfg) APIConfig() *api.Config {
	cfg := api.DefaultConfig()
	if c.Address != "" {
		cfg.Address = c.Address
	}
	if c.Scheme != "" {
		cfg.Scheme = c.Scheme
	}
	if c.Datacenter != "" {
		cfg.Datacenter = c.Datacenter
	}
	if c.Token != "" {
		cfg.Token = c.Token
	}
	return cfg
}

// NewConsulResolverFromCfg builds a resolver from a loaded configuration
// section.
func NewConsulResolverFromCfg(cfg *ConsulCfg) (*ConsulResolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []ConsulOption
	if cfg.Tag != "" {
		opts = append(opts, WithTag(cfg.Tag))
	}
	if cfg.WaitTimeSec > 0 {
		opts = append(opts, WithWaitTime(time.Duration(cfg.WaitTimeSec)*time.Second))
	}
	return NewConsulResolver(cfg.APIConfig(), cfg.Service, opts...)
}
