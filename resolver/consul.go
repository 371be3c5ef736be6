package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"

	"github.com/lcx/hermes/metrics"
)

// ConsulResolver resolves a logical service name to the healthy instances
// registered in consul. Resolve is a plain query; Watch is a blocking query
// against the last seen index so redial loops can sleep until the instance
// set actually changes.
type ConsulResolver struct {
	client    *api.Client
	service   string
	tag       string
	waitTime  time.Duration
	lastIndex uint64
}

// ConsulOption configures a ConsulResolver.
type ConsulOption func(*ConsulResolver)

// WithTag restricts resolution to instances carrying tag.
func WithTag(tag string) ConsulOption {
	return func(r *ConsulResolver) { r.tag = tag }
}

// WithWaitTime bounds how long a Watch blocks server-side.
func WithWaitTime(d time.Duration) ConsulOption {
	return func(r *ConsulResolver) { r.waitTime = d }
}

// NewConsulResolver builds a resolver for service. A nil cfg uses the
// agent defaults (CONSUL_HTTP_ADDR etc).
func NewConsulResolver(cfg *api.Config, service string, opts ...ConsulOption) (*ConsulResolver, error) {
	if cfg == nil {
		cfg = api.DefaultConfig()
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolver: consul client: %w", err)
	}

	r := &ConsulResolver{
		client:   client,
		service:  service,
		waitTime: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the currently healthy instances of the service.
func (r *ConsulResolver) Resolve(ctx context.Context) ([]Target, error) {
	return r.query(ctx, 0)
}

// Watch blocks until the healthy instance set moves past the index seen by
// the previous Resolve or Watch, then returns the new set. Honors ctx.
func (r *ConsulResolver) Watch(ctx context.Context) ([]Target, error) {
	return r.query(ctx, r.lastIndex)
}

func (r *ConsulResolver) query(ctx context.Context, waitIndex uint64) ([]Target, error) {
	opts := &api.QueryOptions{
		WaitIndex: waitIndex,
		WaitTime:  r.waitTime,
	}
	entries, meta, err := r.client.Health().Service(r.service, r.tag, true, opts.WithContext(ctx))
	if err != nil {
		metrics.IncrCounterWithGroup("resolver", "consul_error_total", 1)
		return nil, fmt.Errorf("resolver: consul health query for %q: %w", r.service, err)
	}
	r.lastIndex = meta.LastIndex

	targets := make([]Target, 0, len(entries))
	for _, entry := range entries {
		addr := entry.Service.Address
		if addr == "" {
			// 服务没写地址时退回节点地址
			addr = entry.Node.Address
		}
		targets = append(targets, HostPort(addr, entry.Service.Port))
	}
	metrics.IncrCounterWithDimGroup("resolver", "consul_resolve_total", 1,
		map[string]string{"service": r.service})

	if len(targets) == 0 {
		return nil, ErrNoInstances
	}
	return targets, nil
}
