package resolver

import (
	"context"
	"errors"
)

// ErrNoInstances is returned when a resolve succeeds but yields no
// dialable addresses.
var ErrNoInstances = errors.New("resolver: no instances available")

// Resolver yields the candidate addresses for a dial attempt.
type Resolver interface {
	// Resolve returns the current target set, first entry preferred.
	Resolve(ctx context.Context) ([]Target, error)
}

type staticResolver struct {
	targets []Target
}

// Static returns a resolver that always yields the given targets.
func Static(targets ...Target) Resolver {
	return &staticResolver{targets: targets}
}

func (r *staticResolver) Resolve(ctx context.Context) ([]Target, error) {
	if len(r.targets) == 0 {
		return nil, ErrNoInstances
	}
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out, nil
}
