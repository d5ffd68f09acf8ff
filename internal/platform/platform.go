// Package platform hides the mechanism that performs an action on a social
// network behind a small capability set. The orchestration layer selects a
// driver from the registry by platform identifier and treats any non-true
// execution result as a normal, recorded failure.
package platform

import (
	"context"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// Driver performs operations against one social platform. Implementations
// are opaque: browser automation, HTTP APIs, or simulators all satisfy the
// same contract.
type Driver interface {
	// Platform identifies which network this driver serves.
	Platform() domain.Platform

	// Execute performs one action and reports whether it landed.
	Execute(ctx context.Context, action domain.Action) bool

	// Engage performs an engagement action (like/comment/dm/story view).
	Engage(ctx context.Context, action domain.Action) bool

	// Follow follows the given account.
	Follow(ctx context.Context, username string) bool

	// Analyze fetches public profile signals for a single account.
	Analyze(ctx context.Context, username string) (domain.TargetAccount, bool)
}

// Registry maps platform identifiers to their drivers, replacing scattered
// switches on platform strings with a single lookup table.
type Registry struct {
	drivers map[domain.Platform]Driver
}

// NewRegistry builds a registry from the given drivers. A later driver for
// the same platform replaces an earlier one.
func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{drivers: make(map[domain.Platform]Driver, len(drivers))}
	for _, d := range drivers {
		r.drivers[d.Platform()] = d
	}
	return r
}

// Driver returns the driver for a platform, if one is registered.
func (r *Registry) Driver(p domain.Platform) (Driver, bool) {
	d, ok := r.drivers[p]
	return d, ok
}

// Platforms lists the registered platform identifiers.
func (r *Registry) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(r.drivers))
	for p := range r.drivers {
		out = append(out, p)
	}
	return out
}
