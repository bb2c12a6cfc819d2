package auth

import (
	"context"
	"fmt"
)

// Resolver resolves the current principal from ambient request state.
//
// Contract:
// - Returns (nil, nil) when the request is unauthenticated.
// - Errors are reserved for infrastructure failures and propagate untouched.
type Resolver interface {
	Resolve(ctx context.Context) (*Identity, error)
}

// ResolverFunc is an adapter to allow use of ordinary functions as Resolvers.
type ResolverFunc func(ctx context.Context) (*Identity, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(ctx context.Context) (*Identity, error) {
	return f(ctx)
}

// UserDirectory answers whether a user id resolves to an existing user.
type UserDirectory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// Resource is the ownership view of a domain object.
type Resource struct {
	ID      int64
	OwnerID int64
}

// ResourceDirectory resolves a resource id to its ownership record.
// Returns (nil, nil) when the id does not resolve.
type ResourceDirectory interface {
	Find(ctx context.Context, resourceID int64) (*Resource, error)
}

// Gate evaluates stacked permission predicates. Each predicate returns the
// resolved identity on allow, a *Denial on refusal, and a plain error only
// for infrastructure failures.
//
// Denials are detected before any further store interaction: a predicate
// refuses as early as possible and performs no partial work.
type Gate struct {
	resolver  Resolver
	users     UserDirectory
	resources ResourceDirectory
}

// NewGate creates a gate. users may be nil when SelfOrAdmin is unused, and
// resources may be nil when ResourceOwnerOrCapability is unused.
func NewGate(resolver Resolver, users UserDirectory, resources ResourceDirectory) *Gate {
	return &Gate{resolver: resolver, users: users, resources: resources}
}

// Authenticated requires a resolved principal.
func (g *Gate) Authenticated(ctx context.Context) (*Identity, error) {
	id, err := g.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, NotLoggedIn()
	}
	return id, nil
}

// AdminOrEditor requires an authenticated principal with an admin or
// editor-equivalent role.
func (g *Gate) AdminOrEditor(ctx context.Context) (*Identity, error) {
	id, err := g.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsAdminOrEditor() {
		return nil, Forbidden()
	}
	return id, nil
}

// AdminOnly requires an authenticated principal with the administrator role.
func (g *Gate) AdminOnly(ctx context.Context) (*Identity, error) {
	id, err := g.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		return nil, Forbidden()
	}
	return id, nil
}

// SelfOrAdmin allows a principal acting on its own user id, and otherwise
// requires an admin or editor-equivalent role. The requested id must be
// positive and must resolve to an existing user.
func (g *Gate) SelfOrAdmin(ctx context.Context, requestedID int64) (*Identity, error) {
	id, err := g.Authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if requestedID <= 0 {
		return nil, InvalidParam(fmt.Sprintf("Invalid user id %d.", requestedID))
	}
	exists, err := g.users.Exists(ctx, requestedID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, NotFound(fmt.Sprintf("User %d does not exist.", requestedID))
	}

	if requestedID == id.ID {
		return id, nil
	}
	if !id.IsAdminOrEditor() {
		return nil, Forbidden()
	}
	return id, nil
}

// Capability requires an authenticated principal holding the named
// capability.
func (g *Gate) Capability(ctx context.Context, capability string) (*Identity, error) {
	id, err := g.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !id.HasCapability(capability) {
		return nil, Forbidden()
	}
	return id, nil
}

// ResourceOwnerOrCapability allows the resource's owner, and otherwise
// requires the override capability.
func (g *Gate) ResourceOwnerOrCapability(ctx context.Context, resourceID int64, overrideCapability string) (*Identity, error) {
	id, err := g.Authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if resourceID <= 0 {
		return nil, InvalidParam(fmt.Sprintf("Invalid resource id %d.", resourceID))
	}
	resource, err := g.resources.Find(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, NotFound(fmt.Sprintf("Resource %d does not exist.", resourceID))
	}

	if resource.OwnerID == id.ID {
		return id, nil
	}
	if !id.HasCapability(overrideCapability) {
		return nil, Forbidden()
	}
	return id, nil
}
