// Package gate authorizes users against profile permissions and, when a
// concrete resource is at hand, against per-resource policies such as ownership.
package gate

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Policy decides access to one concrete resource. It runs only after the
// profile permission check passed.
type Policy interface {
	Can(ctx context.Context, userID uint, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, userID uint, action Action, resource any) bool

func (f PolicyFunc) Can(ctx context.Context, userID uint, action Action, resource any) bool {
	return f(ctx, userID, action, resource)
}

// Gate combines profile permissions with resource policies.
type Gate struct {
	resolver Resolver
	policies map[string]Policy
}

func New(resolver Resolver) *Gate {
	return &Gate{resolver: resolver, policies: map[string]Policy{}}
}

// Register sets the policy consulted for resource of the given type.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Profile resolves the user's profile; nil when the user has none.
func (g *Gate) Profile(ctx context.Context, userID uint) Profile {
	if userID == 0 {
		return nil
	}
	p, err := g.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil
	}
	return p
}

// Authorize returns nil when userID may perform action on resource.
// A nil resource checks the profile permission only.
func (g *Gate) Authorize(ctx context.Context, userID uint, action Action, resourceType string, resource any) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	if !g.CanProfile(ctx, userID, action, resourceType) {
		return ErrForbidden
	}
	if resource == nil {
		return nil
	}
	if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, userID, action, resource) {
		return ErrForbidden
	}
	return nil
}

func (g *Gate) Can(ctx context.Context, userID uint, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, userID, action, resourceType, resource) == nil
}

// CanProfile checks the profile permission without any resource policy.
func (g *Gate) CanProfile(ctx context.Context, userID uint, action Action, resourceType string) bool {
	p := g.Profile(ctx, userID)
	return p != nil && p.HasPermission(NewPermission(resourceType, action))
}
