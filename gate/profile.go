package gate

import (
	"context"
	"sort"
)

// Profile is a named bundle of permissions assigned to a user.
type Profile interface {
	ID() uint
	Name() string
	HasPermission(Permission) bool
	Permissions() []Permission
}

// Resolver finds the profile of a user. A nil profile with a nil error
// means the user has no profile.
type Resolver interface {
	Resolve(ctx context.Context, userID uint) (Profile, error)
}

// StaticProfile is an in-memory Profile.
type StaticProfile struct {
	id    uint
	name  string
	perms []Permission
}

func NewStaticProfile(id uint, name string, perms ...Permission) *StaticProfile {
	return &StaticProfile{id: id, name: name, perms: append([]Permission(nil), perms...)}
}

func (p *StaticProfile) ID() uint     { return p.id }
func (p *StaticProfile) Name() string { return p.name }

// Permissions returns a sorted copy.
func (p *StaticProfile) Permissions() []Permission {
	out := append([]Permission(nil), p.perms...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *StaticProfile) HasPermission(requested Permission) bool {
	return Grants(p.perms, requested)
}

// Grants reports whether any of granted covers requested.
func Grants(granted []Permission, requested Permission) bool {
	for _, g := range granted {
		if g.Matches(requested) {
			return true
		}
	}
	return false
}

// StaticResolver maps user ids to fixed profiles.
type StaticResolver map[uint]Profile

func (r StaticResolver) Resolve(_ context.Context, userID uint) (Profile, error) {
	return r[userID], nil
}
