package policy

import (
	"context"

	"github.com/diewo77/go-intake/gate"
)

// Ownable is implemented by resources that belong to one user.
type Ownable interface {
	GetUserID() uint
}

// Assisted is implemented by resources reached through a route that knows
// whether it is a staff-assisted (in-person) flow.
type Assisted interface {
	InPerson() bool
}

// OwnershipPolicy allows a user to act on the resources they own.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can denies resources that do not implement Ownable.
func (p *OwnershipPolicy) Can(_ context.Context, userID uint, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}

// StaffBypassPolicy lets staff holding the assist permission reach any case,
// but only when the resource was reached through an in-person route. Online
// routes fall back to the inner policy for everyone.
type StaffBypassPolicy struct {
	inner     gate.Policy
	canAssist func(ctx context.Context, userID uint) bool
}

func NewStaffBypassPolicy(inner gate.Policy, canAssist func(ctx context.Context, userID uint) bool) *StaffBypassPolicy {
	return &StaffBypassPolicy{inner: inner, canAssist: canAssist}
}

func (p *StaffBypassPolicy) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	if a, ok := resource.(Assisted); ok && a.InPerson() && p.canAssist(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}
