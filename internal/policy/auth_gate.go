package policy

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/gate"
	"github.com/diewo77/go-intake/httpx"
	"gorm.io/gorm"
)

// Resource types known to the gate.
const (
	ResourceCase       = "case"
	ResourceAttachment = "attachment"
	ResourceUser       = "user"
	ResourceProfile    = "profile"
)

// AuthGate is the application's authorization point: a gate over a cached
// database profile resolver.
type AuthGate struct {
	Gate          *gate.Gate
	CacheResolver *gate.CachedResolver
}

// NewAuthGate caches profiles for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver(NewDBProfileResolver(db), cacheTTL)
	return &AuthGate{Gate: gate.New(cached), CacheResolver: cached}
}

func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy) {
	ag.Gate.Register(resourceType, p)
}

// Authorize checks the user of ctx. It returns gate.ErrUnauthenticated
// when ctx carries no user.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// CanProfile checks the profile permission only, for showing or hiding
// controls before a resource is loaded.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// CanAssist reports whether userID may work on other clients' cases in person.
func (ag *AuthGate) CanAssist(ctx context.Context, userID uint) bool {
	return ag.Gate.CanProfile(ctx, userID, gate.ActionAssist, ResourceCase)
}

// IsAdmin reports whether the user of ctx holds the superadmin permission.
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	p := ag.Gate.Profile(ctx, userID)
	return p != nil && p.HasPermission(gate.PermissionSuperAdmin)
}

// InvalidateUser drops the cached profile of a user whose profile changed.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission blocks requests whose user lacks the profile permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.CanProfile(r.Context(), action, resourceType) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin only lets superadmins through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserIDFromContext(r.Context()); !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !ag.IsAdmin(r.Context()) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) || strings.HasPrefix(r.URL.Path, "/api/") {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// NewCaseGate builds the gate used by the intake application: ownership for
// cases and attachments, with the in-person staff bypass on cases.
func NewCaseGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	ag := NewAuthGate(db, cacheTTL)
	owner := NewOwnershipPolicy()
	staff := NewStaffBypassPolicy(owner, ag.CanAssist)
	ag.RegisterPolicy(ResourceCase, staff)
	ag.RegisterPolicy(ResourceAttachment, staff)
	return ag
}
