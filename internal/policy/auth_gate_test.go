package policy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/gate"
	"github.com/diewo77/go-intake/internal/db"
	"github.com/diewo77/go-intake/internal/models"
	"github.com/diewo77/go-intake/internal/policy"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type seeded struct {
	db                   *gorm.DB
	admin, staff, client uint
}

func setup(t *testing.T) seeded {
	t.Helper()
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(d); err != nil {
		t.Fatal(err)
	}
	if err := db.SeedProfiles(d); err != nil {
		t.Fatal(err)
	}
	if err := db.SeedAccounts(d, db.DevAccounts); err != nil {
		t.Fatal(err)
	}
	id := func(email string) uint {
		var u models.User
		if err := d.Where("email = ?", email).First(&u).Error; err != nil {
			t.Fatal(err)
		}
		return u.ID
	}
	return seeded{
		db:     d,
		admin:  id("admin@intake.local"),
		staff:  id("staff@intake.local"),
		client: id("client@intake.local"),
	}
}

func TestCaseGateDecisions(t *testing.T) {
	s := setup(t)
	ag := policy.NewCaseGate(s.db, time.Minute)
	other := &ownedCase{userID: 9999}
	otherInPerson := &ownedCase{userID: 9999, inPerson: true}
	own := &ownedCase{userID: s.client}

	as := func(uid uint) context.Context { return auth.WithUserID(context.Background(), uid) }

	if err := ag.Authorize(context.Background(), gate.ActionView, policy.ResourceCase, own); err != gate.ErrUnauthenticated {
		t.Fatalf("anonymous err = %v", err)
	}
	if !ag.Can(as(s.client), gate.ActionUpdate, policy.ResourceCase, own) {
		t.Error("client cannot update own case")
	}
	if ag.Can(as(s.client), gate.ActionView, policy.ResourceCase, other) {
		t.Error("client reached another client's case")
	}
	if ag.Can(as(s.client), gate.ActionFinish, policy.ResourceCase, own) {
		t.Error("client allowed to finish without payment")
	}
	if !ag.Can(as(s.staff), gate.ActionUpdate, policy.ResourceCase, otherInPerson) {
		t.Error("staff denied on in-person route")
	}
	if ag.Can(as(s.staff), gate.ActionUpdate, policy.ResourceCase, other) {
		t.Error("staff bypass applied on online route")
	}
	if !ag.CanAssist(context.Background(), s.admin) || ag.CanAssist(context.Background(), s.client) {
		t.Error("assist permission mismatch")
	}
	if !ag.IsAdmin(as(s.admin)) || ag.IsAdmin(as(s.staff)) {
		t.Error("admin detection mismatch")
	}
	if ag.CanProfile(as(12345), gate.ActionView, policy.ResourceCase) {
		t.Error("unknown user has permissions")
	}
}

func TestProfileCacheInvalidation(t *testing.T) {
	s := setup(t)
	ag := policy.NewCaseGate(s.db, time.Hour)
	ctx := auth.WithUserID(context.Background(), s.client)
	if ag.CanProfile(ctx, gate.ActionAssist, policy.ResourceCase) {
		t.Fatal("client can assist")
	}
	var staff models.Profile
	s.db.Where("name = ?", models.ProfileStaff).First(&staff)
	s.db.Model(&models.User{}).Where("id = ?", s.client).Update("profile_id", staff.ID)

	if ag.CanProfile(ctx, gate.ActionAssist, policy.ResourceCase) {
		t.Fatal("profile cache not used")
	}
	ag.InvalidateUser(s.client)
	if !ag.CanProfile(ctx, gate.ActionAssist, policy.ResourceCase) {
		t.Fatal("new profile not picked up after invalidation")
	}
}

func TestRequireMiddlewares(t *testing.T) {
	s := setup(t)
	ag := policy.NewCaseGate(s.db, time.Minute)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	do := func(h http.Handler, path string, uid uint) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if uid != 0 {
			req = req.WithContext(auth.WithUserID(req.Context(), uid))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	admin := ag.RequireAdmin()(ok)
	if got := do(admin, "/admin/users", s.admin); got != http.StatusNoContent {
		t.Errorf("admin got %d", got)
	}
	if got := do(admin, "/admin/users", s.staff); got != http.StatusForbidden {
		t.Errorf("staff got %d", got)
	}
	if got := do(admin, "/admin/users", 0); got != http.StatusUnauthorized {
		t.Errorf("anonymous got %d", got)
	}

	finish := ag.RequirePermission(policy.ResourceCase, gate.ActionFinish)(ok)
	if got := do(finish, "/api/forms/staff-t1/finish", s.staff); got != http.StatusNoContent {
		t.Errorf("staff finish got %d", got)
	}
	if got := do(finish, "/api/forms/staff-t1/finish", s.client); got != http.StatusForbidden {
		t.Errorf("client finish got %d", got)
	}
}
