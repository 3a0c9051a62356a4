package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-intake/internal/db"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(d); err != nil {
		t.Fatal(err)
	}
	for _, u := range []models.User{{ID: 1, Email: "a@x.test", Password: "x"}, {ID: 2, Email: "b@x.test", Password: "x"}} {
		if err := d.Create(&u).Error; err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func newDraft(owner uint) intake.Draft {
	return intake.Draft{OwnerID: owner, Kind: intake.KindIndividual, Lang: "fr", Year: "2024", Payload: []byte(`{"identity":{"firstName":"Ana"}}`)}
}

func TestCaseStoreCreateSaveGet(t *testing.T) {
	s := NewCaseStore(setupDB(t))
	ctx := context.Background()

	id, err := s.Create(ctx, newDraft(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(id) != 36 {
		t.Fatalf("id = %q", id)
	}
	before, _ := s.Get(ctx, id)

	time.Sleep(5 * time.Millisecond)
	if err := s.Save(ctx, id, []byte(`{"identity":{"firstName":"Bea"}}`), "en", "2023"); err != nil {
		t.Fatal(err)
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if d.OwnerID != 1 || d.Kind != intake.KindIndividual || d.Status != intake.StatusDraft {
		t.Fatalf("immutable columns changed: %+v", d)
	}
	if d.Lang != "en" || d.Year != "2023" || intake.LoadForm(d.Payload).Identity.FirstName != "Bea" {
		t.Fatalf("save not applied: %+v", d)
	}
	if !d.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("updated_at not bumped: %v -> %v", before.UpdatedAt, d.UpdatedAt)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v", err)
	}
	if err := s.Save(ctx, "missing", nil, "fr", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Save(missing) err = %v", err)
	}
	if _, err := s.Create(ctx, intake.Draft{Kind: intake.KindIndividual}); err == nil {
		t.Fatal("case without owner created")
	}
}

func TestCaseStoreScopes(t *testing.T) {
	s := NewCaseStore(setupDB(t))
	ctx := context.Background()
	id, _ := s.Create(ctx, newDraft(1))
	_, _ = s.Create(ctx, newDraft(2))

	mine, _ := s.List(ctx, Scope{UserID: 1})
	all, _ := s.List(ctx, Scope{Staff: true})
	if len(mine) != 1 || len(all) != 2 {
		t.Fatalf("mine=%d all=%d", len(mine), len(all))
	}
	if mine[0].ID != id {
		t.Fatalf("owner sees %s, want %s", mine[0].ID, id)
	}
	if others, _ := s.List(ctx, Scope{UserID: 3}); len(others) != 0 {
		t.Fatalf("stranger sees %d case(s)", len(others))
	}
}

func TestCaseStoreStatusTransitions(t *testing.T) {
	s := NewCaseStore(setupDB(t))
	ctx := context.Background()
	id, _ := s.Create(ctx, newDraft(1))

	if err := s.SetStatus(ctx, id, intake.StatusDraft, intake.StatusSubmitted); !errors.Is(err, intake.ErrInvalidTransition) {
		t.Fatalf("skip transition err = %v", err)
	}
	if err := s.SetStatus(ctx, id, intake.StatusDraft, intake.StatusReadyForPayment); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStatus(ctx, id, intake.StatusDraft, intake.StatusReadyForPayment); !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("repeated transition err = %v", err)
	}
	if err := s.Save(ctx, id, []byte(`{}`), "fr", "2024"); err != nil {
		t.Fatalf("ready_for_payment should stay editable: %v", err)
	}
	if err := s.SetStatus(ctx, id, intake.StatusReadyForPayment, intake.StatusSubmitted); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, id, []byte(`{}`), "fr", "2024"); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("save after submit err = %v", err)
	}
}

func TestCaseStoreConcurrentTransitionAppliesOnce(t *testing.T) {
	d := setupDB(t)
	sqlDB, err := d.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	s := NewCaseStore(d)
	ctx := context.Background()
	id, _ := s.Create(ctx, newDraft(1))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.SetStatus(ctx, id, intake.StatusDraft, intake.StatusReadyForPayment) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 1 {
		t.Fatalf("transition applied %d times", ok)
	}
}

func TestLegacyReceivedStatusIsNotEditable(t *testing.T) {
	d := setupDB(t)
	s := NewCaseStore(d)
	ctx := context.Background()
	id, _ := s.Create(ctx, newDraft(1))
	d.Model(&models.Case{}).Where("id = ?", id).Update("status", "recu")

	got, _ := s.Get(ctx, id)
	if got.Status != intake.StatusSubmitted {
		t.Fatalf("status = %s", got.Status)
	}
	if err := s.Save(ctx, id, []byte(`{}`), "fr", ""); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("err = %v", err)
	}
}

func TestAttachmentStore(t *testing.T) {
	d := setupDB(t)
	cases := NewCaseStore(d)
	s := NewAttachmentStore(d)
	ctx := context.Background()
	id, _ := cases.Create(ctx, newDraft(1))

	if n, _ := s.CountByCase(ctx, id); n != 0 {
		t.Fatalf("count = %d", n)
	}
	for _, name := range []string{"t4.pdf", "rl1.pdf"} {
		a := &models.Attachment{FormulaireID: id, UserID: 1, OriginalName: name, StoragePath: "1/" + id + "/" + name, MimeType: "application/pdf", SizeBytes: 10}
		if err := s.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListByCase(ctx, id)
	if err != nil || len(list) != 2 || list[0].OriginalName != "t4.pdf" {
		t.Fatalf("list = %+v err=%v", list, err)
	}
	got, err := s.Get(ctx, list[1].ID)
	if err != nil || got.OriginalName != "rl1.pdf" {
		t.Fatalf("Get = %+v err=%v", got, err)
	}
	if _, err := s.Get(ctx, got.ID+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing attachment err = %v", err)
	}
}

func TestPaymentStoreCompleteIsIdempotent(t *testing.T) {
	d := setupDB(t)
	cases := NewCaseStore(d)
	s := NewPaymentStore(d)
	ctx := context.Background()
	id, _ := cases.Create(ctx, newDraft(1))

	if err := s.Record(ctx, &models.Payment{FormulaireID: id, UserID: 1, SessionID: "cs_1", URL: "https://pay/cs_1"}); err != nil {
		t.Fatal(err)
	}
	first, err := s.Complete(ctx, "cs_1", time.Now())
	if err != nil || !first {
		t.Fatalf("first complete = %v, %v", first, err)
	}
	again, err := s.Complete(ctx, "cs_1", time.Now())
	if err != nil || again {
		t.Fatalf("second complete = %v, %v", again, err)
	}
	p, _ := s.BySession(ctx, "cs_1")
	if !p.IsCompleted() || p.CompletedAt == nil {
		t.Fatalf("payment = %+v", p)
	}
	if _, err := s.Complete(ctx, "cs_x", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown session err = %v", err)
	}
}

func TestPaymentStoreRecordKeepsKnownSession(t *testing.T) {
	d := setupDB(t)
	cases := NewCaseStore(d)
	s := NewPaymentStore(d)
	ctx := context.Background()
	id, _ := cases.Create(ctx, newDraft(1))

	first := &models.Payment{FormulaireID: id, UserID: 1, SessionID: "cs_1", URL: "https://pay/cs_1"}
	if err := s.Record(ctx, first); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Complete(ctx, "cs_1", time.Now()); err != nil {
		t.Fatal(err)
	}
	again := &models.Payment{FormulaireID: id, UserID: 1, SessionID: "cs_1", URL: "https://pay/cs_1"}
	if err := s.Record(ctx, again); err != nil {
		t.Fatalf("second record: %v", err)
	}
	if again.ID != first.ID || !again.IsCompleted() {
		t.Fatalf("second record = %+v, want the stored row", again)
	}
	var n int64
	d.Model(&models.Payment{}).Count(&n)
	if n != 1 {
		t.Fatalf("payments = %d", n)
	}
}

func TestTxRollsBack(t *testing.T) {
	d := setupDB(t)
	ctx := context.Background()
	boom := errors.New("boom")
	var created string
	err := Tx(ctx, d, func(cases *CaseStore, _ *AttachmentStore, _ *PaymentStore) error {
		id, err := cases.Create(ctx, newDraft(1))
		created = id
		if err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, err := NewCaseStore(d).Get(ctx, created); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rolled back case still present: %v", err)
	}
}
