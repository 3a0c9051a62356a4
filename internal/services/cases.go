package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/gate"
	"github.com/diewo77/go-intake/internal/checkout"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/internal/models"
	"github.com/diewo77/go-intake/internal/policy"
	"github.com/diewo77/go-intake/internal/report"
	"github.com/diewo77/go-intake/internal/storage"
	"github.com/diewo77/go-intake/internal/store"
	"gorm.io/gorm"
)

var (
	ErrUnknownFlow  = errors.New("unknown flow")
	ErrMissingCase  = errors.New("fid_missing")
	ErrWrongFlow    = errors.New("case does not belong to this flow")
	ErrNotStaffFlow = errors.New("only in-person flows can be finished without payment")
)

// Authorizer is the part of the authorization gate the service needs.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
	CanAssist(ctx context.Context, userID uint) bool
}

// Bucket stores attachment bytes.
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader) (storage.Object, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
	SignedURL(key, name string, ttl time.Duration) (string, error)
}

// Gateway opens hosted checkout sessions.
type Gateway interface {
	CreateSession(ctx context.Context, req checkout.Request) (checkout.Session, error)
}

// caseRef is what the gate sees of a case: its owner and whether it was
// reached through an in-person route.
type caseRef struct {
	owner    uint
	inPerson bool
}

func (c caseRef) GetUserID() uint { return c.owner }
func (c caseRef) InPerson() bool  { return c.inPerson }

// Deps wires a CaseService.
type Deps struct {
	DB       *gorm.DB
	Catalog  *intake.Catalog
	Sessions *Sessions
	Gate     Authorizer
	Bucket   Bucket
	Gateway  Gateway
	// URLTTL bounds the lifetime of attachment download links.
	URLTTL time.Duration
}

// CaseService runs the lifecycle of intake cases: editing, step navigation,
// attachments, payment and submission.
type CaseService struct {
	db          *gorm.DB
	catalog     *intake.Catalog
	sessions    *Sessions
	gate        Authorizer
	bucket      Bucket
	gateway     Gateway
	urlTTL      time.Duration
	cases       *store.CaseStore
	attachments *store.AttachmentStore
	payments    *store.PaymentStore

	now  func() time.Time
	rand io.Reader
}

func NewCaseService(d Deps) *CaseService {
	ttl := d.URLTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	catalog := d.Catalog
	if catalog == nil {
		catalog = intake.DefaultCatalog()
	}
	return &CaseService{
		db:          d.DB,
		catalog:     catalog,
		sessions:    d.Sessions,
		gate:        d.Gate,
		bucket:      d.Bucket,
		gateway:     d.Gateway,
		urlTTL:      ttl,
		cases:       store.NewCaseStore(d.DB),
		attachments: store.NewAttachmentStore(d.DB),
		payments:    store.NewPaymentStore(d.DB),
		now:         time.Now,
	}
}

// Catalog returns the flow definitions.
func (s *CaseService) Catalog() *intake.Catalog { return s.catalog }

// Flow resolves a flow id such as "t1" or "staff-t2".
func (s *CaseService) Flow(id string) (intake.Flow, error) {
	f, ok := s.catalog.ByID(id)
	if !ok {
		return intake.Flow{}, fmt.Errorf("%w: %s", ErrUnknownFlow, id)
	}
	return f, nil
}

// FlowOf returns the flow of an existing case for the online or in-person
// variant. Access is checked by the operation that follows.
func (s *CaseService) FlowOf(ctx context.Context, fid string, inPerson bool) (intake.Flow, error) {
	if fid == "" {
		return intake.Flow{}, ErrMissingCase
	}
	c, err := s.sessions.Get(ctx, fid)
	if err != nil {
		return intake.Flow{}, err
	}
	variant := intake.VariantOnline
	if inPerson {
		variant = intake.VariantInPerson
	}
	f, ok := s.catalog.Lookup(c.Kind(), variant)
	if !ok {
		return intake.Flow{}, fmt.Errorf("%w: %s", ErrUnknownFlow, c.Kind())
	}
	return f, nil
}

// CanAssist reports whether the caller may work on other clients' cases.
func (s *CaseService) CanAssist(ctx context.Context) bool {
	uid, ok := auth.UserIDFromContext(ctx)
	return ok && s.gate.CanAssist(ctx, uid)
}

func (s *CaseService) authorize(ctx context.Context, action gate.Action, resourceType string, owner uint, flow intake.Flow) error {
	return s.gate.Authorize(ctx, action, resourceType, caseRef{owner: owner, inPerson: flow.Staff()})
}

// Open returns the live controller of fid after checking that the caller
// may act on it through flow. An empty fid yields a fresh unsaved draft.
func (s *CaseService) Open(ctx context.Context, flow intake.Flow, fid string, action gate.Action) (*intake.Controller, error) {
	if fid == "" {
		uid, _ := auth.UserIDFromContext(ctx)
		if err := s.gate.Authorize(ctx, gate.ActionCreate, policy.ResourceCase, nil); err != nil {
			return nil, err
		}
		return s.sessions.New(uid, flow.Kind), nil
	}
	c, err := s.sessions.Get(ctx, fid)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, action, policy.ResourceCase, c.Owner(), flow); err != nil {
		return nil, err
	}
	if c.Kind() != flow.Kind {
		return nil, ErrWrongFlow
	}
	return c, nil
}

// openAndApply opens fid for update and applies patch. Eviction closes a
// controller only after flushing it, so one closed under us is reloaded once.
func (s *CaseService) openAndApply(ctx context.Context, flow intake.Flow, fid string, patch []byte) (*intake.Controller, error) {
	for attempt := 0; ; attempt++ {
		c, err := s.Open(ctx, flow, fid, gate.ActionUpdate)
		if err != nil {
			return nil, err
		}
		if len(patch) == 0 {
			return c, nil
		}
		err = c.Apply(patch)
		if errors.Is(err, intake.ErrClosed) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Patch applies a partial field update. Without fid a new case is created
// and saved right away so the caller learns its id; later patches of a
// known case are persisted by the debounced autosave.
func (s *CaseService) Patch(ctx context.Context, flow intake.Flow, fid, lang, year string, patch []byte) (intake.State, error) {
	c, err := s.openAndApply(ctx, flow, fid, patch)
	if err != nil {
		return intake.State{}, err
	}
	c.SetContext(lang, year)
	if fid == "" {
		if err := c.Flush(ctx); err != nil {
			return intake.State{}, err
		}
		if err := s.sessions.Add(c); err != nil {
			return intake.State{}, err
		}
	}
	return c.State(), nil
}

// Validate checks the sections of step without saving anything.
func (s *CaseService) Validate(ctx context.Context, flow intake.Flow, step, fid string) (intake.Transition, error) {
	cur, _, ok := flow.Step(step)
	if !ok {
		return intake.Transition{}, fmt.Errorf("%w: %s", intake.ErrUnknownStep, step)
	}
	c, err := s.Open(ctx, flow, fid, gate.ActionView)
	if err != nil {
		return intake.Transition{}, err
	}
	form := c.Form()
	return intake.Transition{
		CaseID:     c.ID(),
		Violations: intake.Validate(cur.Sections, form),
		Summary:    intake.Summary(cur.Sections, form),
	}, nil
}

// Advance applies patch, then tries to leave step. A newly created case is
// registered once the move succeeds. Reaching the final step moves the case
// to ready_for_payment; without attachments the move is refused with
// intake.ErrNoAttachments and the status is left alone.
func (s *CaseService) Advance(ctx context.Context, flow intake.Flow, step, fid, lang, year string, patch []byte) (intake.Transition, error) {
	c, err := s.openAndApply(ctx, flow, fid, patch)
	if err != nil {
		return intake.Transition{}, err
	}
	c.SetContext(lang, year)
	c.BeginSubmit()
	t, err := intake.Advance(ctx, flow, step, c)
	if fid == "" && c.ID() == "" {
		// Nothing was stored; drop the draft rather than autosave it.
		c.Close()
		return t, err
	}
	c.EndSubmit()
	if err != nil {
		return t, err
	}
	if fid == "" {
		if err := s.sessions.Add(c); err != nil {
			return t, err
		}
	}
	if !t.Allowed() {
		return t, nil
	}
	if next, _ := flow.Next(step); next.Final {
		if err := s.markReady(ctx, c); err != nil {
			t.Next = ""
			return t, err
		}
	}
	return t, nil
}

func (s *CaseService) markReady(ctx context.Context, c *intake.Controller) error {
	c.BeginSubmit()
	defer c.EndSubmit()
	if err := c.Flush(ctx); err != nil {
		return err
	}
	fid := c.ID()
	err := store.Tx(ctx, s.db, func(cases *store.CaseStore, attachments *store.AttachmentStore, _ *store.PaymentStore) error {
		n, err := attachments.CountByCase(ctx, fid)
		if err != nil {
			return err
		}
		if n == 0 {
			return intake.ErrNoAttachments
		}
		d, err := cases.Get(ctx, fid)
		if err != nil {
			return err
		}
		switch d.Status {
		case intake.StatusReadyForPayment:
			return nil
		case intake.StatusSubmitted:
			return intake.ErrNotEditable
		}
		return cases.SetStatus(ctx, fid, d.Status, intake.StatusReadyForPayment)
	})
	if err != nil {
		return err
	}
	c.SetStatus(intake.StatusReadyForPayment)
	return nil
}

// Checkout marks the case ready for payment and opens a hosted checkout
// session. The gateway is not called when the case cannot be paid yet.
func (s *CaseService) Checkout(ctx context.Context, flow intake.Flow, fid string) (checkout.Session, error) {
	if fid == "" {
		return checkout.Session{}, ErrMissingCase
	}
	c, err := s.Open(ctx, flow, fid, gate.ActionPay)
	if err != nil {
		return checkout.Session{}, err
	}
	if err := s.markReady(ctx, c); err != nil {
		return checkout.Session{}, err
	}
	req := checkout.Request{CaseID: fid, Type: flow.Kind.Slug(), Lang: c.Lang()}
	uid, _ := auth.UserIDFromContext(ctx)
	if flow.Staff() {
		req.StaffRef = strconv.FormatUint(uint64(uid), 10)
	}
	sess, err := s.gateway.CreateSession(ctx, req)
	if err != nil {
		return checkout.Session{}, err
	}
	// The gateway hands back the open session of a case on retry.
	err = s.payments.Record(ctx, &models.Payment{
		FormulaireID: fid,
		UserID:       uid,
		SessionID:    sess.ID,
		URL:          sess.URL,
	})
	if err != nil {
		return checkout.Session{}, err
	}
	return sess, nil
}

// CompletePayment applies a verified checkout.completed event: the payment
// is recorded and the case becomes submitted. Replayed events report false.
func (s *CaseService) CompletePayment(ctx context.Context, ev checkout.Event) (bool, error) {
	if ev.Type != checkout.EventCompleted {
		return false, nil
	}
	var fid string
	var applied bool
	err := store.Tx(ctx, s.db, func(cases *store.CaseStore, _ *store.AttachmentStore, payments *store.PaymentStore) error {
		p, err := payments.BySession(ctx, ev.SessionID)
		if err != nil {
			return err
		}
		if ev.CaseID != "" && ev.CaseID != p.FormulaireID {
			return fmt.Errorf("%w: session %s belongs to another case", checkout.ErrBadEvent, ev.SessionID)
		}
		fid = p.FormulaireID
		applied, err = payments.Complete(ctx, ev.SessionID, s.now())
		if err != nil || !applied {
			return err
		}
		d, err := cases.Get(ctx, fid)
		if err != nil {
			return err
		}
		if d.Status == intake.StatusSubmitted {
			return nil
		}
		return cases.SetStatus(ctx, fid, d.Status, intake.StatusSubmitted)
	})
	if err != nil {
		return false, err
	}
	if applied {
		if c := s.sessions.Peek(fid); c != nil {
			c.SetStatus(intake.StatusSubmitted)
		}
		log.Printf("case %s submitted after payment %s", fid, ev.SessionID)
	}
	return applied, nil
}

// Finish submits a case from an in-person flow without online payment.
func (s *CaseService) Finish(ctx context.Context, flow intake.Flow, fid string) error {
	if !flow.Staff() {
		return ErrNotStaffFlow
	}
	if fid == "" {
		return ErrMissingCase
	}
	c, err := s.Open(ctx, flow, fid, gate.ActionFinish)
	if err != nil {
		return err
	}
	if err := s.markReady(ctx, c); err != nil {
		return err
	}
	if err := s.cases.SetStatus(ctx, fid, intake.StatusReadyForPayment, intake.StatusSubmitted); err != nil {
		return err
	}
	c.SetStatus(intake.StatusSubmitted)
	return nil
}

// Upload stores a file for the case and records its metadata.
func (s *CaseService) Upload(ctx context.Context, flow intake.Flow, fid, name string, r io.Reader) (*models.Attachment, error) {
	if fid == "" {
		return nil, ErrMissingCase
	}
	if err := intake.CheckExtension(name); err != nil {
		return nil, err
	}
	c, err := s.Open(ctx, flow, fid, gate.ActionView)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, gate.ActionCreate, policy.ResourceAttachment, c.Owner(), flow); err != nil {
		return nil, err
	}
	if !c.State().Status.Editable() {
		return nil, intake.ErrNotEditable
	}
	key, err := intake.StorageKey(c.Owner(), fid, name, s.now(), s.rand)
	if err != nil {
		return nil, err
	}
	obj, err := s.bucket.Put(ctx, key, r)
	if err != nil {
		return nil, err
	}
	uid, _ := auth.UserIDFromContext(ctx)
	a := &models.Attachment{
		FormulaireID: fid,
		UserID:       uid,
		OriginalName: strings.TrimSpace(name),
		StoragePath:  obj.Key,
		MimeType:     obj.MimeType,
		SizeBytes:    obj.Size,
	}
	if err := s.attachments.Create(ctx, a); err != nil {
		if derr := s.bucket.Delete(obj.Key); derr != nil {
			log.Printf("upload cleanup %s: %v", obj.Key, derr)
		}
		return nil, err
	}
	return a, nil
}

// Attachments lists the files of a case.
func (s *CaseService) Attachments(ctx context.Context, flow intake.Flow, fid string) ([]models.Attachment, error) {
	if fid == "" {
		return nil, ErrMissingCase
	}
	c, err := s.Open(ctx, flow, fid, gate.ActionView)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, gate.ActionList, policy.ResourceAttachment, c.Owner(), flow); err != nil {
		return nil, err
	}
	return s.attachments.ListByCase(ctx, fid)
}

// AttachmentURL returns a short-lived download link for an attachment.
// inPerson tells whether the request comes from a staff-assisted page.
func (s *CaseService) AttachmentURL(ctx context.Context, id uint, inPerson bool) (string, *models.Attachment, error) {
	a, err := s.attachments.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	owner, err := s.caseOwner(ctx, a.FormulaireID)
	if err != nil {
		return "", nil, err
	}
	ref := caseRef{owner: owner, inPerson: inPerson}
	if err := s.gate.Authorize(ctx, gate.ActionView, policy.ResourceAttachment, ref); err != nil {
		return "", nil, err
	}
	u, err := s.bucket.SignedURL(a.StoragePath, a.OriginalName, s.urlTTL)
	if err != nil {
		return "", nil, err
	}
	return u, a, nil
}

func (s *CaseService) caseOwner(ctx context.Context, fid string) (uint, error) {
	if c := s.sessions.Peek(fid); c != nil {
		return c.Owner(), nil
	}
	d, err := s.cases.Get(ctx, fid)
	if err != nil {
		return 0, err
	}
	return d.OwnerID, nil
}

// List returns the caller's cases, or every case when all is set and the
// caller may assist clients.
func (s *CaseService) List(ctx context.Context, all bool) ([]models.Case, error) {
	if err := s.gate.Authorize(ctx, gate.ActionList, policy.ResourceCase, nil); err != nil {
		return nil, err
	}
	uid, _ := auth.UserIDFromContext(ctx)
	scope := store.Scope{UserID: uid, Staff: all && s.gate.CanAssist(ctx, uid)}
	return s.cases.List(ctx, scope)
}

// SummaryPDF renders the case summary in lang.
func (s *CaseService) SummaryPDF(ctx context.Context, fid, lang string, inPerson bool) ([]byte, error) {
	owner, err := s.caseOwner(ctx, fid)
	if err != nil {
		return nil, err
	}
	ref := caseRef{owner: owner, inPerson: inPerson}
	if err := s.gate.Authorize(ctx, gate.ActionView, policy.ResourceCase, ref); err != nil {
		return nil, err
	}
	if c := s.sessions.Peek(fid); c != nil {
		if err := c.Flush(ctx); err != nil && !errors.Is(err, intake.ErrSaveFailed) {
			return nil, err
		}
	}
	d, err := s.cases.Get(ctx, fid)
	if err != nil {
		return nil, err
	}
	variant := intake.VariantOnline
	if inPerson {
		variant = intake.VariantInPerson
	}
	flow, ok := s.catalog.Lookup(d.Kind, variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, d.Kind)
	}
	form := intake.LoadForm(d.Payload)
	files, err := s.attachments.ListByCase(ctx, fid)
	if err != nil {
		return nil, err
	}
	sum := report.Summary{
		Lang:        lang,
		CaseID:      d.ID,
		Kind:        d.Kind,
		Status:      d.Status,
		Year:        d.Year,
		Holder:      holder(form),
		Sections:    intake.Summary(flow.Sections(), form),
		GeneratedAt: s.now(),
	}
	for _, f := range files {
		sum.Files = append(sum.Files, report.File{Name: f.OriginalName, Size: f.SizeBytes})
	}
	return report.CaseSummary(sum)
}

func holder(f intake.Form) string {
	if name := strings.TrimSpace(f.Company.Name); name != "" {
		return name
	}
	return strings.TrimSpace(f.Identity.FirstName + " " + f.Identity.LastName)
}
