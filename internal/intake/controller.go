package intake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-intake/i18n"
)

// DefaultAutosaveDelay is the quiet period before an edit is persisted.
const DefaultAutosaveDelay = 800 * time.Millisecond

// Mode is the editing state of a Controller. Autosave is armed only in ModeEditing.
type Mode int

const (
	ModeIdle Mode = iota
	ModeLoading
	ModeEditing
	ModeSaving
)

func (m Mode) String() string {
	switch m {
	case ModeLoading:
		return "loading"
	case ModeEditing:
		return "editing"
	case ModeSaving:
		return "saving"
	}
	return "idle"
}

// Draft is a stored case as the controller sees it.
type Draft struct {
	ID        string
	OwnerID   uint
	Kind      Kind
	Lang      string
	Year      string
	Status    Status
	Payload   []byte
	UpdatedAt time.Time
}

// Store persists drafts. Create returns the new case id. Save writes only
// payload, lang and year; owner and kind are fixed at creation.
type Store interface {
	Create(ctx context.Context, d Draft) (string, error)
	Save(ctx context.Context, id string, payload []byte, lang, year string) error
	Get(ctx context.Context, id string) (Draft, error)
}

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Controller.
type Option func(*Controller)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithAfterFunc replaces the timer factory, for tests.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = f }
}

// WithErrorHandler receives autosave failures, which are otherwise dropped.
func WithErrorHandler(f func(caseID string, err error)) Option {
	return func(c *Controller) { c.onError = f }
}

// Controller owns the field model of one case and persists it with a
// debounced autosave.
type Controller struct {
	store     Store
	delay     time.Duration
	afterFunc AfterFunc
	onError   func(string, error)

	mu       sync.Mutex
	mode     Mode
	id       string
	owner    uint
	kind     Kind
	lang     string
	year     string
	status   Status
	form     Form
	seq      uint64
	timer    Timer
	touched  time.Time
	lastSave time.Time

	// savedSeq is the last change known to be stored.
	savedSeq uint64

	// saveMu serializes upserts and loads. Lock order: saveMu, then mu.
	saveMu sync.Mutex
}

// NewController starts an unsaved draft for owner. The first save inserts it.
func NewController(store Store, owner uint, kind Kind, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		delay:     DefaultAutosaveDelay,
		afterFunc: realAfterFunc,
		mode:      ModeEditing,
		owner:     owner,
		kind:      kind,
		lang:      i18n.DefaultLang,
		status:    StatusDraft,
		form:      Form{}.withDefaults(),
		touched:   time.Now(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load replaces the model with the stored case id. Pending autosaves are
// cancelled and none is armed while loading.
func (c *Controller) Load(ctx context.Context, id string) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	c.stopTimerLocked()
	prev := c.mode
	c.mode = ModeLoading
	c.mu.Unlock()

	d, err := c.store.Get(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.mode = prev
		return err
	}
	c.id = d.ID
	c.owner = d.OwnerID
	c.kind = d.Kind
	c.lang = i18n.Normalize(d.Lang)
	c.year = d.Year
	c.status = d.Status
	c.form = Mask(LoadForm(d.Payload))
	if c.form.Fiscal.Year == "" {
		c.form.Fiscal.Year = d.Year
	}
	c.seq++
	c.savedSeq = c.seq
	c.touched = time.Now()
	c.mode = ModeEditing
	return nil
}

// Apply merges a field patch into the model and re-arms the autosave. A
// closed controller refuses the patch with ErrClosed; callers reload the
// case and apply it again.
func (c *Controller) Apply(patch []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeIdle {
		return ErrClosed
	}
	if !c.status.Editable() {
		return ErrNotEditable
	}
	f, err := ApplyPatch(c.form, patch)
	if err != nil {
		return err
	}
	c.form = Mask(f)
	c.changedLocked()
	return nil
}

// SetContext records the language and, when the form has none yet, the
// tax year carried by the page URL.
func (c *Controller) SetContext(lang, year string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := false
	if lang != "" {
		if l := i18n.Normalize(lang); l != c.lang {
			c.lang = l
			changed = true
		}
	}
	if y := strings.TrimSpace(year); y != "" && c.form.Fiscal.Year == "" {
		c.form.Fiscal.Year = y
		changed = true
	}
	if changed && c.status.Editable() {
		c.changedLocked()
	}
}

func (c *Controller) changedLocked() {
	c.seq++
	c.touched = time.Now()
	if c.mode != ModeEditing {
		return
	}
	c.stopTimerLocked()
	c.timer = c.afterFunc(c.delay, c.fire)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) fire() {
	c.mu.Lock()
	c.timer = nil
	editing := c.mode == ModeEditing
	c.mu.Unlock()
	if !editing {
		return
	}
	if err := c.save(context.Background()); err != nil && c.onError != nil {
		c.onError(c.ID(), err)
	}
}

// Flush cancels the pending autosave and saves now. Unlike autosave, the
// error is returned to the caller.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
	return c.save(ctx)
}

type snapshot struct {
	seq     uint64
	saved   uint64
	id      string
	owner   uint
	kind    Kind
	lang    string
	year    string
	payload []byte
}

func (c *Controller) snapshot() snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	year := strings.TrimSpace(c.form.Fiscal.Year)
	if year == "" {
		year = c.year
	}
	return snapshot{
		seq:     c.seq,
		saved:   c.savedSeq,
		id:      c.id,
		owner:   c.owner,
		kind:    c.kind,
		lang:    c.lang,
		year:    year,
		payload: Payload(c.form),
	}
}

// save upserts the latest snapshot. Saves run one at a time and each takes
// its snapshot after acquiring the lock, so an older snapshot can never be
// written after a newer one.
func (c *Controller) save(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	snap := c.snapshot()
	if snap.id != "" && snap.seq == snap.saved {
		return nil
	}
	if snap.id == "" {
		id, err := c.store.Create(ctx, Draft{
			OwnerID: snap.owner,
			Kind:    snap.kind,
			Lang:    snap.lang,
			Year:    snap.year,
			Status:  StatusDraft,
			Payload: snap.payload,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
		snap.id = id
	} else if err := c.store.Save(ctx, snap.id, snap.payload, snap.lang, snap.year); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	c.mu.Lock()
	c.id = snap.id
	c.year = snap.year
	c.lastSave = time.Now()
	c.savedSeq = snap.seq
	c.mu.Unlock()
	return nil
}

// BeginSubmit enters ModeSaving: edits still apply but arm no autosave.
func (c *Controller) BeginSubmit() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mode = ModeSaving
	c.mu.Unlock()
}

// EndSubmit returns to ModeEditing and re-arms the autosave if edits arrived meanwhile.
func (c *Controller) EndSubmit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeEditing
	if c.seq != c.savedSeq && c.status.Editable() {
		c.timer = c.afterFunc(c.delay, c.fire)
	}
}

// Close stops the timer and leaves the controller idle. It does not save,
// and later patches fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mode = ModeIdle
	c.mu.Unlock()
}

// SetStatus records a status change made elsewhere.
func (c *Controller) SetStatus(s Status) {
	c.mu.Lock()
	c.status = s
	if !s.Editable() {
		c.stopTimerLocked()
	}
	c.mu.Unlock()
}

func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Controller) Owner() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// GetUserID lets ownership policies inspect the controller.
func (c *Controller) GetUserID() uint { return c.Owner() }

func (c *Controller) Kind() Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind
}

func (c *Controller) Lang() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Form returns a copy of the current model.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Clone()
}

// State is a consistent view of the controller.
type State struct {
	ID       string    `json:"fid"`
	Kind     Kind      `json:"kind"`
	Lang     string    `json:"lang"`
	Year     string    `json:"year"`
	Status   Status    `json:"status"`
	Mode     string    `json:"mode"`
	Dirty    bool      `json:"dirty"`
	LastSave time.Time `json:"lastSave,omitzero"`
	Form     Form      `json:"form"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	dirty := c.seq != c.savedSeq || c.id == ""
	year := c.form.Fiscal.Year
	if year == "" {
		year = c.year
	}
	return State{
		ID:       c.id,
		Kind:     c.kind,
		Lang:     c.lang,
		Year:     year,
		Status:   c.status,
		Mode:     c.mode.String(),
		Dirty:    dirty,
		LastSave: c.lastSave,
		Form:     c.form.Clone(),
	}
}

// IdleSince reports the time of the last change or load.
func (c *Controller) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}
