package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/diewo77/go-intake/internal/intake"
)

// Sessions keeps the live controller of every case being edited, so that
// successive patches of one case share a single debounced autosave.
type Sessions struct {
	store intake.Store
	idle  time.Duration
	opts  []intake.Option
	now   func() time.Time

	mu   sync.Mutex
	live map[string]*intake.Controller
}

// NewSessions evicts controllers untouched for idle. opts apply to every
// controller it creates.
func NewSessions(store intake.Store, idle time.Duration, opts ...intake.Option) *Sessions {
	s := &Sessions{store: store, idle: idle, now: time.Now, live: map[string]*intake.Controller{}}
	s.opts = append([]intake.Option{intake.WithErrorHandler(logAutosaveError)}, opts...)
	return s
}

func logAutosaveError(caseID string, err error) {
	log.Printf("autosave %s: %v", caseID, err)
}

// New starts an unsaved controller. It is not registered until Add.
func (s *Sessions) New(owner uint, kind intake.Kind) *intake.Controller {
	return intake.NewController(s.store, owner, kind, s.opts...)
}

// Add registers a controller that has been saved at least once.
func (s *Sessions) Add(c *intake.Controller) error {
	id := c.ID()
	if id == "" {
		return errors.New("sessions: controller has no case id")
	}
	s.mu.Lock()
	s.live[id] = c
	s.mu.Unlock()
	return nil
}

// Get returns the live controller of id, loading it from the store when
// needed.
func (s *Sessions) Get(ctx context.Context, id string) (*intake.Controller, error) {
	if c := s.Peek(id); c != nil {
		return c, nil
	}
	c := intake.NewController(s.store, 0, intake.KindIndividual, s.opts...)
	if err := c.Load(ctx, id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.live[id]; ok {
		c.Close()
		return other, nil
	}
	s.live[id] = c
	return c, nil
}

// Peek returns the live controller of id without loading it.
func (s *Sessions) Peek(id string) *intake.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[id]
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Evict flushes and drops the controllers idle for longer than the
// configured period. It returns how many were dropped.
func (s *Sessions) Evict(ctx context.Context) int {
	cutoff := s.now().Add(-s.idle)
	s.mu.Lock()
	var stale []*intake.Controller
	for id, c := range s.live {
		if c.IdleSince().Before(cutoff) {
			stale = append(stale, c)
			delete(s.live, id)
		}
	}
	s.mu.Unlock()

	for _, c := range stale {
		if err := c.Flush(ctx); err != nil {
			logAutosaveError(c.ID(), err)
		}
		c.Close()
	}
	return len(stale)
}

// Run evicts idle controllers every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Evict(ctx); n > 0 {
				log.Printf("sessions: evicted %d idle case(s)", n)
			}
		}
	}
}

// FlushAll saves every pending edit and closes all controllers. Used on
// shutdown.
func (s *Sessions) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	all := s.live
	s.live = map[string]*intake.Controller{}
	s.mu.Unlock()

	var errs []error
	for id, c := range all {
		if err := c.Flush(ctx); err != nil && !errors.Is(err, intake.ErrNotEditable) {
			errs = append(errs, fmt.Errorf("flush %s: %w", id, err))
		}
		c.Close()
	}
	return errors.Join(errs...)
}
