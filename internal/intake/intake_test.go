package intake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// memStore is an in-memory Store that records calls.
type memStore struct {
	mu      sync.Mutex
	drafts  map[string]Draft
	creates int
	saves   int
	failErr error
}

func newMemStore() *memStore { return &memStore{drafts: map[string]Draft{}} }

func (s *memStore) Create(_ context.Context, d Draft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	s.creates++
	d.ID = fmt.Sprintf("case-%d", s.creates)
	s.drafts[d.ID] = d
	return d.ID, nil
}

func (s *memStore) Save(_ context.Context, id string, payload []byte, lang, year string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	d, ok := s.drafts[id]
	if !ok {
		return errors.New("no such draft")
	}
	s.saves++
	d.Payload, d.Lang, d.Year = payload, lang, year
	s.drafts[id] = d
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, errors.New("not found")
	}
	return d, nil
}

func (s *memStore) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates, s.saves
}

// manualTimers hands out timers that only fire when the test says so.
type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualTimers) AfterFunc(_ time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{f: f}
	m.timers = append(m.timers, t)
	return t
}

// fire runs every timer that was not stopped and returns how many ran.
func (m *manualTimers) fire() int {
	m.mu.Lock()
	var live []*manualTimer
	for _, t := range m.timers {
		if !t.stopped {
			t.stopped = true
			live = append(live, t)
		}
	}
	m.mu.Unlock()
	for _, t := range live {
		t.f()
	}
	return len(live)
}

func (m *manualTimers) armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func validIndividual() Form {
	return Form{
		Identity:      Identity{FirstName: "Marie", LastName: "Tremblay", SIN: "046-454-286", DateOfBirth: "15/06/1985"},
		Contact:       Contact{Email: "Marie@Example.ca ", Phone: "514-555-0100", Street: "1 rue Principale", City: "Montréal", Province: "QC", PostalCode: "h2x 1y4"},
		Fiscal:        Fiscal{Year: "2024"},
		Spouse:        Spouse{HasSpouse: No},
		Household:     Household{DependantCount: "0", Dependants: []Dependant{}},
		Insurance:     Insurance{Start: "01/01/2024", End: "31/12/2024"},
		Business:      Business{Expenses: map[string]string{}},
		Confirmations: Confirmations{Accuracy: true, Documents: true, Authorization: true, Terms: true},
	}
}

var individualInfo = []string{SectionIdentity, SectionContact, SectionFiscal, SectionSpouse, SectionHousehold, SectionInsurance}
