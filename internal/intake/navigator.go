package intake

import (
	"context"
	"fmt"

	"github.com/diewo77/go-intake/validation"
)

// Transition is the outcome of an attempt to leave a step.
type Transition struct {
	// Next is the URL of the following step; empty when the move was refused.
	Next       string                `json:"next,omitempty"`
	CaseID     string                `json:"fid,omitempty"`
	Violations validation.Violations `json:"violations,omitempty"`
	Summary    []SectionStatus       `json:"summary"`
}

// Allowed reports whether navigation may proceed.
func (t Transition) Allowed() bool { return t.Next != "" }

// Advance validates the sections of step and, when they are clean, forces a
// save and returns the next step URL. Violations refuse the move without
// saving. A failed save returns an error and no URL. Steps before the
// current one are not re-validated.
func Advance(ctx context.Context, flow Flow, step string, ctl *Controller) (Transition, error) {
	cur, _, ok := flow.Step(step)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	next, err := flow.Next(step)
	if err != nil {
		return Transition{}, err
	}
	form := ctl.Form()
	t := Transition{Summary: Summary(cur.Sections, form)}
	if v := Validate(cur.Sections, form); !v.Empty() {
		t.Violations = v
		t.CaseID = ctl.ID()
		return t, nil
	}
	if err := ctl.Flush(ctx); err != nil {
		return Transition{}, err
	}
	t.CaseID = ctl.ID()
	t.Next = flow.URL(next.Name, t.CaseID, ctl.Lang())
	return t, nil
}
