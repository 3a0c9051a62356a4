package intake

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the tax form family of a case. It never changes after creation.
type Kind string

const (
	KindIndividual   Kind = "individual"
	KindSelfEmployed Kind = "self_employed"
	KindCorporate    Kind = "corporate"
)

var kindSlugs = map[Kind]string{
	KindIndividual:   "t1",
	KindSelfEmployed: "ta",
	KindCorporate:    "t2",
}

// ParseKind accepts canonical names and the t1/ta/t2 slugs.
func ParseKind(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for k, slug := range kindSlugs {
		if v == string(k) || v == slug {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Slug is the short route segment of the kind.
func (k Kind) Slug() string { return kindSlugs[k] }

// Variant distinguishes self-serve flows from staff-assisted ones.
type Variant string

const (
	VariantOnline   Variant = "online"
	VariantInPerson Variant = "in_person"
)

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "online", "en_ligne":
		return VariantOnline, nil
	case "in_person", "presentiel", "staff":
		return VariantInPerson, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Status is the lifecycle position of a case.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusReadyForPayment Status = "ready_for_payment"
	StatusSubmitted       Status = "submitted"
)

// ParseStatus maps stored spellings to a Status. Staff flows historically wrote "recu".
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "draft", "brouillon":
		return StatusDraft, nil
	case "ready_for_payment":
		return StatusReadyForPayment, nil
	case "submitted", "recu", "reçu":
		return StatusSubmitted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// CanTransition allows draft -> ready_for_payment -> submitted only.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusReadyForPayment
	case StatusReadyForPayment:
		return to == StatusSubmitted
	}
	return false
}

// Editable reports whether the payload may still change.
func (s Status) Editable() bool { return s != StatusSubmitted }

// Answer is a yes/no question that may be left unanswered.
type Answer string

const (
	Unanswered Answer = ""
	Yes        Answer = "yes"
	No         Answer = "no"
)

// ParseAnswer accepts French, English and Spanish spellings, booleans and 0/1.
// Anything else is Unanswered.
func ParseAnswer(v any) Answer {
	switch t := v.(type) {
	case Answer:
		return ParseAnswer(string(t))
	case bool:
		if t {
			return Yes
		}
		return No
	case float64:
		return ParseAnswer(fmt.Sprint(t))
	case int:
		return ParseAnswer(fmt.Sprint(t))
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "oui", "si", "sí", "true", "1", "y", "o":
			return Yes
		case "no", "non", "false", "0", "n":
			return No
		}
	}
	return Unanswered
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = ParseAnswer(v)
	return nil
}

func (a Answer) IsYes() bool { return a == Yes }
