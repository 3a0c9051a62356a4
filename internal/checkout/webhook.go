package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// SignatureHeader carries "sha256=<hex HMAC of the raw body>".
const SignatureHeader = "X-Checkout-Signature"

// EventCompleted is sent once the customer has paid.
const EventCompleted = "checkout.completed"

var (
	ErrBadSignature = errors.New("invalid webhook signature")
	ErrBadEvent     = errors.New("malformed webhook event")
)

// Event is a gateway notification.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	CaseID    string `json:"fid"`
}

// Sign computes the signature header value of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature header against body in constant time.
func Verify(secret string, body []byte, header string) error {
	if secret == "" {
		return ErrNotConfigured
	}
	got, ok := strings.CutPrefix(strings.TrimSpace(header), "sha256=")
	if !ok {
		return ErrBadSignature
	}
	want := strings.TrimPrefix(Sign(secret, body), "sha256=")
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return ErrBadSignature
	}
	return nil
}

// ParseEvent verifies and decodes a webhook delivery.
func ParseEvent(secret string, body []byte, header string) (Event, error) {
	if err := Verify(secret, body, header); err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil || ev.Type == "" || ev.SessionID == "" {
		return Event{}, ErrBadEvent
	}
	return ev, nil
}
