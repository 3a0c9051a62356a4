// Package checkout talks to the hosted payment gateway: it opens checkout
// sessions and verifies the webhooks that report their completion.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNotConfigured = errors.New("checkout gateway is not configured")
	ErrGateway       = errors.New("checkout gateway error")
)

// Config holds the gateway endpoint and credentials.
type Config struct {
	BaseURL    string
	APIKey     string
	SuccessURL string
	CancelURL  string
	Mode       string
	Timeout    time.Duration
}

// Request describes the case being paid for.
type Request struct {
	CaseID string `json:"fid"`
	Type   string `json:"type"`
	Lang   string `json:"lang"`
	// StaffRef identifies the assisting staff member on in-person flows.
	StaffRef string `json:"cqId,omitempty"`
}

// Session is an opened hosted checkout page.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type sessionBody struct {
	Request
	Mode       string `json:"mode"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// Client opens checkout sessions.
type Client struct {
	cfg  Config
	http *resty.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.Mode == "" {
		cfg.Mode = "payment"
	}
	return &Client{cfg: cfg, http: resty.New().SetTimeout(timeout)}
}

// CreateSession asks the gateway for a hosted checkout page.
func (c *Client) CreateSession(ctx context.Context, req Request) (Session, error) {
	if c.cfg.BaseURL == "" {
		return Session{}, ErrNotConfigured
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/checkout/sessions"
	body := sessionBody{Request: req, Mode: c.cfg.Mode, SuccessURL: c.cfg.SuccessURL, CancelURL: c.cfg.CancelURL}

	var out Session
	r, err := c.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Idempotency-Key", "case-"+req.CaseID).
		SetBody(body).
		SetResult(&out).
		Post(url)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if r.IsError() {
		return Session{}, fmt.Errorf("%w: %s; body: %s", ErrGateway, r.Status(), abbreviate(r.String(), 500))
	}
	if out.ID == "" || out.URL == "" {
		return Session{}, fmt.Errorf("%w: incomplete session in response", ErrGateway)
	}
	return out, nil
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
