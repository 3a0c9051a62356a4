package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/diewo77/go-intake/gate"
	"github.com/diewo77/go-intake/httpx"
	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/checkout"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/internal/services"
	"github.com/gabriel-vasile/mimetype"
)

// FileResolver serves the bytes behind signed download links.
type FileResolver interface {
	Resolve(token string) (key, name string, err error)
	Open(key string) (io.ReadCloser, error)
}

// APIHandler serves the JSON API used by the form pages' scripts and by
// integrations.
type APIHandler struct {
	svc           *services.CaseService
	files         FileResolver
	webhookSecret string
	maxUpload     int64
	ping          func(context.Context) error
}

// APIConfig wires an APIHandler.
type APIConfig struct {
	Files         FileResolver
	WebhookSecret string
	MaxUpload     int64
	// Ping reports whether the database is reachable; used by /healthz.
	Ping func(context.Context) error
}

func NewAPIHandler(svc *services.CaseService, cfg APIConfig) *APIHandler {
	return &APIHandler{
		svc:           svc,
		files:         cfg.Files,
		webhookSecret: cfg.WebhookSecret,
		maxUpload:     cfg.MaxUpload,
		ping:          cfg.Ping,
	}
}

type flowDTO struct {
	ID      string         `json:"id"`
	Kind    intake.Kind    `json:"kind"`
	Variant intake.Variant `json:"variant"`
	Steps   []intake.Step  `json:"steps"`
	URL     string         `json:"url"`
}

// Flows lists the step sequences a client can follow.
func (h *APIHandler) Flows(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	var out []flowDTO
	for _, f := range h.svc.Catalog().All() {
		out = append(out, flowDTO{ID: f.ID(), Kind: f.Kind, Variant: f.Variant, Steps: f.Steps, URL: f.URL(f.First().Name, "", lang)})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *APIHandler) flow(r *http.Request) (intake.Flow, error) {
	return h.svc.Flow(r.PathValue("flow"))
}

// Draft returns the current state of a case. Without fid it describes the
// blank draft a new case starts from.
func (h *APIHandler) Draft(w http.ResponseWriter, r *http.Request) {
	flow, err := h.flow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fid := r.URL.Query().Get("fid")
	action := gate.ActionView
	if fid == "" {
		action = gate.ActionCreate
	}
	ctl, err := h.svc.Open(r.Context(), flow, fid, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if fid == "" {
		defer ctl.Close()
		ctl.SetContext(i18n.LangFromContext(r.Context()), yearHint(r))
	}
	httpx.JSON(w, http.StatusOK, ctl.State())
}

func readPatch(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, httpx.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrBadJSON, err)
	}
	return body, nil
}

// PatchDraft applies a JSON merge patch. The first patch of a new case
// creates it and answers 201 with its id.
func (h *APIHandler) PatchDraft(w http.ResponseWriter, r *http.Request) {
	flow, err := h.flow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := readPatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fid := r.URL.Query().Get("fid")
	st, err := h.svc.Patch(r.Context(), flow, fid, i18n.LangFromContext(r.Context()), yearHint(r), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if fid == "" {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, st)
}

type transitionDTO struct {
	Valid      bool                        `json:"valid"`
	Next       string                      `json:"next,omitempty"`
	CaseID     string                      `json:"fid,omitempty"`
	Violations []intake.LocalizedViolation `json:"violations"`
	Summary    []intake.SectionStatus      `json:"summary"`
}

func toDTO(lang string, t intake.Transition) transitionDTO {
	return transitionDTO{
		Valid:      t.Violations.Empty(),
		Next:       t.Next,
		CaseID:     t.CaseID,
		Violations: intake.Localize(lang, t.Violations),
		Summary:    t.Summary,
	}
}

// Validate checks a step without saving.
func (h *APIHandler) Validate(w http.ResponseWriter, r *http.Request) {
	flow, err := h.flow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.svc.Validate(r.Context(), flow, r.PathValue("step"), r.URL.Query().Get("fid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(i18n.LangFromContext(r.Context()), t))
}

// Advance applies an optional patch and leaves the step when it is valid.
// A refused move answers 422 with the localized violations.
func (h *APIHandler) Advance(w http.ResponseWriter, r *http.Request) {
	flow, err := h.flow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := readPatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lang := i18n.LangFromContext(r.Context())
	t, err := h.svc.Advance(r.Context(), flow, r.PathValue("step"), r.URL.Query().Get("fid"), lang, yearHint(r), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if !t.Allowed() {
		status = http.StatusUnprocessableEntity
	}
	httpx.JSON(w, status, toDTO(lang, t))
}

// Finish submits an in-person case without payment.
func (h *APIHandler) Finish(w http.ResponseWriter, r *http.Request) {
	flow, err := h.flow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fid := r.URL.Query().Get("fid")
	if err := h.svc.Finish(r.Context(), flow, fid); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"fid": fid, "status": intake.StatusSubmitted})
}

// caseFlow picks the flow of the case in the path. An explicit ?flow= wins;
// ?staff=1 selects the in-person variant.
func (h *APIHandler) caseFlow(r *http.Request, fid string) (intake.Flow, error) {
	if id := r.URL.Query().Get("flow"); id != "" {
		return h.svc.Flow(id)
	}
	return h.svc.FlowOf(r.Context(), fid, inPerson(r))
}

func inPerson(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("staff"))
	return v
}

// Attachments lists the files of a case.
func (h *APIHandler) Attachments(w http.ResponseWriter, r *http.Request) {
	fid := r.PathValue("fid")
	flow, err := h.caseFlow(r, fid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	files, err := h.svc.Attachments(r.Context(), flow, fid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, files)
}

// Upload stores the multipart field "file" for a case.
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	fid := r.PathValue("fid")
	flow, err := h.caseFlow(r, fid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, uploadError(err))
		return
	}
	defer file.Close()
	a, err := h.svc.Upload(r.Context(), flow, fid, hdr.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

// AttachmentURL returns a short-lived download link, or redirects to it
// with ?redirect=1.
func (h *APIHandler) AttachmentURL(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	u, a, err := h.svc.AttachmentURL(r.Context(), uint(id), inPerson(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, u, http.StatusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"url": u, "name": a.OriginalName})
}

// File streams the object behind a signed link.
func (h *APIHandler) File(w http.ResponseWriter, r *http.Request) {
	key, name, err := h.files.Resolve(r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rc, err := h.files.Open(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()
	br := bufio.NewReaderSize(rc, 3072)
	head, _ := br.Peek(3072)
	w.Header().Set("Content-Type", mimetype.Detect(head).String())
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Cache-Control", "private, no-store")
	_, _ = io.Copy(w, br)
}

type checkoutRequest struct {
	Flow string `json:"flow" validate:"required"`
	FID  string `json:"fid" validate:"required,uuid"`
}

// Checkout opens a hosted payment page for a case.
func (h *APIHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	flow, err := h.svc.Flow(req.Flow)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.svc.Checkout(r.Context(), flow, req.FID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

// Webhook receives signed gateway notifications.
func (h *APIHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, httpx.MaxBodyBytes))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	ev, err := checkout.ParseEvent(h.webhookSecret, body, r.Header.Get(checkout.SignatureHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	applied, err := h.svc.CompletePayment(r.Context(), ev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"applied": applied})
}

// SummaryPDF renders the localized case summary.
func (h *APIHandler) SummaryPDF(w http.ResponseWriter, r *http.Request) {
	fid := r.PathValue("fid")
	pdf, err := h.svc.SummaryPDF(r.Context(), fid, i18n.LangFromContext(r.Context()), inPerson(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": "dossier-" + fid + ".pdf"}))
	_, _ = w.Write(pdf)
}

// Health reports liveness and database reachability.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			log.Printf("healthz: %v", err)
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
