package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-intake/gate"
	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/internal/models"
	"github.com/diewo77/go-intake/internal/services"
	"github.com/diewo77/go-intake/internal/storage"
	"github.com/diewo77/go-intake/validation"
	"github.com/diewo77/go-intake/view"
)

// PageHandler serves the server-rendered intake pages.
type PageHandler struct {
	svc       *services.CaseService
	maxUpload int64
}

func NewPageHandler(svc *services.CaseService, maxUpload int64) *PageHandler {
	return &PageHandler{svc: svc, maxUpload: maxUpload}
}

// yearHint is the fiscal year carried by the URL, used when a case is created.
func yearHint(r *http.Request) string {
	if y := r.URL.Query().Get("year"); y != "" {
		return y
	}
	return r.URL.Query().Get("annee")
}

// pageFlow resolves the flow and step of a /{slug}/{step} or
// /staff/{slug}/{step} request.
func (h *PageHandler) pageFlow(r *http.Request) (intake.Flow, intake.Step, error) {
	id := r.PathValue("slug")
	if strings.HasPrefix(r.URL.Path, "/staff/") {
		id = "staff-" + id
	}
	flow, err := h.svc.Flow(id)
	if err != nil {
		return intake.Flow{}, intake.Step{}, err
	}
	step, _, ok := flow.Step(r.PathValue("step"))
	if !ok {
		return intake.Flow{}, intake.Step{}, intake.ErrUnknownStep
	}
	return flow, step, nil
}

// stepPage is what a step page renders from.
type stepPage struct {
	flow       intake.Flow
	step       intake.Step
	state      intake.State
	violations validation.Violations
	banner     string
}

type stepLink struct {
	Name    string
	Current bool
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, p stepPage) {
	ctx := r.Context()
	lang := i18n.LangFromContext(ctx)
	fid := p.state.ID
	links := make([]stepLink, 0, len(p.flow.Steps))
	for _, s := range p.flow.Steps {
		links = append(links, stepLink{Name: s.Name, Current: s.Name == p.step.Name})
	}
	data := map[string]any{
		"Title":      view.Title(i18n.T(lang, "step."+p.step.Name), i18n.T(lang, "kind."+string(p.flow.Kind))),
		"Kind":       p.flow.Kind,
		"Staff":      p.flow.Staff(),
		"Steps":      links,
		"FID":        fid,
		"Status":     p.state.Status,
		"LastSave":   p.state.LastSave,
		"Editable":   p.state.Status.Editable(),
		"Final":      p.step.Final,
		"Action":     p.flow.URL(p.step.Name, fid, lang),
		"Sections":   buildSections(lang, p.step.Sections, p.state.Form, p.violations),
		"Violations": intake.Localize(lang, p.violations),
		"Banner":     p.banner,
	}
	if p.step.Final {
		data["Summary"] = intake.Summary(p.flow.Sections(), p.state.Form)
	}
	if p.step.Attachments || p.step.Final {
		data["ShowAttachments"] = true
		files, err := h.svc.Attachments(ctx, p.flow, fid)
		if err != nil {
			renderError(w, r, err)
			return
		}
		data["Attachments"] = files
	}
	if err := view.RenderStatus(w, r, status, "step.html", data); err != nil {
		renderError(w, r, err)
	}
}

func (h *PageHandler) missingCase(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	view.RenderStatus(w, r, http.StatusBadRequest, "fid_missing.html", map[string]any{
		"Title":   i18n.T(lang, "error.fid_missing"),
		"Restart": "/?lang=" + lang,
	})
}

// Show renders a step. Pages that work on stored data need a case id.
func (h *PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	flow, step, err := h.pageFlow(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	fid := r.URL.Query().Get("fid")
	if fid == "" && (step.Attachments || step.Final) {
		h.missingCase(w, r)
		return
	}
	action := gate.ActionView
	if fid == "" {
		action = gate.ActionCreate
	}
	ctl, err := h.svc.Open(r.Context(), flow, fid, action)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if fid == "" {
		// Nothing is stored until the first save.
		defer ctl.Close()
		ctl.SetContext(i18n.LangFromContext(r.Context()), yearHint(r))
	}
	h.render(w, r, http.StatusOK, stepPage{flow: flow, step: step, state: ctl.State()})
}

// Submit handles the form posts of a step page. The action field selects
// save, continue, upload, pay or finish.
func (h *PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, step, err := h.pageFlow(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	lang := i18n.LangFromContext(ctx)
	fid := r.URL.Query().Get("fid")

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.upload(w, r, flow, step, fid)
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, r, intake.ErrInvalidPatch)
		return
	}
	patch, _ := formPatch(r.PostForm)

	switch r.PostForm.Get("action") {
	case "continue":
		t, err := h.svc.Advance(ctx, flow, step.Name, fid, lang, yearHint(r), patch)
		if err != nil {
			h.failed(w, r, flow, step, fid, patch, err)
			return
		}
		if t.Allowed() {
			http.Redirect(w, r, t.Next, http.StatusSeeOther)
			return
		}
		state, err := h.stateAfterRefusal(r, flow, t.CaseID, patch)
		if err != nil {
			renderError(w, r, err)
			return
		}
		h.render(w, r, http.StatusUnprocessableEntity, stepPage{
			flow: flow, step: step, state: state,
			violations: t.Violations,
			banner:     i18n.T(lang, "error.validation"),
		})
	case "pay":
		sess, err := h.svc.Checkout(ctx, flow, fid)
		if err != nil {
			h.failed(w, r, flow, step, fid, nil, err)
			return
		}
		http.Redirect(w, r, sess.URL, http.StatusSeeOther)
	case "finish":
		if err := h.svc.Finish(ctx, flow, fid); err != nil {
			h.failed(w, r, flow, step, fid, nil, err)
			return
		}
		http.Redirect(w, r, "/merci?fid="+fid+"&lang="+lang, http.StatusSeeOther)
	default:
		if fid == "" && len(patch) == 0 {
			http.Redirect(w, r, flow.URL(step.Name, "", lang), http.StatusSeeOther)
			return
		}
		st, err := h.svc.Patch(ctx, flow, fid, lang, yearHint(r), patch)
		if err != nil {
			h.failed(w, r, flow, step, fid, patch, err)
			return
		}
		http.Redirect(w, r, flow.URL(step.Name, st.ID, lang), http.StatusSeeOther)
	}
}

func (h *PageHandler) upload(w http.ResponseWriter, r *http.Request, flow intake.Flow, step intake.Step, fid string) {
	if fid == "" {
		h.missingCase(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	file, hdr, err := r.FormFile("file")
	if err != nil {
		h.failed(w, r, flow, step, fid, nil, uploadError(err))
		return
	}
	defer file.Close()
	if _, err := h.svc.Upload(r.Context(), flow, fid, hdr.Filename, file); err != nil {
		h.failed(w, r, flow, step, fid, nil, err)
		return
	}
	http.Redirect(w, r, flow.URL(step.Name, fid, i18n.LangFromContext(r.Context())), http.StatusSeeOther)
}

// failed shows recoverable errors as a banner over the step and sends the
// rest to the error page.
func (h *PageHandler) failed(w http.ResponseWriter, r *http.Request, flow intake.Flow, step intake.Step, fid string, patch []byte, err error) {
	status, code := statusOf(err)
	switch code {
	case "save_failed", "no_attachments", "unsupported_file", "file_too_large", "checkout_failed":
	default:
		renderError(w, r, err)
		return
	}
	state, serr := h.stateAfterRefusal(r, flow, fid, patch)
	if serr != nil {
		renderError(w, r, err)
		return
	}
	lang := i18n.LangFromContext(r.Context())
	h.render(w, r, status, stepPage{flow: flow, step: step, state: state, banner: i18n.T(lang, "error."+code)})
}

// stateAfterRefusal rebuilds what the visitor typed when the move was
// refused. Without a stored case the posted fields are shown as they came.
func (h *PageHandler) stateAfterRefusal(r *http.Request, flow intake.Flow, fid string, patch []byte) (intake.State, error) {
	if fid != "" {
		ctl, err := h.svc.Open(r.Context(), flow, fid, gate.ActionView)
		if err != nil {
			return intake.State{}, err
		}
		return ctl.State(), nil
	}
	form := intake.LoadForm(nil)
	if len(patch) > 0 {
		if f, err := intake.ApplyPatch(form, patch); err == nil {
			form = intake.Mask(f)
		}
	}
	return intake.State{Kind: flow.Kind, Status: intake.StatusDraft, Form: form}, nil
}

// caseRow is a line of the case list on the home page.
type caseRow struct {
	ID        string
	Kind      intake.Kind
	Year      string
	Status    intake.Status
	UpdatedAt time.Time
	URL       string
	InPerson  bool
}

type flowLink struct {
	Kind  intake.Kind
	Staff bool
	URL   string
}

// Home lists the visitor's cases and the flows they may start. Staff see
// every case with ?all=1.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := i18n.LangFromContext(ctx)
	assist := h.svc.CanAssist(ctx)
	var flows []flowLink
	for _, f := range h.svc.Catalog().All() {
		if f.Staff() && !assist {
			continue
		}
		flows = append(flows, flowLink{Kind: f.Kind, Staff: f.Staff(), URL: f.URL(f.First().Name, "", lang)})
	}
	data := map[string]any{"Title": i18n.T(lang, "ui.my_cases"), "Flows": flows}

	all := r.URL.Query().Get("all") == "1" && assist
	cases, err := h.svc.List(ctx, all)
	switch {
	case errors.Is(err, gate.ErrUnauthenticated):
	case err != nil:
		renderError(w, r, err)
		return
	default:
		data["Cases"] = h.rows(cases, all, lang)
	}
	if err := view.Render(w, r, "index.html", data); err != nil {
		renderError(w, r, err)
	}
}

func (h *PageHandler) rows(cases []models.Case, inPerson bool, lang string) []caseRow {
	variant := intake.VariantOnline
	if inPerson {
		variant = intake.VariantInPerson
	}
	out := make([]caseRow, 0, len(cases))
	for i := range cases {
		c := &cases[i]
		kind, err := c.Kind()
		if err != nil {
			continue
		}
		flow, ok := h.svc.Catalog().Lookup(kind, variant)
		if !ok {
			continue
		}
		out = append(out, caseRow{
			ID:        c.ID,
			Kind:      kind,
			Year:      c.Annee,
			Status:    c.CaseStatus(),
			UpdatedAt: c.UpdatedAt,
			URL:       flow.URL(flow.First().Name, c.ID, lang),
			InPerson:  inPerson,
		})
	}
	return out
}

// Thanks is the landing page after submission or payment.
func (h *PageHandler) Thanks(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	view.Render(w, r, "thanks.html", map[string]any{
		"Title": i18n.T(lang, "ui.thanks"),
		"FID":   r.URL.Query().Get("fid"),
	})
}

func uploadError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return errors.Join(err, storage.ErrTooLarge)
	}
	return errors.Join(err, intake.ErrInvalidPatch)
}
