package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/checkout"
	"github.com/diewo77/go-intake/internal/db"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/internal/models"
	"github.com/diewo77/go-intake/internal/policy"
	"github.com/diewo77/go-intake/internal/services"
	"github.com/diewo77/go-intake/internal/storage"
	"github.com/diewo77/go-intake/internal/store"
	"github.com/diewo77/go-intake/validation"
	"github.com/diewo77/go-intake/view"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_test"

type fakeGateway struct {
	mu    sync.Mutex
	calls int
}

func (g *fakeGateway) CreateSession(_ context.Context, req checkout.Request) (checkout.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	id := "cs_" + req.CaseID[:8]
	return checkout.Session{ID: id, URL: "https://pay.example/" + id}, nil
}

type testServer struct {
	db     *gorm.DB
	mux    *http.ServeMux
	gw     *fakeGateway
	gate   *policy.AuthGate
	client uint
	staff  uint
	admin  uint
}

// withIdentity stands in for the session cookie: X-User carries the user id.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if v := r.Header.Get("X-User"); v != "" {
			id, _ := strconv.ParseUint(v, 10, 64)
			ctx = auth.WithUserID(ctx, uint(id))
		}
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = i18n.DefaultLang
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(ctx, lang)))
	})
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	view.ResetForTests()
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(d); err != nil {
		t.Fatal(err)
	}
	if err := db.SeedProfiles(d); err != nil {
		t.Fatal(err)
	}
	if err := db.SeedAccounts(d, db.DevAccounts); err != nil {
		t.Fatal(err)
	}
	bucket, err := storage.NewLocal(t.TempDir(), 1<<16, "test-key")
	if err != nil {
		t.Fatal(err)
	}
	gw := &fakeGateway{}
	authz := policy.NewCaseGate(d, time.Minute)
	svc := services.NewCaseService(services.Deps{
		DB:       d,
		Sessions: services.NewSessions(store.NewCaseStore(d), time.Minute, intake.WithDelay(time.Hour)),
		Gate:     authz,
		Bucket:   bucket,
		Gateway:  gw,
	})
	pages := NewPageHandler(svc, 1<<16)
	api := NewAPIHandler(svc, APIConfig{Files: bucket, WebhookSecret: webhookSecret, MaxUpload: 1 << 16})
	users := NewAdminUserProfileHandler(d, authz)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", pages.Home)
	mux.HandleFunc("GET /{slug}/{step}", pages.Show)
	mux.HandleFunc("POST /{slug}/{step}", pages.Submit)
	mux.HandleFunc("GET /staff/{slug}/{step}", pages.Show)
	mux.HandleFunc("POST /staff/{slug}/{step}", pages.Submit)
	mux.HandleFunc("GET /api/flows", api.Flows)
	mux.HandleFunc("GET /api/forms/{flow}/draft", api.Draft)
	mux.HandleFunc("PATCH /api/forms/{flow}/draft", api.PatchDraft)
	mux.HandleFunc("GET /api/forms/{flow}/steps/{step}/validate", api.Validate)
	mux.HandleFunc("POST /api/forms/{flow}/steps/{step}/advance", api.Advance)
	mux.HandleFunc("POST /api/forms/{flow}/finish", api.Finish)
	mux.HandleFunc("GET /api/cases/{fid}/attachments", api.Attachments)
	mux.HandleFunc("POST /api/cases/{fid}/attachments", api.Upload)
	mux.HandleFunc("GET /api/attachments/{id}/url", api.AttachmentURL)
	mux.HandleFunc("POST /api/checkout", api.Checkout)
	mux.HandleFunc("POST /webhooks/checkout", api.Webhook)
	mux.HandleFunc("GET /files/{token}", api.File)
	mux.HandleFunc("GET /healthz", api.Health)
	mux.HandleFunc("GET /admin/users", users.List)
	mux.HandleFunc("POST /admin/users/{id}/profile", users.AssignProfile)

	s := &testServer{db: d, mux: mux, gw: gw, gate: authz}
	id := func(email string) uint {
		var u models.User
		if err := d.Where("email = ?", email).First(&u).Error; err != nil {
			t.Fatal(err)
		}
		return u.ID
	}
	s.client = id("client@intake.local")
	s.staff = id("staff@intake.local")
	s.admin = id("admin@intake.local")
	return s
}

func (s *testServer) do(uid uint, method, target string, body io.Reader, header ...string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, body)
	if uid != 0 {
		r.Header.Set("X-User", strconv.FormatUint(uint64(uid), 10))
	}
	for i := 0; i+1 < len(header); i += 2 {
		r.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	withIdentity(s.mux).ServeHTTP(rec, r)
	return rec
}

func (s *testServer) postForm(uid uint, target string, form url.Values) *httptest.ResponseRecorder {
	return s.do(uid, http.MethodPost, target, strings.NewReader(form.Encode()), "Content-Type", "application/x-www-form-urlencoded")
}

func (s *testServer) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := s.db.Model(&models.Case{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func infoForm() url.Values {
	return url.Values{
		"identity.firstName":       {"Marie"},
		"identity.lastName":        {"Tremblay"},
		"identity.sin":             {"046 454 286"},
		"identity.dateOfBirth":     {"15/06/1985"},
		"contact.email":            {"marie@example.ca"},
		"contact.phone":            {"514-555-0100"},
		"contact.street":           {"1 rue Principale"},
		"contact.city":             {"Montréal"},
		"contact.province":         {"QC"},
		"contact.postalCode":       {"H2X 1Y4"},
		"fiscal.year":              {"2024"},
		"spouse.hasSpouse":         {"no"},
		"household.dependantCount": {"0"},
		"insurance.start":          {"01/01/2024"},
		"insurance.end":            {"31/12/2024"},
	}
}

func fidFrom(t *testing.T, location string) string {
	t.Helper()
	u, err := url.Parse(location)
	if err != nil {
		t.Fatal(err)
	}
	fid := u.Query().Get("fid")
	if fid == "" {
		t.Fatalf("no fid in %q", location)
	}
	return fid
}

func TestFormPatchBuildsArraysAndKeepsLastValue(t *testing.T) {
	patch, ok := formPatch(url.Values{
		"household.dependants.1.firstName": {"Léa"},
		"household.dependants.0.firstName": {"Tom"},
		"household.dependants.2.firstName": {""},
		"confirmations.terms":              {"false", "true"},
		"action":                           {"save"},
		"bogus.field":                      {"x"},
	})
	if !ok {
		t.Fatal("no patch")
	}
	var got map[string]any
	if err := json.Unmarshal(patch, &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["bogus"]; ok {
		t.Fatal("unknown section kept")
	}
	deps := got["household"].(map[string]any)["dependants"].([]any)
	if len(deps) != 2 || deps[0].(map[string]any)["firstName"] != "Tom" || deps[1].(map[string]any)["firstName"] != "Léa" {
		t.Fatalf("dependants = %v", deps)
	}
	form, err := intake.ApplyPatch(intake.LoadForm(nil), patch)
	if err != nil {
		t.Fatal(err)
	}
	if !form.Confirmations.Terms || len(form.Household.Dependants) != 2 {
		t.Fatalf("form = %+v", form)
	}
	if _, ok := formPatch(url.Values{"action": {"save"}}); ok {
		t.Fatal("patch built from no field")
	}
}

func TestBuildSectionsFlattensFields(t *testing.T) {
	form := intake.LoadForm(nil)
	form.Household.Dependants = []intake.Dependant{{FirstName: "Tom"}}
	form.Business.Expenses = map[string]string{"fuel": "12"}
	vs := intake.Validate([]string{intake.SectionHousehold, intake.SectionBusiness}, form)
	secs := buildSections("en", []string{intake.SectionHousehold, intake.SectionBusiness}, form, vs)
	fields := map[string]pageField{}
	for _, s := range secs {
		for _, f := range s.Fields {
			fields[f.Name] = f
		}
	}
	if f := fields["household.dependants.0.firstName"]; f.Value != "Tom" || f.Label != "First name #1" {
		t.Fatalf("dependant field = %+v", f)
	}
	if _, ok := fields["household.dependants.1.firstName"]; !ok {
		t.Fatal("no spare dependant row")
	}
	if f := fields["household.dependants.0.lastName"]; f.Error == "" {
		t.Fatal("violation not attached to its input")
	}
	if f := fields["business.expenses.fuel"]; f.Value != "12" {
		t.Fatalf("extra expense category = %+v", f)
	}
	if f := fields["business.homeOffice"]; f.Type != "answer" {
		t.Fatalf("homeOffice type = %q", f.Type)
	}
	if secs[0].OK {
		t.Fatal("household reported complete")
	}
}

func TestStepPageRendersFields(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(s.client, http.MethodGet, "/t1/info?lang=en", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="identity.firstName"`, `name="spouse.hasSpouse"`, `value="continue"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s", want)
		}
	}
	if s.count(t) != 0 {
		t.Fatal("viewing a blank page stored a case")
	}
}

func TestDocumentsPageWithoutCaseIsTerminal(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/t1/documents", "/t2/send", "/staff/ta/documents"} {
		rec := s.do(s.staff, http.MethodGet, path+"?lang=en", nil)
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), html.EscapeString(i18n.T("en", "error.fid_missing"))) {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
}

func TestUnknownStepIsNotFound(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(s.client, http.MethodGet, "/t1/nowhere", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	if rec := s.do(s.client, http.MethodGet, "/t9/info", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestContinueRefusesInvalidStepWithoutSaving(t *testing.T) {
	s := newTestServer(t)
	form := infoForm()
	form.Del("identity.lastName")
	form.Set("action", "continue")
	rec := s.postForm(s.client, "/t1/info?lang=en", form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", rec.Code)
	}
	msg := intake.Message("en", validation.Violation{Section: "identity", Field: "lastName", Code: "required"})
	body := rec.Body.String()
	if !strings.Contains(body, html.EscapeString(msg)) {
		t.Fatalf("violation %q not shown", msg)
	}
	if !strings.Contains(body, `value="Marie"`) {
		t.Fatal("typed values lost")
	}
	if s.count(t) != 0 {
		t.Fatal("refused move stored a case")
	}
}

func TestContinueSavesAndRedirects(t *testing.T) {
	s := newTestServer(t)
	form := infoForm()
	form.Set("action", "continue")
	rec := s.postForm(s.client, "/t1/info?lang=en&year=2024", form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/t1/documents?") {
		t.Fatalf("redirect %q", loc)
	}
	fid := fidFrom(t, loc)
	var row models.Case
	if err := s.db.First(&row, "id = ?", fid).Error; err != nil {
		t.Fatal(err)
	}
	if row.UserID != s.client || row.Lang != "en" || !strings.Contains(string(row.Data), `"sin":"046454286"`) {
		t.Fatalf("row = %+v %s", row, row.Data)
	}

	page := s.do(s.client, http.MethodGet, loc, nil)
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), `enctype="multipart/form-data"`) {
		t.Fatalf("documents page: %d", page.Code)
	}
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	s := newTestServer(t)
	rec := s.postForm(s.client, "/ta/info?lang=fr", url.Values{"identity.firstName": {"Ana"}, "action": {"save"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d", rec.Code)
	}
	fid := fidFrom(t, rec.Header().Get("Location"))
	rec = s.postForm(s.client, "/ta/info?fid="+fid, url.Values{"identity.lastName": {"Roy"}})
	if rec.Code != http.StatusSeeOther || fidFrom(t, rec.Header().Get("Location")) != fid {
		t.Fatalf("second save: %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if s.count(t) != 1 {
		t.Fatal("second save created another case")
	}
	page := s.do(s.client, http.MethodGet, "/ta/info?fid="+fid, nil)
	if body := page.Body.String(); !strings.Contains(body, `value="Ana"`) || !strings.Contains(body, `value="Roy"`) {
		t.Fatal("saved values not shown")
	}
}

func TestPagesEnforceOwnershipAndStaffRoutes(t *testing.T) {
	s := newTestServer(t)
	rec := s.postForm(s.client, "/t1/info", url.Values{"identity.firstName": {"Ana"}})
	fid := fidFrom(t, rec.Header().Get("Location"))

	if got := s.do(s.staff, http.MethodGet, "/t1/info?fid="+fid, nil).Code; got != http.StatusForbidden {
		t.Fatalf("staff on online route: %d", got)
	}
	if got := s.do(s.staff, http.MethodGet, "/staff/t1/info?fid="+fid, nil).Code; got != http.StatusOK {
		t.Fatalf("staff on in-person route: %d", got)
	}
	if got := s.do(s.client, http.MethodGet, "/staff/t1/info?fid="+fid, nil).Code; got != http.StatusOK {
		t.Fatalf("owner on in-person route: %d", got)
	}
	if got := s.do(0, http.MethodGet, "/t1/info?fid="+fid, nil); got.Code != http.StatusSeeOther || !strings.HasPrefix(got.Header().Get("Location"), "/login?next=") {
		t.Fatalf("anonymous: %d %s", got.Code, got.Header().Get("Location"))
	}
}

func multipartBody(t *testing.T, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.WriteField("action", "upload")
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestPayNeedsAttachmentThenRedirectsToGateway(t *testing.T) {
	s := newTestServer(t)
	form := infoForm()
	form.Set("action", "continue")
	fid := fidFrom(t, s.postForm(s.client, "/t1/info", form).Header().Get("Location"))

	rec := s.postForm(s.client, "/t1/send?lang=en&fid="+fid, url.Values{"action": {"pay"}})
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), html.EscapeString(i18n.T("en", "error.no_attachments"))) {
		t.Fatalf("pay without files: %d", rec.Code)
	}
	if s.gw.calls != 0 {
		t.Fatal("gateway called without attachments")
	}
	confirmed := url.Values{
		"confirmations.accuracy":      {"true"},
		"confirmations.documents":     {"true"},
		"confirmations.authorization": {"true"},
		"confirmations.terms":         {"true"},
		"action":                      {"continue"},
	}
	rec = s.postForm(s.client, "/t1/documents?lang=en&fid="+fid, confirmed)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), html.EscapeString(i18n.T("en", "error.no_attachments"))) {
		t.Fatalf("continue without files: %d", rec.Code)
	}

	body, ct := multipartBody(t, "releve.pdf", []byte("%PDF-1.4\n%x\n"))
	rec = s.do(s.client, http.MethodPost, "/t1/documents?fid="+fid, body, "Content-Type", ct)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	body, ct = multipartBody(t, "virus.exe", []byte("MZ"))
	rec = s.do(s.client, http.MethodPost, "/t1/documents?lang=en&fid="+fid, body, "Content-Type", ct)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("exe upload: %d", rec.Code)
	}

	rec = s.postForm(s.client, "/t1/send?fid="+fid, url.Values{"action": {"pay"}})
	if rec.Code != http.StatusSeeOther || !strings.HasPrefix(rec.Header().Get("Location"), "https://pay.example/cs_") {
		t.Fatalf("pay: %d %s", rec.Code, rec.Header().Get("Location"))
	}
	again := s.postForm(s.client, "/t1/send?fid="+fid, url.Values{"action": {"pay"}})
	if again.Code != http.StatusSeeOther || again.Header().Get("Location") != rec.Header().Get("Location") {
		t.Fatalf("second pay: %d %s", again.Code, again.Header().Get("Location"))
	}
	var row models.Case
	s.db.First(&row, "id = ?", fid)
	if row.Status != string(intake.StatusReadyForPayment) {
		t.Fatalf("status %s", row.Status)
	}
}

func TestAPIDraftLifecycle(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(s.client, http.MethodPatch, "/api/forms/t1/draft?year=2023", strings.NewReader(`{"identity":{"firstName":"Ana"}}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var st intake.State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.ID == "" || st.Year != "2023" {
		t.Fatalf("state = %+v", st)
	}

	rec = s.do(s.client, http.MethodPatch, "/api/forms/t1/draft?fid="+st.ID, strings.NewReader(`[1]`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("array patch: %d", rec.Code)
	}

	rec = s.do(s.client, http.MethodGet, "/api/forms/t1/steps/info/validate?lang=en&fid="+st.ID, nil)
	var v transitionDTO
	json.Unmarshal(rec.Body.Bytes(), &v)
	if rec.Code != http.StatusOK || v.Valid || len(v.Violations) == 0 || v.Violations[0].Message == "" {
		t.Fatalf("validate: %d %+v", rec.Code, v)
	}

	rec = s.do(s.client, http.MethodPost, "/api/forms/t1/steps/info/advance?fid="+st.ID, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("advance invalid: %d", rec.Code)
	}
	patch, _ := formPatch(infoForm())
	rec = s.do(s.client, http.MethodPost, "/api/forms/t1/steps/info/advance?lang=en&fid="+st.ID, bytes.NewReader(patch))
	json.Unmarshal(rec.Body.Bytes(), &v)
	if rec.Code != http.StatusOK || !v.Valid || !strings.HasPrefix(v.Next, "/t1/documents?") {
		t.Fatalf("advance: %d %+v", rec.Code, v)
	}

	if rec := s.do(0, http.MethodGet, "/api/forms/t1/draft?fid="+st.ID, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous draft: %d", rec.Code)
	}
	if rec := s.do(s.staff, http.MethodGet, "/api/forms/t1/draft?fid="+st.ID, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("staff on online flow: %d", rec.Code)
	}
	if rec := s.do(s.staff, http.MethodGet, "/api/forms/staff-t1/draft?fid="+st.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("staff on in-person flow: %d", rec.Code)
	}
}

func TestAPICheckoutAndWebhook(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(s.client, http.MethodPatch, "/api/forms/t1/draft", strings.NewReader(`{"identity":{"firstName":"Ana"}}`))
	var st intake.State
	json.Unmarshal(rec.Body.Bytes(), &st)

	rec = s.do(s.client, http.MethodPost, "/api/checkout", strings.NewReader(`{"flow":"t1"}`), "Content-Type", "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fid: %d", rec.Code)
	}
	req := `{"flow":"t1","fid":"` + st.ID + `"}`
	rec = s.do(s.client, http.MethodPost, "/api/checkout", strings.NewReader(req), "Content-Type", "application/json")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("checkout without files: %d %s", rec.Code, rec.Body)
	}

	body, ct := multipartBody(t, "T4.pdf", []byte("%PDF-1.4\n"))
	rec = s.do(s.client, http.MethodPost, "/api/cases/"+st.ID+"/attachments", body, "Content-Type", ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	var att models.Attachment
	json.Unmarshal(rec.Body.Bytes(), &att)

	rec = s.do(s.client, http.MethodGet, "/api/cases/"+st.ID+"/attachments", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "T4.pdf") {
		t.Fatalf("list: %d", rec.Code)
	}

	rec = s.do(s.client, http.MethodGet, "/api/attachments/"+strconv.FormatUint(uint64(att.ID), 10)+"/url", nil)
	var link struct{ URL string }
	json.Unmarshal(rec.Body.Bytes(), &link)
	if rec.Code != http.StatusOK || link.URL == "" {
		t.Fatalf("url: %d", rec.Code)
	}
	file := s.do(0, http.MethodGet, link.URL, nil)
	if file.Code != http.StatusOK || file.Header().Get("Content-Type") != "application/pdf" || !strings.HasPrefix(file.Body.String(), "%PDF") {
		t.Fatalf("file: %d %q", file.Code, file.Header().Get("Content-Type"))
	}
	if rec := s.do(0, http.MethodGet, "/files/forged", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: %d", rec.Code)
	}

	rec = s.do(s.client, http.MethodPost, "/api/checkout", strings.NewReader(req), "Content-Type", "application/json")
	var sess checkout.Session
	json.Unmarshal(rec.Body.Bytes(), &sess)
	if rec.Code != http.StatusOK || sess.ID == "" {
		t.Fatalf("checkout: %d %s", rec.Code, rec.Body)
	}

	event := []byte(`{"type":"checkout.completed","session_id":"` + sess.ID + `","fid":"` + st.ID + `"}`)
	rec = s.do(0, http.MethodPost, "/webhooks/checkout", bytes.NewReader(event), checkout.SignatureHeader, "sha256=00")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature: %d", rec.Code)
	}
	for i, want := range []string{`"applied":true`, `"applied":false`} {
		rec = s.do(0, http.MethodPost, "/webhooks/checkout", bytes.NewReader(event), checkout.SignatureHeader, checkout.Sign(webhookSecret, event))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("delivery %d: %d %s", i, rec.Code, rec.Body)
		}
	}
	var row models.Case
	s.db.First(&row, "id = ?", st.ID)
	if row.Status != string(intake.StatusSubmitted) {
		t.Fatalf("status %s", row.Status)
	}
	rec = s.do(s.client, http.MethodPatch, "/api/forms/t1/draft?fid="+st.ID, strings.NewReader(`{"identity":{"firstName":"Zoe"}}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("edit after submission: %d", rec.Code)
	}
}

func TestFileDownloadKeepsAccentedName(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(s.client, http.MethodPatch, "/api/forms/t1/draft", strings.NewReader(`{"identity":{"firstName":"Ana"}}`))
	var st intake.State
	json.Unmarshal(rec.Body.Bytes(), &st)

	body, ct := multipartBody(t, "relevé 2024.pdf", []byte("%PDF-1.4\n"))
	rec = s.do(s.client, http.MethodPost, "/api/cases/"+st.ID+"/attachments", body, "Content-Type", ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	var att models.Attachment
	json.Unmarshal(rec.Body.Bytes(), &att)
	rec = s.do(s.client, http.MethodGet, "/api/attachments/"+strconv.FormatUint(uint64(att.ID), 10)+"/url", nil)
	var link struct{ URL string }
	json.Unmarshal(rec.Body.Bytes(), &link)

	file := s.do(0, http.MethodGet, link.URL, nil)
	header := file.Header().Get("Content-Disposition")
	if file.Code != http.StatusOK || strings.Contains(header, `\u`) {
		t.Fatalf("file: %d %q", file.Code, header)
	}
	disposition, params, err := mime.ParseMediaType(header)
	if err != nil || disposition != "attachment" || params["filename"] != "relevé 2024.pdf" {
		t.Fatalf("Content-Disposition %q: %s %v err=%v", header, disposition, params, err)
	}
}

func TestAPIFinishIsStaffOnly(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(s.staff, http.MethodPatch, "/api/forms/staff-t2/draft", strings.NewReader(`{"company":{"name":"ACME"}}`))
	var st intake.State
	json.Unmarshal(rec.Body.Bytes(), &st)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	if rec := s.do(s.staff, http.MethodPost, "/api/forms/t2/finish?fid="+st.ID, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("finish on online flow: %d", rec.Code)
	}
	body, ct := multipartBody(t, "bilan.xlsx", []byte("PK\x03\x04"))
	if rec := s.do(s.staff, http.MethodPost, "/api/cases/"+st.ID+"/attachments?staff=1", body, "Content-Type", ct); rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	if rec := s.do(s.staff, http.MethodPost, "/api/forms/staff-t2/finish?fid="+st.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("finish: %d %s", rec.Code, rec.Body)
	}
	if s.gw.calls != 0 {
		t.Fatal("finish went through the gateway")
	}
}

func TestErrorMessagesFollowLanguage(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(s.client, http.MethodGet, "/api/forms/t1/draft?lang=es&fid=00000000-0000-0000-0000-000000000000", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct{ Error, Message string }
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "not_found" || body.Message != i18n.T("es", "error.not_found") {
		t.Fatalf("body = %+v", body)
	}
}

func TestFlowsAndHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(0, http.MethodGet, "/api/flows", nil)
	var flows []flowDTO
	json.Unmarshal(rec.Body.Bytes(), &flows)
	if len(flows) != 6 || flows[0].URL == "" {
		t.Fatalf("flows = %+v", flows)
	}
	if rec := s.do(0, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz %d", rec.Code)
	}
}

func TestHomeListsCasesAndStaffFlows(t *testing.T) {
	s := newTestServer(t)
	s.postForm(s.client, "/t1/info", url.Values{"identity.firstName": {"Ana"}})

	client := s.do(s.client, http.MethodGet, "/?lang=en", nil).Body.String()
	if !strings.Contains(client, i18n.T("en", "kind.individual")) || strings.Contains(client, "/staff/t1/info") {
		t.Fatal("client home wrong")
	}
	staff := s.do(s.staff, http.MethodGet, "/?all=1&lang=en", nil).Body.String()
	if !strings.Contains(staff, "/staff/t1/info") || !strings.Contains(staff, "fid=") {
		t.Fatal("staff home misses flows or cases")
	}
	if anon := s.do(0, http.MethodGet, "/", nil); anon.Code != http.StatusOK {
		t.Fatalf("anonymous home: %d", anon.Code)
	}
}

func TestAssignProfileInvalidatesCache(t *testing.T) {
	s := newTestServer(t)
	ctx := auth.WithUserID(context.Background(), s.client)
	if s.gate.CanAssist(ctx, s.client) {
		t.Fatal("client can assist")
	}
	var staff models.Profile
	s.db.Where("name = ?", models.ProfileStaff).First(&staff)
	target := "/admin/users/" + strconv.FormatUint(uint64(s.client), 10) + "/profile"
	rec := s.postForm(s.admin, target, url.Values{"profile_id": {strconv.FormatUint(uint64(staff.ID), 10)}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body)
	}
	if !s.gate.CanAssist(ctx, s.client) {
		t.Fatal("cached profile survived the change")
	}
	if rec := s.postForm(s.admin, "/admin/users/9999/profile", url.Values{"profile_id": {"0"}}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user: %d", rec.Code)
	}
	list := s.do(s.admin, http.MethodGet, "/admin/users", nil, "Accept", "application/json")
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), "client@intake.local") {
		t.Fatalf("list: %d", list.Code)
	}
}
