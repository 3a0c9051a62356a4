package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/i18n"
)

func request(target, lang string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	return r.WithContext(i18n.WithLang(r.Context(), lang))
}

func TestRenderUsesRequestLanguage(t *testing.T) {
	ResetForTests()
	for _, tc := range []struct {
		lang, want string
	}{
		{"es", i18n.T("es", "ui.login")},
		{"en", i18n.T("en", "ui.login")},
		{"fr", i18n.T("fr", "ui.login")},
	} {
		rec := httptest.NewRecorder()
		if err := Render(rec, request("/login", tc.lang), "login.html", nil); err != nil {
			t.Fatal(err)
		}
		body := rec.Body.String()
		if !strings.Contains(body, tc.want) || !strings.Contains(body, `lang="`+tc.lang+`"`) {
			t.Errorf("%s page missing %q", tc.lang, tc.want)
		}
	}
}

func TestRenderFillsCommonKeys(t *testing.T) {
	ResetForTests()
	r := request("/t1/info?lang=en", "en")
	r = r.WithContext(auth.WithUserID(r.Context(), 7))
	data := map[string]any{"Message": "boom"}
	rec := httptest.NewRecorder()
	if err := Render(rec, r, "error.html", data); err != nil {
		t.Fatal(err)
	}
	if data["IsLoggedIn"] != true || data["Lang"] != "en" || data["Path"] != "/t1/info?lang=en" {
		t.Fatalf("common keys = %v", data)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type %q", ct)
	}
	// The switcher links keep the path and swap the language.
	if !strings.Contains(rec.Body.String(), "/t1/info?lang=es") {
		t.Fatalf("language switcher missing:\n%s", rec.Body.String())
	}
}

func TestRenderStatus(t *testing.T) {
	ResetForTests()
	rec := httptest.NewRecorder()
	if err := RenderStatus(rec, request("/x", "fr"), http.StatusTeapot, "error.html", map[string]any{"Message": "x"}); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	ResetForTests()
	if err := Render(httptest.NewRecorder(), request("/", "fr"), "nope.html", nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAdminLinkFollowsResolver(t *testing.T) {
	ResetForTests()
	defer SetIsAdminResolver(func(*http.Request) bool { return false })
	SetIsAdminResolver(func(*http.Request) bool { return true })
	r := request("/", "fr")
	r = r.WithContext(auth.WithUserID(r.Context(), 1))
	rec := httptest.NewRecorder()
	if err := Render(rec, r, "error.html", map[string]any{"Message": "x"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Body.String(), `href="/admin/users"`) {
		t.Fatal("admin link not shown")
	}
}

func TestTitle(t *testing.T) {
	if got := Title(" Info ", "", "T1"); got != "Info · T1" {
		t.Fatalf("Title = %q", got)
	}
}
