package main

import (
	"context"
	"net/http"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/gate"
	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/handlers"
	"github.com/diewo77/go-intake/internal/policy"
	"github.com/diewo77/go-intake/internal/services"
	"github.com/diewo77/go-intake/view"
	"gorm.io/gorm"
)

// langCookie remembers an explicit language choice.
const langCookie = "cq_lang"

// AppDeps is everything the HTTP layer needs.
type AppDeps struct {
	DB            *gorm.DB
	Gate          *policy.AuthGate
	Cases         *services.CaseService
	Files         handlers.FileResolver
	WebhookSecret string
	MaxUpload     int64
}

// App is the main application handler that sets up all routes.
type App struct {
	mux  *http.ServeMux
	deps AppDeps
}

// NewApp creates a new application with all routes configured.
func NewApp(d AppDeps) *App {
	app := &App{mux: http.NewServeMux(), deps: d}
	// Templates check permissions through callbacks so that view does not
	// depend on policy.
	view.SetCanProfileResolver(func(r *http.Request, resource, action string) bool {
		return d.Gate.CanProfile(r.Context(), gate.Action(action), resource)
	})
	view.SetIsAdminResolver(func(r *http.Request) bool {
		return d.Gate.IsAdmin(r.Context())
	})
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := auth.Middleware(withPreferences(a.mux))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	d := a.deps
	ah := handlers.NewAuthHandler(d.DB)
	ph := handlers.NewPageHandler(d.Cases, d.MaxUpload)
	api := handlers.NewAPIHandler(d.Cases, handlers.APIConfig{
		Files:         d.Files,
		WebhookSecret: d.WebhookSecret,
		MaxUpload:     d.MaxUpload,
		Ping: func(ctx context.Context) error {
			sqlDB, err := d.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	// Public
	a.mux.HandleFunc("GET /{$}", ph.Home)
	a.mux.HandleFunc("GET /merci", ph.Thanks)
	a.mux.HandleFunc("GET /healthz", api.Health)
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("GET /signup", ah.Signup)
	a.mux.HandleFunc("POST /signup", ah.Signup)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	// Signed by the gateway and by the storage token respectively.
	a.mux.HandleFunc("POST /webhooks/checkout", api.Webhook)
	a.mux.HandleFunc("GET /files/{token}", api.File)

	// Intake pages
	a.mux.Handle("GET /{slug}/{step}", a.requireAuth(ph.Show))
	a.mux.Handle("POST /{slug}/{step}", a.requireAuth(ph.Submit))
	a.mux.Handle("GET /staff/{slug}/{step}", a.requireAuth(ph.Show))
	a.mux.Handle("POST /staff/{slug}/{step}", a.requireAuth(ph.Submit))

	// JSON API
	a.mux.HandleFunc("GET /api/flows", api.Flows)
	a.mux.Handle("GET /api/forms/{flow}/draft", a.requireAuth(api.Draft))
	a.mux.Handle("PATCH /api/forms/{flow}/draft", a.requireAuth(api.PatchDraft))
	a.mux.Handle("GET /api/forms/{flow}/steps/{step}/validate", a.requireAuth(api.Validate))
	a.mux.Handle("POST /api/forms/{flow}/steps/{step}/advance", a.requireAuth(api.Advance))
	a.mux.Handle("POST /api/forms/{flow}/finish", a.requireAuth(api.Finish))
	a.mux.Handle("GET /api/cases/{fid}/attachments", a.requireAuth(api.Attachments))
	a.mux.Handle("POST /api/cases/{fid}/attachments", a.requireAuth(api.Upload))
	a.mux.Handle("GET /api/cases/{fid}/summary.pdf", a.requireAuth(api.SummaryPDF))
	a.mux.Handle("GET /api/attachments/{id}/url", a.requireAuth(api.AttachmentURL))
	a.mux.Handle("POST /api/checkout", a.requireAuth(api.Checkout))

	// Admin
	auph := handlers.NewAdminUserProfileHandler(d.DB, d.Gate)
	aph := handlers.NewAdminProfileHandler(d.DB, d.Gate)
	a.mux.Handle("GET /admin/users", a.requireAdmin(auph.List))
	a.mux.Handle("POST /admin/users/{id}/profile", a.requireAdmin(auph.AssignProfile))
	a.mux.Handle("GET /admin/profiles", a.requireAdmin(aph.List))
	a.mux.Handle("GET /admin/permissions", a.requireAdmin(aph.ListPermissions))
	a.mux.Handle("POST /admin/profiles/{id}/permissions", a.requireAdmin(aph.SavePermissions))
}

func (a *App) requireAuth(next http.HandlerFunc) http.Handler {
	return auth.RequireAuth(next)
}

// requireAdmin requires the superadmin permission on top of a session.
func (a *App) requireAdmin(next http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.deps.Gate.RequireAdmin()(next))
}

// withPreferences resolves the interface language: ?lang=, then the
// cq_lang cookie, then Accept-Language, then French. An explicit ?lang= is
// remembered.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if q := r.URL.Query().Get("lang"); i18n.IsSupported(q) {
			lang = i18n.Normalize(q)
			http.SetCookie(w, &http.Cookie{
				Name:     langCookie,
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		if lang == "" {
			if c, err := r.Cookie(langCookie); err == nil && i18n.IsSupported(c.Value) {
				lang = i18n.Normalize(c.Value)
			}
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
