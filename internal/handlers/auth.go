package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/models"
	"github.com/diewo77/go-intake/view"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler serves the development login portal.
type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

func redirectTarget(r *http.Request) string {
	if next := auth.SafeNext(r.FormValue("next")); next != "" {
		return next
	}
	return "/"
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	if r.Method == http.MethodGet {
		view.Render(w, r, "login.html", map[string]any{
			"Title": i18n.T(lang, "ui.login"),
			"Next":  auth.SafeNext(r.URL.Query().Get("next")),
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	fail := func() {
		view.RenderStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Title": i18n.T(lang, "ui.login"),
			"Error": i18n.T(lang, "error.invalid_login"),
			"Email": email,
			"Next":  auth.SafeNext(r.FormValue("next")),
		})
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		fail()
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		fail()
		return
	}

	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	data := map[string]any{
		"Title": i18n.T(lang, "ui.signup"),
		"Next":  auth.SafeNext(r.FormValue("next")),
	}
	if r.Method == http.MethodGet {
		view.Render(w, r, "signup.html", data)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	name := strings.TrimSpace(r.FormValue("name"))
	data["Email"], data["Name"] = email, name

	if email == "" || password == "" {
		data["Error"] = i18n.T(lang, "error.credentials_empty")
		view.RenderStatus(w, r, http.StatusBadRequest, "signup.html", data)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		data["Error"] = i18n.T(lang, "error.internal")
		view.RenderStatus(w, r, http.StatusInternalServerError, "signup.html", data)
		return
	}

	user := models.User{
		Email:    email,
		Password: string(hashedPassword),
		Name:     name,
		Lang:     lang,
	}
	// New accounts file their own cases.
	var profile models.Profile
	if err := h.db.WithContext(r.Context()).Where("name = ?", models.ProfileClient).First(&profile).Error; err == nil {
		user.ProfileID = &profile.ID
	}

	if err := h.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		data["Error"] = i18n.T(lang, "error.email_taken")
		view.RenderStatus(w, r, http.StatusConflict, "signup.html", data)
		return
	}

	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
