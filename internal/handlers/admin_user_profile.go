package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-intake/httpx"
	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/models"
	"github.com/diewo77/go-intake/view"
	"gorm.io/gorm"
)

// Invalidator drops cached authorization profiles after they change.
type Invalidator interface {
	InvalidateUser(userID uint)
	InvalidateAll()
}

// AdminUserProfileHandler lets admins move accounts between the client,
// staff and admin profiles.
type AdminUserProfileHandler struct {
	DB    *gorm.DB
	Cache Invalidator
}

func NewAdminUserProfileHandler(db *gorm.DB, cache Invalidator) *AdminUserProfileHandler {
	return &AdminUserProfileHandler{DB: db, Cache: cache}
}

type userRow struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	ProfileID   uint   `json:"profile_id"`
	ProfileName string `json:"profile"`
}

// List displays all users with their profile.
func (h *AdminUserProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.DB.WithContext(r.Context()).Preload("Profile").Order("email").Find(&users).Error; err != nil {
		writeError(w, r, err)
		return
	}
	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Order("name").Find(&profiles).Error; err != nil {
		writeError(w, r, err)
		return
	}

	rows := make([]userRow, 0, len(users))
	for i := range users {
		u := &users[i]
		row := userRow{ID: u.ID, Email: u.Email, Name: u.Name, ProfileName: u.ProfileName()}
		if u.ProfileID != nil {
			row.ProfileID = *u.ProfileID
		}
		rows = append(rows, row)
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"users": rows, "profiles": profiles})
		return
	}
	lang := i18n.LangFromContext(r.Context())
	if err := view.Render(w, r, "admin/users.html", map[string]any{
		"Title":    i18n.T(lang, "ui.users"),
		"Users":    rows,
		"Profiles": profiles,
	}); err != nil {
		renderError(w, r, err)
	}
}

// AssignProfile handles POST /admin/users/{id}/profile. An empty or zero
// profile_id removes the profile.
func (h *AdminUserProfileHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || userID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}

	var profileID *uint
	if s := r.FormValue("profile_id"); s != "" && s != "0" {
		pid, err := strconv.ParseUint(s, 10, 64)
		if err != nil || pid == 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_profile_id", nil)
			return
		}
		var profile models.Profile
		if err := h.DB.WithContext(r.Context()).First(&profile, pid).Error; err != nil {
			httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
			return
		}
		id := profile.ID
		profileID = &id
	}

	res := h.DB.WithContext(r.Context()).Model(&models.User{}).Where("id = ?", userID).Update("profile_id", profileID)
	if res.Error != nil {
		writeError(w, r, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "user_not_found", nil)
		return
	}
	if h.Cache != nil {
		h.Cache.InvalidateUser(uint(userID))
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "profile_id": profileID})
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
