package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-intake/httpx"
	"github.com/diewo77/go-intake/internal/models"
	"gorm.io/gorm"
)

// AdminProfileHandler exposes the profiles and their permissions to admins.
type AdminProfileHandler struct {
	DB    *gorm.DB
	Cache Invalidator
}

func NewAdminProfileHandler(db *gorm.DB, cache Invalidator) *AdminProfileHandler {
	return &AdminProfileHandler{DB: db, Cache: cache}
}

// List returns every profile with its permissions.
func (h *AdminProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Preload("Permissions").Order("name").Find(&profiles).Error; err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// ListPermissions returns all known permissions.
func (h *AdminProfileHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	var permissions []models.Permission
	if err := h.DB.WithContext(r.Context()).Order("resource_type, action").Find(&permissions).Error; err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, permissions)
}

type permissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// SavePermissions replaces the permissions of a profile. The body lists
// codes such as "case:assist".
func (h *AdminProfileHandler) SavePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req permissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}

	db := h.DB.WithContext(r.Context())
	var profile models.Profile
	if err := db.First(&profile, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	var all []models.Permission
	if err := db.Find(&all).Error; err != nil {
		writeError(w, r, err)
		return
	}
	byCode := make(map[string]models.Permission, len(all))
	for _, p := range all {
		byCode[p.Code()] = p
	}
	selected := make([]models.Permission, 0, len(req.Permissions))
	var unknown []string
	for _, code := range req.Permissions {
		p, ok := byCode[code]
		if !ok {
			unknown = append(unknown, code)
			continue
		}
		selected = append(selected, p)
	}
	if len(unknown) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "unknown_permission", unknown)
		return
	}

	if err := db.Model(&profile).Association("Permissions").Replace(selected); err != nil {
		writeError(w, r, err)
		return
	}
	// The profile may be shared by many users.
	if h.Cache != nil {
		h.Cache.InvalidateAll()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profile_id": profile.ID, "permissions": req.Permissions})
}
