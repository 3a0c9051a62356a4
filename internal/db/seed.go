package db

import (
	"errors"
	"strings"

	"github.com/diewo77/go-intake/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPermissions creates the core permissions for the application.
func SeedPermissions(db *gorm.DB) error {
	permissions := []struct {
		ResourceType string
		Action       string
		Description  string
	}{
		// Superadmin wildcard
		{"*", "*", "Full system access"},
		// Cases
		{"case", "*", "All case actions"},
		{"case", "list", "List cases"},
		{"case", "view", "View a case"},
		{"case", "create", "Start a case"},
		{"case", "update", "Edit a case"},
		{"case", "pay", "Pay for a case"},
		{"case", "assist", "Work on another client's case in person"},
		{"case", "finish", "Submit a case without online payment"},
		// Attachments
		{"attachment", "*", "All attachment actions"},
		{"attachment", "list", "List attachments"},
		{"attachment", "view", "Download attachments"},
		{"attachment", "create", "Upload attachments"},
		{"attachment", "delete", "Delete attachments"},
		// User management
		{"user", "*", "All user management"},
		{"user", "list", "List users"},
		{"user", "update", "Edit users"},
		// Profile management (admin only)
		{"profile", "*", "All profile management"},
		{"profile", "list", "List profiles"},
		{"profile", "update", "Edit profiles"},
	}

	for _, p := range permissions {
		perm := models.Permission{
			ResourceType: p.ResourceType,
			Action:       p.Action,
			Description:  p.Description,
		}
		result := db.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// SeedProfiles creates the system profiles with their permissions.
func SeedProfiles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	profiles := []struct {
		Name        string
		Description string
		Permissions []string // "resource:action" format
	}{
		{
			Name:        models.ProfileAdmin,
			Description: "Full system administrator with all permissions",
			Permissions: []string{"*:*"},
		},
		{
			Name:        models.ProfileStaff,
			Description: "Office staff filing cases with clients in person",
			Permissions: []string{"case:*", "attachment:*", "user:list"},
		},
		{
			Name:        models.ProfileClient,
			Description: "Client filing their own cases online",
			Permissions: []string{
				"case:list",
				"case:view",
				"case:create",
				"case:update",
				"case:pay",
				"attachment:list",
				"attachment:view",
				"attachment:create",
			},
		},
	}

	for _, p := range profiles {
		var profile models.Profile
		err := db.Where("name = ?", p.Name).First(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.Profile{Name: p.Name, Description: p.Description, IsSystem: true}
			if err := db.Create(&profile).Error; err != nil {
				return err
			}
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			resource, action, _ := strings.Cut(code, ":")
			var perm models.Permission
			if err := db.Where("resource_type = ? AND action = ?", resource, action).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := db.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}

// Account is a development login created by SeedAccounts.
type Account struct {
	Email    string
	Password string
	Profile  string
}

// DevAccounts are created in development so every profile can be tried.
var DevAccounts = []Account{
	{Email: "admin@intake.local", Password: "admin123", Profile: models.ProfileAdmin},
	{Email: "staff@intake.local", Password: "staff123", Profile: models.ProfileStaff},
	{Email: "client@intake.local", Password: "client123", Profile: models.ProfileClient},
}

// SeedAccounts creates the given users when their email is not taken yet.
// Existing users are left untouched.
func SeedAccounts(db *gorm.DB, accounts []Account) error {
	for _, a := range accounts {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", a.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		var profile models.Profile
		if err := db.Where("name = ?", a.Profile).First(&profile).Error; err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := models.User{Email: a.Email, Password: string(hash), ProfileID: &profile.ID}
		if err := db.Create(&u).Error; err != nil {
			return err
		}
	}
	return nil
}
