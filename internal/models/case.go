package models

import (
	"time"

	"github.com/diewo77/go-intake/internal/intake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Case is one tax intake form in progress. The payload is stored as an
// opaque JSON document whose shape depends on FormType.
type Case struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	FormType  string         `gorm:"size:20;not null" json:"form_type"`
	Lang      string         `gorm:"size:5;not null;default:'fr'" json:"lang"`
	Status    string         `gorm:"size:30;not null;default:'draft';index" json:"status"`
	Annee     string         `gorm:"size:4" json:"annee"`
	Data      datatypes.JSON `json:"data"`

	Attachments []Attachment `gorm:"foreignKey:FormulaireID" json:"attachments,omitempty"`
}

func (Case) TableName() string { return "formulaires" }

// BeforeCreate assigns a random id when none was set.
func (c *Case) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// GetUserID implements the ownership check of the case policy.
func (c *Case) GetUserID() uint { return c.UserID }

// Kind parses FormType.
func (c *Case) Kind() (intake.Kind, error) { return intake.ParseKind(c.FormType) }

// CaseStatus parses Status. Unknown values read as draft.
func (c *Case) CaseStatus() intake.Status {
	s, err := intake.ParseStatus(c.Status)
	if err != nil {
		return intake.StatusDraft
	}
	return s
}

// Draft converts the row to the controller's view.
func (c *Case) Draft() intake.Draft {
	kind, _ := c.Kind()
	return intake.Draft{
		ID:        c.ID,
		OwnerID:   c.UserID,
		Kind:      kind,
		Lang:      c.Lang,
		Year:      c.Annee,
		Status:    c.CaseStatus(),
		Payload:   []byte(c.Data),
		UpdatedAt: c.UpdatedAt,
	}
}
