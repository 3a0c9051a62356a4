package store

import (
	"context"
	"fmt"

	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// submittedSpellings are the stored values that read as submitted.
var submittedSpellings = []string{string(intake.StatusSubmitted), "recu", "reçu"}

// CaseStore is the draft store of the autosave controller.
type CaseStore struct {
	db *gorm.DB
}

func NewCaseStore(db *gorm.DB) *CaseStore { return &CaseStore{db: db} }

// Create inserts a draft row and returns its generated id.
func (s *CaseStore) Create(ctx context.Context, d intake.Draft) (string, error) {
	if d.OwnerID == 0 {
		return "", fmt.Errorf("create case: missing owner")
	}
	if _, err := intake.ParseKind(string(d.Kind)); err != nil {
		return "", err
	}
	c := models.Case{
		UserID:   d.OwnerID,
		FormType: string(d.Kind),
		Lang:     d.Lang,
		Status:   string(intake.StatusDraft),
		Annee:    d.Year,
		Data:     datatypes.JSON(d.Payload),
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return "", err
	}
	return c.ID, nil
}

// Save writes the payload, language and year of a case that is not yet
// submitted. Owner and form type are never touched.
func (s *CaseStore) Save(ctx context.Context, id string, payload []byte, lang, year string) error {
	res := s.db.WithContext(ctx).Model(&models.Case{}).
		Where("id = ? AND status NOT IN ?", id, submittedSpellings).
		Updates(map[string]any{"data": datatypes.JSON(payload), "lang": lang, "annee": year})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Case{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrNotEditable
	}
	return nil
}

// Get loads a case without ownership checks; callers authorize first.
func (s *CaseStore) Get(ctx context.Context, id string) (intake.Draft, error) {
	var c models.Case
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return intake.Draft{}, notFound(err)
	}
	return c.Draft(), nil
}

// List returns the cases visible to scope, most recently edited first.
func (s *CaseStore) List(ctx context.Context, scope Scope) ([]models.Case, error) {
	var out []models.Case
	q := scope.apply(s.db.WithContext(ctx).Order("updated_at DESC"), "user_id")
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus moves a case from one status to the next. The update only
// applies while the row still holds from, so two concurrent transitions
// cannot both succeed.
func (s *CaseStore) SetStatus(ctx context.Context, id string, from, to intake.Status) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", intake.ErrInvalidTransition, from, to)
	}
	res := s.db.WithContext(ctx).Model(&models.Case{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}
