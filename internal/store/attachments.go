package store

import (
	"context"

	"github.com/diewo77/go-intake/internal/models"
	"gorm.io/gorm"
)

// AttachmentStore keeps the metadata rows of uploaded files.
type AttachmentStore struct {
	db *gorm.DB
}

func NewAttachmentStore(db *gorm.DB) *AttachmentStore { return &AttachmentStore{db: db} }

func (s *AttachmentStore) Create(ctx context.Context, a *models.Attachment) error {
	return s.db.WithContext(ctx).Create(a).Error
}

// ListByCase returns the attachments of a case in upload order.
func (s *AttachmentStore) ListByCase(ctx context.Context, caseID string) ([]models.Attachment, error) {
	var out []models.Attachment
	err := s.db.WithContext(ctx).Where("formulaire_id = ?", caseID).Order("created_at, id").Find(&out).Error
	return out, err
}

func (s *AttachmentStore) CountByCase(ctx context.Context, caseID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Attachment{}).Where("formulaire_id = ?", caseID).Count(&n).Error
	return n, err
}

func (s *AttachmentStore) Get(ctx context.Context, id uint) (*models.Attachment, error) {
	var a models.Attachment
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}
