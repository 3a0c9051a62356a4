package store

import (
	"context"
	"time"

	"github.com/diewo77/go-intake/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentStore records checkout sessions.
type PaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore { return &PaymentStore{db: db} }

// Record stores a newly opened session. A session already on file is kept
// as it is and loaded into p.
func (s *PaymentStore) Record(ctx context.Context, p *models.Payment) error {
	if p.Status == "" {
		p.Status = models.PaymentPending
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := s.BySession(ctx, p.SessionID)
		if err != nil {
			return err
		}
		*p = *existing
	}
	return nil
}

func (s *PaymentStore) BySession(ctx context.Context, sessionID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Complete marks a pending session as paid. It reports false when the
// session was already completed, so webhook retries are harmless.
func (s *PaymentStore) Complete(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("session_id = ? AND status = ?", sessionID, models.PaymentPending).
		Updates(map[string]any{"status": models.PaymentCompleted, "completed_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.BySession(ctx, sessionID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
