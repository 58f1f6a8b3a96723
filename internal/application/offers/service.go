package offers

import (
	"context"
	"time"

	"metallix-backend/internal/domain"
	"metallix-backend/internal/pkg/apperror"

	"gorm.io/gorm"
)

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

// ListActive returns active offers whose window contains now, with the
// offered metal's name, symbol and current rate.
func (s *Service) ListActive(ctx context.Context) ([]domain.Offer, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	var out []domain.Offer
	err := s.DB.WithContext(ctx).
		Preload("Metal", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "symbol", "current_rate")
		}).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("end_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if out == nil {
		out = []domain.Offer{}
	}
	return out, nil
}
