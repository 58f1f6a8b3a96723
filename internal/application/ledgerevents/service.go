package ledgerevents

import (
	"context"
	"encoding/json"

	"metallix-backend/internal/auth"
	"metallix-backend/internal/domain"
	"metallix-backend/internal/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EntityMetal    = "metal"
	EntityPurchase = "purchase"
	EntityPayment  = "payment"
)

var (
	ErrForbidden = apperror.Forbidden("Admin access required.")
)

// Record appends an audit row using tx, so it commits or rolls back with the change.
func Record(tx *gorm.DB, entityType string, entityID *uuid.UUID, eventType string, actor auth.Caller, data interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ev := domain.LedgerEvent{
		EntityType: entityType,
		EntityID:   entityID,
		EventType:  eventType,
		EventData:  datatypes.JSON(b),
	}
	if actor.Authenticated() {
		id := actor.UserID
		ev.ActorID = &id
	}
	return tx.Create(&ev).Error
}

type Service struct {
	DB *gorm.DB
}

// Filter narrows the audit listing. Zero values match everything.
type Filter struct {
	EntityType string
	EntityID   *uuid.UUID
	Limit      int
}

// List returns audit rows newest first. Admin only.
func (s *Service) List(ctx context.Context, actor auth.Caller, f Filter) ([]domain.LedgerEvent, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.DB.WithContext(ctx).Model(&domain.LedgerEvent{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	var out []domain.LedgerEvent
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	return out, nil
}
