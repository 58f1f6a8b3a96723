package payments

import (
	"context"
	"errors"
	"time"

	"metallix-backend/internal/application/ledgerevents"
	"metallix-backend/internal/auth"
	"metallix-backend/internal/domain"
	"metallix-backend/internal/infrastructure/database"
	"metallix-backend/internal/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service drives the settlement state machine PENDING -> COMPLETED | FAILED.
type Service struct {
	DB  *gorm.DB
	Tx  *database.Coordinator
	Now func() time.Time
}

type UpdateStatusInput struct {
	Status        domain.PaymentStatus `json:"status"`
	TransactionID *string              `json:"transactionId"`
}

// Filter scopes ListPayments. Non-admin callers are always scoped to themselves.
type Filter struct {
	OwnerUserID *uuid.UUID
}

func (s *Service) coordinator() *database.Coordinator {
	if s.Tx != nil {
		return s.Tx
	}
	return &database.Coordinator{DB: s.DB}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// UpdateStatus settles a pending payment. Only PENDING payments can move;
// paidAt is set in the same write iff the new status is COMPLETED.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Caller, paymentID uuid.UUID, in UpdateStatusInput) (*domain.Payment, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	var out domain.Payment
	err := s.coordinator().Do(ctx, func(tx *gorm.DB) error {
		at := s.now()
		changes := map[string]interface{}{
			"status":     in.Status,
			"paid_at":    nil,
			"updated_at": at,
		}
		if in.Status == domain.PaymentCompleted {
			changes["paid_at"] = at
		}
		if in.TransactionID != nil {
			changes["transaction_id"] = *in.TransactionID
		}

		res := tx.Model(&domain.Payment{}).
			Where("id = ? AND status = ?", paymentID, domain.PaymentPending).
			Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&domain.Payment{}).Where("id = ?", paymentID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ErrPaymentNotFound
			}
			return ErrAlreadySettled
		}

		if err := tx.Preload("Purchase.Metal").Preload("Purchase.User").
			Where("id = ?", paymentID).First(&out).Error; err != nil {
			return err
		}
		return ledgerevents.Record(tx, ledgerevents.EntityPayment, &out.ID, domain.EventPaymentStatusUpdated, actor, map[string]interface{}{
			"status":        in.Status,
			"transactionId": in.TransactionID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayment returns a payment visible to actor: admins see all, users their own.
func (s *Service) GetPayment(ctx context.Context, actor auth.Caller, paymentID uuid.UUID) (*domain.Payment, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	q := s.DB.WithContext(ctx).Model(&domain.Payment{}).Preload("Purchase.Metal").Where("payments.id = ?", paymentID)
	if !actor.IsAdmin() {
		q = q.Where("payments.purchase_id IN (?)", ownedPurchases(s.DB, actor.UserID))
	}
	var p domain.Payment
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, apperror.Storage(err)
	}
	return &p, nil
}

// ListPayments returns payments newest first with their purchase and metal.
// Admin listings also carry the purchasing user.
func (s *Service) ListPayments(ctx context.Context, actor auth.Caller, f Filter) ([]domain.Payment, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	owner := f.OwnerUserID
	if !actor.IsAdmin() {
		owner = &actor.UserID
	}

	q := s.DB.WithContext(ctx).Model(&domain.Payment{}).Preload("Purchase.Metal")
	if actor.IsAdmin() {
		q = q.Preload("Purchase.User")
	}
	if owner != nil {
		q = q.Where("purchase_id IN (?)", ownedPurchases(s.DB, *owner))
	}

	var out []domain.Payment
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	return out, nil
}

func ownedPurchases(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).Model(&domain.Purchase{}).Select("id").Where("user_id = ?", userID)
}
