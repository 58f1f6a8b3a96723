package purchases

import (
	"context"
	"errors"
	"time"

	"metallix-backend/internal/application/ledgerevents"
	"metallix-backend/internal/application/rates"
	"metallix-backend/internal/auth"
	"metallix-backend/internal/domain"
	"metallix-backend/internal/infrastructure/database"
	"metallix-backend/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var hundred = decimal.NewFromInt(100)

// Service is the trade ledger: purchases snapshot the metal rate, sells are one-way.
type Service struct {
	DB  *gorm.DB
	Tx  *database.Coordinator
	Now func() time.Time
}

// CreateInput is the body of a new purchase.
type CreateInput struct {
	MetalID       uuid.UUID            `json:"metalId"`
	Quantity      decimal.Decimal      `json:"quantity"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

// Position is a purchase annotated with profit/loss against its current price.
// ProfitLossPercentage is nil when the buy price is not positive.
type Position struct {
	domain.Purchase
	ProfitLoss           decimal.Decimal  `json:"profitLoss"`
	ProfitLossPercentage *decimal.Decimal `json:"profitLossPercentage"`
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

func (in CreateInput) validate() error {
	if in.MetalID == uuid.Nil {
		return ErrMissingMetalID
	}
	if !in.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !domain.FitsScale(in.Quantity) {
		return ErrQuantityPrecision
	}
	if !in.PaymentMethod.Valid() {
		return ErrInvalidMethod
	}
	return nil
}

// CreatePurchase records a purchase at the metal's current rate together with its
// pending payment. The rate is read inside the same unit as the writes.
func (s *Service) CreatePurchase(ctx context.Context, actor auth.Caller, in CreateInput) (*domain.Purchase, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var purchase domain.Purchase
	err := s.coordinator().Do(ctx, func(tx *gorm.DB) error {
		metal, err := rates.FindActiveMetal(tx, in.MetalID)
		if err != nil {
			return err
		}

		purchase = domain.Purchase{
			UserID:       actor.UserID,
			MetalID:      metal.ID,
			Quantity:     in.Quantity,
			BuyPrice:     metal.CurrentRate,
			CurrentPrice: metal.CurrentRate,
			Status:       domain.PurchaseActive,
			PurchaseDate: s.now(),
		}
		if err := tx.Omit(clause.Associations).Create(&purchase).Error; err != nil {
			return err
		}

		payment := domain.Payment{
			PurchaseID: purchase.ID,
			Amount:     in.Quantity.Mul(metal.CurrentRate).Round(domain.AmountScale),
			Method:     in.PaymentMethod,
			Status:     domain.PaymentPending,
		}
		if err := tx.Omit(clause.Associations).Create(&payment).Error; err != nil {
			return err
		}

		purchase.Metal = metal
		purchase.Payment = &payment
		return ledgerevents.Record(tx, ledgerevents.EntityPurchase, &purchase.ID, domain.EventPurchaseCreated, actor, map[string]interface{}{
			"metalId":   metal.ID,
			"quantity":  in.Quantity,
			"buyPrice":  metal.CurrentRate,
			"amount":    payment.Amount,
			"paymentId": payment.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases returns the caller's purchases, newest first, priced at live rates.
func (s *Service) ListPurchases(ctx context.Context, actor auth.Caller) ([]Position, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	db := s.DB.WithContext(ctx)

	var list []domain.Purchase
	if err := db.Preload("Metal").Preload("Payment").
		Where("user_id = ?", actor.UserID).
		Order("purchase_date DESC").
		Find(&list).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	return s.annotate(db, list)
}

// GetPurchase returns one of the caller's purchases. Other users' purchases are NotFound.
func (s *Service) GetPurchase(ctx context.Context, actor auth.Caller, id uuid.UUID) (*Position, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	db := s.DB.WithContext(ctx)

	var p domain.Purchase
	if err := db.Preload("Metal").Preload("Payment").
		Where("id = ? AND user_id = ?", id, actor.UserID).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, apperror.Storage(err)
	}
	out, err := s.annotate(db, []domain.Purchase{p})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// SellPurchase moves an owned ACTIVE purchase to SOLD. The transition is a
// conditional update, so of two concurrent sells exactly one succeeds.
func (s *Service) SellPurchase(ctx context.Context, actor auth.Caller, id uuid.UUID) (*domain.Purchase, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}

	var sold domain.Purchase
	err := s.coordinator().Do(ctx, func(tx *gorm.DB) error {
		at := s.now()
		res := tx.Model(&domain.Purchase{}).
			Where("id = ? AND user_id = ? AND status = ?", id, actor.UserID, domain.PurchaseActive).
			Updates(map[string]interface{}{
				"status":     domain.PurchaseSold,
				"sold_at":    at,
				"updated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var owned int64
			if err := tx.Model(&domain.Purchase{}).
				Where("id = ? AND user_id = ?", id, actor.UserID).
				Count(&owned).Error; err != nil {
				return err
			}
			if owned == 0 {
				return ErrPurchaseNotFound
			}
			return ErrAlreadySold
		}

		if err := tx.Preload("Metal").Where("id = ?", id).First(&sold).Error; err != nil {
			return err
		}
		return ledgerevents.Record(tx, ledgerevents.EntityPurchase, &sold.ID, domain.EventPurchaseSold, actor, map[string]interface{}{
			"soldAt": at,
		})
	})
	if err != nil {
		return nil, err
	}
	return &sold, nil
}

// annotate refreshes CurrentPrice from the live metal rates and computes profit/loss.
// The refreshed price is display data and is not written back.
func (s *Service) annotate(db *gorm.DB, list []domain.Purchase) ([]Position, error) {
	ids := make([]uuid.UUID, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.MetalID)
	}
	live, err := rates.LiveRates(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Position, 0, len(list))
	for _, p := range list {
		if rate, ok := live[p.MetalID]; ok {
			p.CurrentPrice = rate
		}
		out = append(out, Annotate(p))
	}
	return out, nil
}

// Annotate computes profit/loss of p at p.CurrentPrice.
func Annotate(p domain.Purchase) Position {
	diff := p.CurrentPrice.Sub(p.BuyPrice)
	pos := Position{
		Purchase:   p,
		ProfitLoss: diff.Mul(p.Quantity),
	}
	if p.BuyPrice.IsPositive() {
		pct := diff.Mul(hundred).Div(p.BuyPrice).Round(2)
		pos.ProfitLossPercentage = &pct
	}
	return pos
}
