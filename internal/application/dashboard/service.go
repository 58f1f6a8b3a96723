package dashboard

import (
	"context"

	"metallix-backend/internal/auth"
	"metallix-backend/internal/domain"
	"metallix-backend/internal/pkg/apperror"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrForbidden = apperror.Forbidden("Admin access required.")

type Service struct {
	DB *gorm.DB
}

// Summary is the admin dashboard payload.
type Summary struct {
	TotalRevenue     decimal.Decimal                `json:"totalRevenue"`
	PaymentsByStatus map[domain.PaymentStatus]int64 `json:"paymentsByStatus"`
	ActivePurchases  int64                          `json:"activePurchases"`
	SoldPurchases    int64                          `json:"soldPurchases"`
}

type statusCount struct {
	Status string
	Count  int64
}

// Summarize returns revenue from COMPLETED payments plus payment and purchase counts.
func (s *Service) Summarize(ctx context.Context, actor auth.Caller) (*Summary, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	db := s.DB.WithContext(ctx)

	var revenue decimal.NullDecimal
	if err := db.Model(&domain.Payment{}).
		Select("SUM(amount)").
		Where("status = ?", domain.PaymentCompleted).
		Row().Scan(&revenue); err != nil {
		return nil, apperror.Storage(err)
	}

	out := &Summary{
		TotalRevenue: decimal.Zero,
		PaymentsByStatus: map[domain.PaymentStatus]int64{
			domain.PaymentPending:   0,
			domain.PaymentCompleted: 0,
			domain.PaymentFailed:    0,
		},
	}
	if revenue.Valid {
		out.TotalRevenue = revenue.Decimal
	}

	var payments []statusCount
	if err := db.Model(&domain.Payment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&payments).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	for _, row := range payments {
		out.PaymentsByStatus[domain.PaymentStatus(row.Status)] = row.Count
	}

	var purchases []statusCount
	if err := db.Model(&domain.Purchase{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&purchases).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	for _, row := range purchases {
		switch domain.PurchaseStatus(row.Status) {
		case domain.PurchaseActive:
			out.ActivePurchases = row.Count
		case domain.PurchaseSold:
			out.SoldPurchases = row.Count
		}
	}
	return out, nil
}
