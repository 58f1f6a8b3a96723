package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Valid reports whether s is a known settlement status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// Terminal reports whether no transition out of s is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

type PaymentMethod string

const (
	MethodCash PaymentMethod = "CASH"
	MethodBank PaymentMethod = "BANK"
	MethodCard PaymentMethod = "CARD"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBank, MethodCard:
		return true
	}
	return false
}

// Payment settles exactly one purchase. Amount is quantity × buyPrice, exact at
// AmountScale, and fixed at creation. PaidAt is non-nil iff Status is COMPLETED.
type Payment struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PurchaseID    uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;uniqueIndex" json:"purchaseId"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(28,8);not null;<-:create" json:"amount"`
	Method        PaymentMethod   `gorm:"column:method;type:varchar(10);not null" json:"method"`
	Status        PaymentStatus   `gorm:"column:status;type:varchar(10);not null;index" json:"status"`
	TransactionID *string         `gorm:"column:transaction_id" json:"transactionId"`
	CreatedAt     time.Time       `gorm:"column:created_at;index" json:"createdAt"`
	PaidAt        *time.Time      `gorm:"column:paid_at" json:"paidAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updatedAt"`

	Purchase *Purchase `gorm:"foreignKey:PurchaseID" json:"purchase,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
