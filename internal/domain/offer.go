package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Offer is a promotional window on a metal. Read-only for the ledger.
type Offer struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MetalID         uuid.UUID       `gorm:"column:metal_id;type:uuid;not null;index" json:"metalId"`
	Title           string          `gorm:"column:title;not null" json:"title"`
	Description     *string         `gorm:"column:description" json:"description"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:decimal(5,2);not null" json:"discountPercent"`
	IsActive        bool            `gorm:"column:is_active;not null" json:"isActive"`
	StartDate       time.Time       `gorm:"column:start_date;not null" json:"startDate"`
	EndDate         time.Time       `gorm:"column:end_date;not null" json:"endDate"`
	CreatedAt       time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"column:updated_at" json:"updatedAt"`

	Metal *Metal `gorm:"foreignKey:MetalID" json:"metal,omitempty"`
}

func (Offer) TableName() string {
	return "offers"
}

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
