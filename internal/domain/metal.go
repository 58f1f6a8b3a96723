package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Scale is the number of decimal places kept for rates and quantities.
const Scale = 4

// AmountScale holds the product of a quantity and a rate without rounding.
const AmountScale = 2 * Scale

// FitsScale reports whether d can be stored without rounding.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

// Metal is a tradable metal with its current centrally set rate.
// CurrentRate is only written by the rate batch update (and the seed).
type Metal struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Symbol      string          `gorm:"column:symbol;type:varchar(10);not null;uniqueIndex" json:"symbol"`
	CurrentRate decimal.Decimal `gorm:"column:current_rate;type:decimal(20,4);not null" json:"currentRate"`
	Unit        string          `gorm:"column:unit;type:varchar(16);not null" json:"unit"`
	IsActive    bool            `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updatedAt"`

	RateHistory []RateHistory `gorm:"foreignKey:MetalID" json:"rateHistory,omitempty"`
}

func (Metal) TableName() string {
	return "metals"
}

func (m *Metal) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RateHistory is one entry of a metal's append-only rate log.
// Every column is create-only so GORM never issues an UPDATE for it.
type RateHistory struct {
	ID      uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;<-:create" json:"id"`
	MetalID uuid.UUID       `gorm:"column:metal_id;type:uuid;not null;index:idx_rate_history_metal_date,priority:1;<-:create" json:"metalId"`
	Rate    decimal.Decimal `gorm:"column:rate;type:decimal(20,4);not null;<-:create" json:"rate"`
	Date    time.Time       `gorm:"column:date;not null;index:idx_rate_history_metal_date,priority:2,sort:desc;<-:create" json:"date"`
}

func (RateHistory) TableName() string {
	return "rate_history"
}

func (h *RateHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Date.IsZero() {
		h.Date = time.Now()
	}
	return nil
}
