package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseStatus string

const (
	PurchaseActive PurchaseStatus = "ACTIVE"
	PurchaseSold   PurchaseStatus = "SOLD"
)

// Purchase is a user's acquisition of a quantity of metal. BuyPrice is the rate
// snapshot taken at creation and is create-only; CurrentPrice is display data.
type Purchase struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	MetalID      uuid.UUID       `gorm:"column:metal_id;type:uuid;not null;index" json:"metalId"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null;<-:create" json:"quantity"`
	BuyPrice     decimal.Decimal `gorm:"column:buy_price;type:decimal(20,4);not null;<-:create" json:"buyPrice"`
	CurrentPrice decimal.Decimal `gorm:"column:current_price;type:decimal(20,4);not null" json:"currentPrice"`
	Status       PurchaseStatus  `gorm:"column:status;type:varchar(10);not null;index" json:"status"`
	PurchaseDate time.Time       `gorm:"column:purchase_date;not null;<-:create" json:"purchaseDate"`
	SoldAt       *time.Time      `gorm:"column:sold_at" json:"soldAt"`
	UpdatedAt    time.Time       `gorm:"column:updated_at" json:"updatedAt"`

	Metal   *Metal   `gorm:"foreignKey:MetalID" json:"metal,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Payment *Payment `gorm:"foreignKey:PurchaseID" json:"payment,omitempty"`
}

func (Purchase) TableName() string {
	return "purchases"
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = time.Now()
	}
	return nil
}
