package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventRatesUpdated         = "RATES_UPDATED"
	EventPurchaseCreated      = "PURCHASE_CREATED"
	EventPurchaseSold         = "PURCHASE_SOLD"
	EventPaymentStatusUpdated = "PAYMENT_STATUS_UPDATED"
)

// LedgerEvent is an audit row written in the same transaction as the change it describes.
type LedgerEvent struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;<-:create" json:"id"`
	EntityType string         `gorm:"column:entity_type;type:varchar(20);not null;index:idx_ledger_events_entity,priority:1;<-:create" json:"entityType"`
	EntityID   *uuid.UUID     `gorm:"column:entity_id;type:uuid;index:idx_ledger_events_entity,priority:2;<-:create" json:"entityId"`
	EventType  string         `gorm:"column:event_type;type:varchar(40);not null;<-:create" json:"eventType"`
	ActorID    *uuid.UUID     `gorm:"column:actor_id;type:uuid;<-:create" json:"actorId"`
	EventData  datatypes.JSON `gorm:"column:event_data;type:json;<-:create" json:"eventData"`
	CreatedAt  time.Time      `gorm:"column:created_at;<-:create" json:"createdAt"`
}

func (LedgerEvent) TableName() string {
	return "ledger_events"
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Models lists every table owned by this service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{}, &Metal{}, &RateHistory{}, &Purchase{}, &Payment{}, &Offer{}, &LedgerEvent{},
	}
}
