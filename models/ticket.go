// models/ticket.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketStatus is the peer ticket engine's status set. The ticket engine
// itself runs the same transition contracts as work orders; this service
// only creates tickets, lists them and spawns work orders under them.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketResolved   TicketStatus = "RESOLVED"
	TicketClosed     TicketStatus = "CLOSED"
)

// Ticket is a maintenance request raised at a store; parent of zero or
// more work orders. RegionID denormalizes the store's region so ownership
// routing never needs a second lookup.
type Ticket struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"company_id"`
	StoreID          uuid.UUID    `gorm:"type:uuid;not null;index" json:"store_id"`
	Store            *Store       `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	RegionID         uuid.UUID    `gorm:"type:uuid;not null;index" json:"region_id"`
	Title            string       `gorm:"size:200;not null" json:"title"`
	Description      string       `gorm:"type:text" json:"description,omitempty"`
	CurrentStatus    TicketStatus `gorm:"size:20;not null;default:'OPEN';index" json:"current_status"`
	CurrentOwnerType OwnerType    `gorm:"size:10;not null" json:"current_owner_type"`
	CurrentOwnerID   uuid.UUID    `gorm:"type:uuid;not null" json:"current_owner_id"`
	CreatedByUserID  uuid.UUID    `gorm:"type:uuid;not null" json:"created_by_user_id"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	WorkOrders []WorkOrder `gorm:"foreignKey:TicketID" json:"work_orders,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
