// models/price_list.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorPriceListItem is a catalog entry of one vendor company.
// SelectableInUI=false marks auto-applied billing rules (arrival fee,
// service time) that are never chosen manually. UnitMinutes is present
// only for time-banded billing rules.
type VendorPriceListItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VendorCompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"vendor_company_id"`
	Category        string    `gorm:"size:50;not null" json:"category"`
	Description     string    `gorm:"size:255;not null" json:"description"`
	Unit            string    `gorm:"size:30;not null" json:"unit"`
	PricePerUnit    float64   `gorm:"not null" json:"price_per_unit"`
	IsActive        bool      `gorm:"default:true;index" json:"is_active"`
	SelectableInUI  bool      `gorm:"default:true" json:"selectable_in_ui"`
	UnitMinutes     *int      `json:"unit_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (VendorPriceListItem) TableName() string {
	return "vendor_price_list_items"
}

func (i *VendorPriceListItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// Billing-rule categories for auto-applied price-list items.
const (
	PriceCategoryArrivalFee  = "ARRIVAL_FEE"
	PriceCategoryLabor       = "LABOR"
	PriceCategoryServiceTime = "SERVICE_TIME"
)

// InvoiceBatch bundles approved work orders of one vendor company for
// billing. Inclusion sets WorkOrder.InvoiceBatchID and locks the work
// order's invoice rows.
type InvoiceBatch struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VendorCompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"vendor_company_id"`
	BatchNumber     string    `gorm:"size:40;uniqueIndex;not null" json:"batch_number"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_user_id"`
	TotalAmount     float64   `json:"total_amount"`
	CreatedAt       time.Time `json:"created_at"`

	WorkOrders []WorkOrder `gorm:"foreignKey:InvoiceBatchID" json:"work_orders,omitempty"`
}

func (InvoiceBatch) TableName() string {
	return "invoice_batches"
}

func (b *InvoiceBatch) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
