// models/work_order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkOrderStatus is the closed set of work order lifecycle states.
type WorkOrderStatus string

const (
	WOStatusCreated               WorkOrderStatus = "CREATED"
	WOStatusAcceptedTechAssigned  WorkOrderStatus = "ACCEPTED_TECHNICIAN_ASSIGNED"
	WOStatusServiceInProgress     WorkOrderStatus = "SERVICE_IN_PROGRESS"
	WOStatusServiceCompleted      WorkOrderStatus = "SERVICE_COMPLETED"
	WOStatusFollowUpRequested     WorkOrderStatus = "FOLLOW_UP_REQUESTED"
	WOStatusNewWorkOrderNeeded    WorkOrderStatus = "NEW_WO_NEEDED"
	WOStatusRepairUnsuccessful    WorkOrderStatus = "REPAIR_UNSUCCESSFUL"
	WOStatusCostProposalPrepared  WorkOrderStatus = "COST_PROPOSAL_PREPARED"
	WOStatusCostRevisionRequested WorkOrderStatus = "COST_REVISION_REQUESTED"
	WOStatusCostProposalApproved  WorkOrderStatus = "COST_PROPOSAL_APPROVED"
	WOStatusClosedWithoutCost     WorkOrderStatus = "CLOSED_WITHOUT_COST"
	WOStatusRejected              WorkOrderStatus = "REJECTED"
)

// IsTerminal reports whether no further lifecycle actions are accepted.
func (s WorkOrderStatus) IsTerminal() bool {
	switch s {
	case WOStatusCostProposalApproved, WOStatusClosedWithoutCost, WOStatusRejected:
		return true
	}
	return false
}

// WorkOrderAction is the closed set of lifecycle actions.
type WorkOrderAction string

const (
	ActionAssignTechnician       WorkOrderAction = "ASSIGN_TECHNICIAN"
	ActionCheckin                WorkOrderAction = "CHECKIN"
	ActionCheckoutFixed          WorkOrderAction = "CHECKOUT_FIXED"
	ActionCheckoutFollowUp       WorkOrderAction = "CHECKOUT_FOLLOW_UP"
	ActionCheckoutNewWONeeded    WorkOrderAction = "CHECKOUT_NEW_WO_NEEDED"
	ActionCheckoutUnsuccessful   WorkOrderAction = "CHECKOUT_UNSUCCESSFUL"
	ActionSubmitCostProposal     WorkOrderAction = "SUBMIT_COST_PROPOSAL"
	ActionResubmitCostProposal   WorkOrderAction = "RESUBMIT_COST_PROPOSAL"
	ActionApproveCost            WorkOrderAction = "APPROVE_COST"
	ActionRequestRevision        WorkOrderAction = "REQUEST_REVISION"
	ActionCloseWithoutCost       WorkOrderAction = "CLOSE_WITHOUT_COST"
	ActionReturnForClarification WorkOrderAction = "RETURN_FOR_CLARIFICATION"
	ActionResendToVendor         WorkOrderAction = "RESEND_TO_VENDOR"
	ActionReturnForTechCount     WorkOrderAction = "RETURN_FOR_TECH_COUNT"
	ActionReject                 WorkOrderAction = "REJECT"
)

// CheckoutOutcome selects one of the four checkout actions.
type CheckoutOutcome string

const (
	OutcomeFixed        CheckoutOutcome = "FIXED"
	OutcomeFollowUp     CheckoutOutcome = "FOLLOW_UP"
	OutcomeNewWONeeded  CheckoutOutcome = "NEW_WO_NEEDED"
	OutcomeUnsuccessful CheckoutOutcome = "UNSUCCESSFUL"
)

// CheckoutActions maps a checkout outcome to its lifecycle action.
var CheckoutActions = map[CheckoutOutcome]WorkOrderAction{
	OutcomeFixed:        ActionCheckoutFixed,
	OutcomeFollowUp:     ActionCheckoutFollowUp,
	OutcomeNewWONeeded:  ActionCheckoutNewWONeeded,
	OutcomeUnsuccessful: ActionCheckoutUnsuccessful,
}

// OwnerType identifies which side of the organization the current owner
// belongs to.
type OwnerType string

const (
	OwnerInternal OwnerType = "INTERNAL"
	OwnerVendor   OwnerType = "VENDOR"
)

// WorkOrder is one vendor's assignment to resolve (part of) a ticket.
// CurrentStatus and the owner pair move only through the lifecycle engine.
type WorkOrder struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Ticket   *Ticket   `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`

	VendorCompanyID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"vendor_company_id"`
	AssignedTechnicianID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_technician_id,omitempty"`
	ETA                  *time.Time `json:"eta,omitempty"`

	CurrentStatus    WorkOrderStatus `gorm:"size:40;not null;default:'CREATED';index" json:"current_status"`
	CurrentOwnerType OwnerType       `gorm:"size:10;not null" json:"current_owner_type"`
	CurrentOwnerID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"current_owner_id"`

	DeclaredTechCount *int `gorm:"check:declared_tech_count >= 1" json:"declared_tech_count,omitempty"`

	// Legacy single-visit fields, superseded by the Visits list but kept
	// as a fallback for billing on old rows.
	CheckinTs  *time.Time `json:"checkin_ts,omitempty"`
	CheckoutTs *time.Time `json:"checkout_ts,omitempty"`

	CommentToVendor string `gorm:"type:text" json:"comment_to_vendor,omitempty"`

	// Set once the work order is included in an invoice batch; invoice
	// rows are immutable from that point on.
	InvoiceBatchID *uuid.UUID `gorm:"type:uuid;index" json:"invoice_batch_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Visits      []WorkOrderVisit `gorm:"foreignKey:WorkOrderID" json:"visits,omitempty"`
	ReportRows  []WorkReportRow  `gorm:"foreignKey:WorkOrderID" json:"report_rows,omitempty"`
	InvoiceRows []InvoiceRow     `gorm:"foreignKey:WorkOrderID" json:"invoice_rows,omitempty"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

func (w *WorkOrder) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

// OpenVisit returns the single visit without a checkout timestamp, if any.
func (w *WorkOrder) OpenVisit() *WorkOrderVisit {
	for i := range w.Visits {
		if w.Visits[i].CheckoutTs == nil {
			return &w.Visits[i]
		}
	}
	return nil
}

// WorkOrderVisit is one check-in/check-out span of on-site work. At most
// one visit per work order may be open (CheckoutTs null) at a time.
type WorkOrderVisit struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkOrderID uuid.UUID  `gorm:"type:uuid;not null;index" json:"work_order_id"`
	CheckinTs   time.Time  `gorm:"not null;index" json:"checkin_ts"`
	CheckoutTs  *time.Time `json:"checkout_ts,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (WorkOrderVisit) TableName() string {
	return "work_order_visits"
}

func (v *WorkOrderVisit) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return
}

// WorkReportRow is a technician-entered line describing work done during a
// visit. Rows are append-only and numbered sequentially across all visits
// of the work order.
type WorkReportRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkOrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"work_order_id"`
	RowNumber   int       `gorm:"not null" json:"row_number"`
	Description string    `gorm:"size:255;not null" json:"description"`
	Unit        string    `gorm:"size:30" json:"unit,omitempty"`
	Quantity    float64   `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

func (WorkReportRow) TableName() string {
	return "work_report_rows"
}

func (r *WorkReportRow) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// InvoiceRow is one billable line on a cost proposal. The full row set is
// replaced wholesale on each (re)submission. WarningFlag marks rows with no
// matching active price-list item for AMM review; it never blocks approval.
type InvoiceRow struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WorkOrderID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"work_order_id"`
	RowNumber       int        `gorm:"not null" json:"row_number"`
	Description     string     `gorm:"size:255;not null" json:"description"`
	Unit            string     `gorm:"size:30" json:"unit,omitempty"`
	Quantity        float64    `json:"quantity"`
	PricePerUnit    float64    `json:"price_per_unit"`
	LineTotal       float64    `json:"line_total"`
	PriceListItemID *uuid.UUID `gorm:"type:uuid" json:"price_list_item_id,omitempty"`
	WarningFlag     bool       `gorm:"default:false" json:"warning_flag"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (InvoiceRow) TableName() string {
	return "invoice_rows"
}

func (r *InvoiceRow) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// AuditEntityType names the entity an audit entry belongs to.
type AuditEntityType string

const (
	AuditEntityTicket    AuditEntityType = "TICKET"
	AuditEntityWorkOrder AuditEntityType = "WORK_ORDER"
)

// AuditLogEntry is the immutable record of one executed transition. Entries
// are never updated or deleted; only committed transitions appear here.
type AuditLogEntry struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType AuditEntityType `gorm:"size:20;not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_audit_entity" json:"entity_id"`
	PrevStatus string          `gorm:"size:40;not null" json:"prev_status"`
	NewStatus  string          `gorm:"size:40;not null" json:"new_status"`
	ActionType string          `gorm:"size:40;not null" json:"action_type"`
	ActorType  OwnerType       `gorm:"size:10;not null" json:"actor_type"`
	ActorID    uuid.UUID       `gorm:"type:uuid;not null" json:"actor_id"`
	Comment    string          `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt  time.Time       `gorm:"not null;index" json:"created_at"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}

func (e *AuditLogEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
