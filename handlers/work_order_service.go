package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amarinov1974/cmms-system-sub000/models"
	"github.com/amarinov1974/cmms-system-sub000/pkg/billing"
	"github.com/amarinov1974/cmms-system-sub000/pkg/lifecycle"
	"github.com/amarinov1974/cmms-system-sub000/pkg/ownership"
	"github.com/amarinov1974/cmms-system-sub000/utils"
)

// WorkOrderService orchestrates lifecycle actions: load, validate payload,
// decide (transition + ownership), apply billing side effects, then persist
// and audit-log inside one transaction per action.
type WorkOrderService struct {
	db     *gorm.DB
	engine *lifecycle.Engine
}

func NewWorkOrderService(db *gorm.DB) *WorkOrderService {
	return &WorkOrderService{
		db:     db,
		engine: lifecycle.NewEngine(NewGormDirectory(db)),
	}
}

// ActionPayload carries the per-action request fields. Scan-derived fields
// (TechCount) come from a validated scan token and are trusted verbatim.
type ActionPayload struct {
	TechnicianUserID *uuid.UUID
	ETA              *time.Time
	Comment          string
	TechCount        *int
	ManualRows       []billing.ManualRow
	Coordinate       *utils.Coordinate
}

// ExecuteAction runs one lifecycle action against one work order. On any
// error nothing is written; on success the refreshed work order is
// returned and exactly one audit entry has been appended.
func (s *WorkOrderService) ExecuteAction(ctx context.Context, workOrderID uuid.UUID, action models.WorkOrderAction, actor lifecycle.Actor, payload ActionPayload) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	err := s.db.WithContext(ctx).
		Preload("Ticket").
		Preload("Ticket.Store").
		Preload("Visits", func(db *gorm.DB) *gorm.DB {
			return db.Order("checkin_ts ASC")
		}).
		First(&wo, "id = ?", workOrderID).Error
	if err != nil {
		return nil, fmt.Errorf("%w: work order", models.ErrNotFound)
	}

	if err := validateActionPayload(&wo, action, payload); err != nil {
		return nil, err
	}

	patch, err := s.engine.Decide(ctx, lifecycle.Snapshot{
		EntityID:          wo.ID,
		Status:            wo.CurrentStatus,
		OwnerType:         wo.CurrentOwnerType,
		OwnerID:           wo.CurrentOwnerID,
		VendorCompanyID:   wo.VendorCompanyID,
		InternalCompanyID: wo.Ticket.CompanyID,
		RegionID:          wo.Ticket.RegionID,
		StoreID:           wo.Ticket.StoreID,
	}, action, actor, payload.TechnicianUserID)
	if err != nil {
		return nil, err
	}

	// Cost proposal rows are rebuilt outside the transaction; only writes
	// happen inside it.
	var proposalRows []models.InvoiceRow
	if action == models.ActionSubmitCostProposal || action == models.ActionResubmitCostProposal {
		priceList, err := s.activePriceList(ctx, wo.VendorCompanyID)
		if err != nil {
			return nil, err
		}
		proposalRows = billing.BuildProposalRows(&wo, priceList, payload.ManualRows)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"current_status": patch.NewStatus,
			"updated_at":     now,
		}
		if patch.OwnerChanged {
			updates["current_owner_type"] = patch.NewOwnerType
			updates["current_owner_id"] = patch.NewOwnerID
		}

		switch action {
		case models.ActionAssignTechnician:
			updates["assigned_technician_id"] = payload.TechnicianUserID
			if payload.ETA != nil {
				updates["eta"] = payload.ETA
			}
		case models.ActionCheckin:
			updates["declared_tech_count"] = payload.TechCount
			if wo.CheckinTs == nil {
				updates["checkin_ts"] = now
			}
		case models.ActionCheckoutFixed, models.ActionCheckoutFollowUp,
			models.ActionCheckoutNewWONeeded, models.ActionCheckoutUnsuccessful:
			updates["checkout_ts"] = now
		case models.ActionReturnForTechCount:
			updates["declared_tech_count"] = nil
		case models.ActionResendToVendor:
			if c := strings.TrimSpace(payload.Comment); c != "" {
				updates["comment_to_vendor"] = c
			}
		}

		// Optimistic concurrency guard: another action that advanced the
		// status or owner in the meantime makes this a no-op.
		res := tx.Model(&models.WorkOrder{}).
			Where("id = ? AND current_status = ? AND current_owner_id = ?",
				wo.ID, wo.CurrentStatus, wo.CurrentOwnerID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrConflict
		}

		switch action {
		case models.ActionCheckin:
			visit := models.WorkOrderVisit{WorkOrderID: wo.ID, CheckinTs: now}
			if err := tx.Create(&visit).Error; err != nil {
				return err
			}
		case models.ActionCheckoutFixed, models.ActionCheckoutFollowUp,
			models.ActionCheckoutNewWONeeded, models.ActionCheckoutUnsuccessful:
			open := wo.OpenVisit()
			res := tx.Model(&models.WorkOrderVisit{}).
				Where("id = ? AND checkout_ts IS NULL", open.ID).
				Update("checkout_ts", now)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.ErrConflict
			}
		case models.ActionReturnForTechCount:
			// The disputed visit is discarded so the next check-in starts
			// a fresh span.
			if open := wo.OpenVisit(); open != nil {
				if err := tx.Delete(&models.WorkOrderVisit{}, "id = ?", open.ID).Error; err != nil {
					return err
				}
			}
		case models.ActionSubmitCostProposal, models.ActionResubmitCostProposal:
			// Replace the row set wholesale; rows from a previous
			// submission never survive a resubmission.
			if err := tx.Delete(&models.InvoiceRow{}, "work_order_id = ?", wo.ID).Error; err != nil {
				return err
			}
			if len(proposalRows) > 0 {
				if err := tx.Create(&proposalRows).Error; err != nil {
					return err
				}
			}
		}

		audit := models.AuditLogEntry{
			EntityType: models.AuditEntityWorkOrder,
			EntityID:   wo.ID,
			PrevStatus: string(patch.PrevStatus),
			NewStatus:  string(patch.NewStatus),
			ActionType: string(action),
			ActorType:  actor.Type,
			ActorID:    actor.ID,
			Comment:    payload.Comment,
			CreatedAt:  now,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Work order %s: %s -> %s (action: %s, actor: %s)",
		wo.ID, patch.PrevStatus, patch.NewStatus, action, actor.ID)

	return s.GetWorkOrder(ctx, wo.ID)
}

// validateActionPayload enforces request-shape rules before any lookup
// runs. It never touches the transition table.
func validateActionPayload(wo *models.WorkOrder, action models.WorkOrderAction, payload ActionPayload) error {
	if wo.InvoiceBatchID != nil {
		return fmt.Errorf("%w: work order is locked by invoice batch", models.ErrValidation)
	}

	switch action {
	case models.ActionAssignTechnician:
		if payload.TechnicianUserID == nil {
			return fmt.Errorf("%w: technician_user_id is required", models.ErrValidation)
		}
	case models.ActionCheckin:
		if payload.TechCount == nil || *payload.TechCount < 1 {
			return fmt.Errorf("%w: confirmed technician count must be at least 1", models.ErrValidation)
		}
		if wo.OpenVisit() != nil {
			return fmt.Errorf("%w: a visit is already open for this work order", models.ErrValidation)
		}
		if payload.Coordinate != nil && wo.Ticket != nil && wo.Ticket.Store != nil {
			inside, err := utils.StoreContainsPoint(wo.Ticket.Store.Geofence, *payload.Coordinate)
			if err != nil {
				return fmt.Errorf("%w: %v", models.ErrValidation, err)
			}
			if !inside {
				return fmt.Errorf("%w: check-in location is outside the store boundary", models.ErrValidation)
			}
		}
	case models.ActionCheckoutFixed, models.ActionCheckoutFollowUp,
		models.ActionCheckoutNewWONeeded, models.ActionCheckoutUnsuccessful:
		if wo.OpenVisit() == nil {
			return fmt.Errorf("%w: no open visit to check out from", models.ErrValidation)
		}
		if action != models.ActionCheckoutFixed && strings.TrimSpace(payload.Comment) == "" {
			return fmt.Errorf("%w: a comment is required for this checkout outcome", models.ErrValidation)
		}
	case models.ActionSubmitCostProposal, models.ActionResubmitCostProposal:
		for _, row := range payload.ManualRows {
			if row.Quantity < 0 || row.PricePerUnit < 0 {
				return fmt.Errorf("%w: invoice row quantities and prices must not be negative", models.ErrValidation)
			}
			if strings.TrimSpace(row.Description) == "" {
				return fmt.Errorf("%w: invoice row description is required", models.ErrValidation)
			}
		}
	}
	return nil
}

func (s *WorkOrderService) activePriceList(ctx context.Context, vendorCompanyID uuid.UUID) ([]models.VendorPriceListItem, error) {
	var items []models.VendorPriceListItem
	err := s.db.WithContext(ctx).
		Where("vendor_company_id = ? AND is_active = ?", vendorCompanyID, true).
		Order("category ASC, description ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load price list: %w", err)
	}
	return items, nil
}

// GetWorkOrder returns the full aggregate view.
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	err := s.db.WithContext(ctx).
		Preload("Ticket").
		Preload("Visits", func(db *gorm.DB) *gorm.DB {
			return db.Order("checkin_ts ASC")
		}).
		Preload("ReportRows", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_number ASC")
		}).
		Preload("InvoiceRows", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_number ASC")
		}).
		First(&wo, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("%w: work order", models.ErrNotFound)
	}
	return &wo, nil
}

// CreateWorkOrder spawns a work order under a ticket and routes initial
// ownership to the vendor's active service admin (S1).
func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, ticketID, vendorCompanyID uuid.UUID, comment string, actor lifecycle.Actor) (*models.WorkOrder, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).First(&ticket, "id = ?", ticketID).Error; err != nil {
		return nil, fmt.Errorf("%w: ticket", models.ErrNotFound)
	}

	var vendor models.Company
	if err := s.db.WithContext(ctx).
		First(&vendor, "id = ? AND kind = ? AND is_active = ?", vendorCompanyID, models.CompanyVendor, true).Error; err != nil {
		return nil, fmt.Errorf("%w: vendor company", models.ErrNotFound)
	}

	dir := NewGormDirectory(s.db)
	admin, err := dir.FindActiveUser(ctx, ownership.Query{
		CompanyID: vendorCompanyID,
		Role:      models.RoleVendorServiceAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: Vendor Service admin (S1) not found", models.ErrNotFound)
	}

	wo := models.WorkOrder{
		TicketID:         ticket.ID,
		VendorCompanyID:  vendorCompanyID,
		CurrentStatus:    models.WOStatusCreated,
		CurrentOwnerType: models.OwnerVendor,
		CurrentOwnerID:   admin.ID,
		CommentToVendor:  strings.TrimSpace(comment),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&wo).Error; err != nil {
			return err
		}
		audit := models.AuditLogEntry{
			EntityType: models.AuditEntityWorkOrder,
			EntityID:   wo.ID,
			PrevStatus: "",
			NewStatus:  string(models.WOStatusCreated),
			ActionType: "CREATE_WORK_ORDER",
			ActorType:  actor.Type,
			ActorID:    actor.ID,
			Comment:    wo.CommentToVendor,
			CreatedAt:  time.Now(),
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create work order: %w", err)
	}

	log.Printf("✅ Created work order %s under ticket %s (owner: S1 %s)", wo.ID, ticket.ID, admin.ID)
	return s.GetWorkOrder(ctx, wo.ID)
}

// AddReportRow appends a work-report line. Only the owning technician may
// write rows, and only while a visit is open; numbering continues across
// visits.
func (s *WorkOrderService) AddReportRow(ctx context.Context, workOrderID uuid.UUID, actor lifecycle.Actor, description, unit string, quantity float64) (*models.WorkReportRow, error) {
	var wo models.WorkOrder
	err := s.db.WithContext(ctx).
		Preload("Visits").
		First(&wo, "id = ?", workOrderID).Error
	if err != nil {
		return nil, fmt.Errorf("%w: work order", models.ErrNotFound)
	}

	if actor.Type != wo.CurrentOwnerType || actor.ID != wo.CurrentOwnerID {
		return nil, models.ErrTransitionDenied
	}
	if wo.CurrentStatus != models.WOStatusServiceInProgress || wo.OpenVisit() == nil {
		return nil, fmt.Errorf("%w: report rows can only be added during an open visit", models.ErrValidation)
	}
	if strings.TrimSpace(description) == "" || quantity < 0 {
		return nil, fmt.Errorf("%w: description is required and quantity must not be negative", models.ErrValidation)
	}

	var row models.WorkReportRow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxRow int64
		if err := tx.Model(&models.WorkReportRow{}).
			Where("work_order_id = ?", wo.ID).
			Select("COALESCE(MAX(row_number), 0)").Scan(&maxRow).Error; err != nil {
			return err
		}
		row = models.WorkReportRow{
			WorkOrderID: wo.ID,
			RowNumber:   int(maxRow) + 1,
			Description: strings.TrimSpace(description),
			Unit:        unit,
			Quantity:    quantity,
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetAuditHistory returns the committed transition history of an entity,
// oldest first.
func (s *WorkOrderService) GetAuditHistory(ctx context.Context, entityType models.AuditEntityType, entityID uuid.UUID) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit history: %w", err)
	}
	return entries, nil
}
