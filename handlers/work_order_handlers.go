package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/amarinov1974/cmms-system-sub000/middleware"
	"github.com/amarinov1974/cmms-system-sub000/models"
	"github.com/amarinov1974/cmms-system-sub000/pkg/billing"
	"github.com/amarinov1974/cmms-system-sub000/pkg/lifecycle"
	"github.com/amarinov1974/cmms-system-sub000/utils"
)

// WorkOrderHandler exposes the lifecycle service over HTTP.
type WorkOrderHandler struct {
	db      *gorm.DB
	service *WorkOrderService
}

func NewWorkOrderHandler(db *gorm.DB) *WorkOrderHandler {
	return &WorkOrderHandler{
		db:      db,
		service: NewWorkOrderService(db),
	}
}

// actionRequest is the inbound action call. CHECKIN/CHECKOUT come in under
// those two names with a scan token; CHECKOUT additionally carries the
// outcome that selects the concrete action.
type actionRequest struct {
	Action           string                 `json:"action"`
	Outcome          models.CheckoutOutcome `json:"outcome,omitempty"`
	ScanToken        string                 `json:"scan_token,omitempty"`
	TechnicianUserID *uuid.UUID             `json:"technician_user_id,omitempty"`
	ETA              *time.Time             `json:"eta,omitempty"`
	Comment          string                 `json:"comment,omitempty"`
	ManualRows       []billing.ManualRow    `json:"manual_rows,omitempty"`
	Lat              *float64               `json:"lat,omitempty"`
	Lng              *float64               `json:"lng,omitempty"`
}

func actorFromRequest(r *http.Request) lifecycle.Actor {
	return lifecycle.Actor{
		ID:   middleware.ActorUUID(r),
		Type: middleware.ActorOwnerType(r),
		Role: models.Role(middleware.GetRole(r)),
	}
}

// ExecuteAction handles POST /work-orders/{id}/actions.
func (h *WorkOrderHandler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	woID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid work order id", http.StatusBadRequest)
		return
	}

	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	action, payload, err := h.resolveAction(woID, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	wo, err := h.service.ExecuteAction(r.Context(), woID, action, actorFromRequest(r), payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "work_order": wo})
}

// resolveAction turns the wire-level action name into a lifecycle action.
// Scan-guarded actions are validated here; the validated scan result is
// trusted downstream and never re-derived.
func (h *WorkOrderHandler) resolveAction(woID uuid.UUID, req *actionRequest) (models.WorkOrderAction, ActionPayload, error) {
	payload := ActionPayload{
		TechnicianUserID: req.TechnicianUserID,
		ETA:              req.ETA,
		Comment:          req.Comment,
		ManualRows:       req.ManualRows,
	}
	if req.Lat != nil && req.Lng != nil {
		payload.Coordinate = &utils.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	}

	switch req.Action {
	case "CHECKIN":
		scan, err := ValidateScanToken(req.ScanToken, woID)
		if err != nil {
			return "", payload, err
		}
		if scan.ScanType != ScanCheckin {
			return "", payload, fmt.Errorf("%w: scan token is not a check-in token", models.ErrValidation)
		}
		payload.TechCount = scan.TechCountConfirmed
		return models.ActionCheckin, payload, nil

	case "CHECKOUT":
		scan, err := ValidateScanToken(req.ScanToken, woID)
		if err != nil {
			return "", payload, err
		}
		if scan.ScanType != ScanCheckout {
			return "", payload, fmt.Errorf("%w: scan token is not a check-out token", models.ErrValidation)
		}
		action, ok := models.CheckoutActions[req.Outcome]
		if !ok {
			return "", payload, fmt.Errorf("%w: outcome must be one of FIXED, FOLLOW_UP, NEW_WO_NEEDED, UNSUCCESSFUL", models.ErrValidation)
		}
		return action, payload, nil
	}

	switch action := models.WorkOrderAction(req.Action); action {
	case models.ActionAssignTechnician, models.ActionSubmitCostProposal,
		models.ActionResubmitCostProposal, models.ActionApproveCost,
		models.ActionRequestRevision, models.ActionCloseWithoutCost,
		models.ActionReturnForClarification, models.ActionResendToVendor,
		models.ActionReturnForTechCount, models.ActionReject:
		return action, payload, nil
	}
	return "", payload, fmt.Errorf("%w: unknown action %q", models.ErrValidation, req.Action)
}

// GetWorkOrder handles GET /work-orders/{id}.
func (h *WorkOrderHandler) GetWorkOrder(w http.ResponseWriter, r *http.Request) {
	woID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid work order id", http.StatusBadRequest)
		return
	}
	wo, err := h.service.GetWorkOrder(r.Context(), woID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

// ListWorkOrders handles GET /work-orders, filterable by ticket, owner and
// status.
func (h *WorkOrderHandler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	query := h.db.WithContext(r.Context()).Model(&models.WorkOrder{})

	if ticketID := r.URL.Query().Get("ticket_id"); ticketID != "" {
		query = query.Where("ticket_id = ?", ticketID)
	}
	if ownerID := r.URL.Query().Get("owner_id"); ownerID != "" {
		query = query.Where("current_owner_id = ?", ownerID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("current_status = ?", status)
	}

	var workOrders []models.WorkOrder
	if err := query.Order("created_at DESC").Find(&workOrders).Error; err != nil {
		http.Error(w, "failed to fetch work orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, workOrders)
}

// GetAuditHistory handles GET /work-orders/{id}/history.
func (h *WorkOrderHandler) GetAuditHistory(w http.ResponseWriter, r *http.Request) {
	woID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid work order id", http.StatusBadRequest)
		return
	}
	entries, err := h.service.GetAuditHistory(r.Context(), models.AuditEntityWorkOrder, woID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type reportRowRequest struct {
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
}

// AddReportRow handles POST /work-orders/{id}/report-rows.
func (h *WorkOrderHandler) AddReportRow(w http.ResponseWriter, r *http.Request) {
	woID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid work order id", http.StatusBadRequest)
		return
	}
	var req reportRowRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	row, err := h.service.AddReportRow(r.Context(), woID, actorFromRequest(r), req.Description, req.Unit, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}
