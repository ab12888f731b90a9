package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/amarinov1974/cmms-system-sub000/middleware"
	"github.com/amarinov1974/cmms-system-sub000/models"
)

// TicketHandler covers the peer ticket entity: creation by store managers,
// listing, and spawning work orders for vendors. The ticket's own
// lifecycle engine is a separate peer service using the same contracts.
type TicketHandler struct {
	db      *gorm.DB
	service *WorkOrderService
}

func NewTicketHandler(db *gorm.DB) *TicketHandler {
	return &TicketHandler{
		db:      db,
		service: NewWorkOrderService(db),
	}
}

type createTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateTicket handles POST /tickets. The store manager raising the ticket
// becomes its initial owner.
func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil || claims.Role != string(models.RoleStoreManager) || claims.StoreID == "" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req createTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeDomainError(w, fmt.Errorf("%w: title is required", models.ErrValidation))
		return
	}

	storeID, err := uuid.Parse(claims.StoreID)
	if err != nil {
		http.Error(w, "invalid store in claims", http.StatusBadRequest)
		return
	}
	var store models.Store
	if err := h.db.First(&store, "id = ?", storeID).Error; err != nil {
		writeDomainError(w, fmt.Errorf("%w: store", models.ErrNotFound))
		return
	}

	actorID := middleware.ActorUUID(r)
	ticket := models.Ticket{
		CompanyID:        store.CompanyID,
		StoreID:          store.ID,
		RegionID:         store.RegionID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		CurrentStatus:    models.TicketOpen,
		CurrentOwnerType: models.OwnerInternal,
		CurrentOwnerID:   actorID,
		CreatedByUserID:  actorID,
	}
	if err := h.db.Create(&ticket).Error; err != nil {
		http.Error(w, "failed to create ticket", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// GetTicket handles GET /tickets/{id} including its work orders.
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid ticket id", http.StatusBadRequest)
		return
	}
	var ticket models.Ticket
	if err := h.db.WithContext(r.Context()).
		Preload("Store").
		Preload("WorkOrders").
		First(&ticket, "id = ?", ticketID).Error; err != nil {
		writeDomainError(w, fmt.Errorf("%w: ticket", models.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// ListTickets handles GET /tickets, filterable by store, region and status.
func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	query := h.db.WithContext(r.Context()).Model(&models.Ticket{})

	if storeID := r.URL.Query().Get("store_id"); storeID != "" {
		query = query.Where("store_id = ?", storeID)
	}
	if regionID := r.URL.Query().Get("region_id"); regionID != "" {
		query = query.Where("region_id = ?", regionID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("current_status = ?", status)
	}

	var tickets []models.Ticket
	if err := query.Order("created_at DESC").Find(&tickets).Error; err != nil {
		http.Error(w, "failed to fetch tickets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

type spawnWorkOrderRequest struct {
	VendorCompanyID uuid.UUID `json:"vendor_company_id"`
	Comment         string    `json:"comment,omitempty"`
}

// SpawnWorkOrder handles POST /tickets/{id}/work-orders. Only the AMM side
// dispatches work to vendors.
func (h *TicketHandler) SpawnWorkOrder(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid ticket id", http.StatusBadRequest)
		return
	}

	var req spawnWorkOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.VendorCompanyID == uuid.Nil {
		writeDomainError(w, fmt.Errorf("%w: vendor_company_id is required", models.ErrValidation))
		return
	}

	wo, err := h.service.CreateWorkOrder(r.Context(), ticketID, req.VendorCompanyID, req.Comment, actorFromRequest(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wo)
}
