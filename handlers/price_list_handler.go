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

// PriceListHandler manages vendor price-list catalogs.
type PriceListHandler struct {
	db *gorm.DB
}

func NewPriceListHandler(db *gorm.DB) *PriceListHandler {
	return &PriceListHandler{db: db}
}

// ListItems handles GET /vendors/{companyId}/price-list. By default only
// active items are returned; ?all=true includes retired ones.
func (h *PriceListHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	vendorID, err := uuid.Parse(mux.Vars(r)["companyId"])
	if err != nil {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}

	query := h.db.WithContext(r.Context()).Where("vendor_company_id = ?", vendorID)
	if r.URL.Query().Get("all") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var items []models.VendorPriceListItem
	if err := query.Order("category ASC, description ASC").Find(&items).Error; err != nil {
		http.Error(w, "failed to fetch price list", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type priceListItemRequest struct {
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	Unit           string  `json:"unit"`
	PricePerUnit   float64 `json:"price_per_unit"`
	SelectableInUI *bool   `json:"selectable_in_ui,omitempty"`
	UnitMinutes    *int    `json:"unit_minutes,omitempty"`
}

// CreateItem handles POST /vendors/{companyId}/price-list. Only the
// vendor's own finance user may maintain the catalog.
func (h *PriceListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	vendorID, err := uuid.Parse(mux.Vars(r)["companyId"])
	if err != nil {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}

	claims := middleware.GetClaims(r)
	if claims == nil || claims.Role != string(models.RoleVendorFinance) || claims.CompanyID != vendorID.String() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req priceListItemRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Description) == "" || req.PricePerUnit < 0 {
		writeDomainError(w, fmt.Errorf("%w: description is required and price must not be negative", models.ErrValidation))
		return
	}
	if req.UnitMinutes != nil && *req.UnitMinutes <= 0 {
		writeDomainError(w, fmt.Errorf("%w: unit_minutes must be positive when set", models.ErrValidation))
		return
	}

	item := models.VendorPriceListItem{
		VendorCompanyID: vendorID,
		Category:        strings.TrimSpace(req.Category),
		Description:     strings.TrimSpace(req.Description),
		Unit:            req.Unit,
		PricePerUnit:    req.PricePerUnit,
		IsActive:        true,
		SelectableInUI:  true,
		UnitMinutes:     req.UnitMinutes,
	}
	if req.SelectableInUI != nil {
		item.SelectableInUI = *req.SelectableInUI
	}

	if err := h.db.Create(&item).Error; err != nil {
		http.Error(w, "failed to create price list item", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// DeactivateItem handles DELETE /vendors/{companyId}/price-list/{itemId}.
// Items are soft-retired, never removed, so old invoice rows keep their
// reference.
func (h *PriceListHandler) DeactivateItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	vendorID, err := uuid.Parse(vars["companyId"])
	if err != nil {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}
	itemID, err := uuid.Parse(vars["itemId"])
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	claims := middleware.GetClaims(r)
	if claims == nil || claims.Role != string(models.RoleVendorFinance) || claims.CompanyID != vendorID.String() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	res := h.db.Model(&models.VendorPriceListItem{}).
		Where("id = ? AND vendor_company_id = ?", itemID, vendorID).
		Update("is_active", false)
	if res.Error != nil {
		http.Error(w, "failed to deactivate item", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		writeDomainError(w, fmt.Errorf("%w: price list item", models.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
