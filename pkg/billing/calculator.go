// Package billing derives billable quantities from visit timestamps and
// pre-populates cost proposal rows from a vendor price list.
package billing

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/amarinov1974/cmms-system-sub000/models"
)

const quarterHourMs = 15 * 60 * 1000

// LaborHoursFromVisit bills one check-in/check-out span in quarter-hour
// increments, rounding up: 61 minutes bills as 1.25 hours. Missing
// timestamps or a non-positive duration bill as zero.
func LaborHoursFromVisit(checkin, checkout *time.Time) float64 {
	if checkin == nil || checkout == nil {
		return 0
	}
	durationMs := checkout.Sub(*checkin).Milliseconds()
	if durationMs <= 0 {
		return 0
	}
	return math.Ceil(float64(durationMs)/quarterHourMs) * 0.25
}

// TotalLaborHours sums labor hours over every visit. Repeated follow-up
// visits each contribute their own span. When no structured visits exist
// the legacy single checkin/checkout pair is used instead.
func TotalLaborHours(visits []models.WorkOrderVisit, legacyCheckin, legacyCheckout *time.Time) float64 {
	if len(visits) == 0 {
		return LaborHoursFromVisit(legacyCheckin, legacyCheckout)
	}
	total := 0.0
	for i := range visits {
		total += LaborHoursFromVisit(&visits[i].CheckinTs, visits[i].CheckoutTs)
	}
	return total
}

// ServiceTimeUnits bills a span in whole unitMinutes-sized blocks, rounding
// up: a 16 minute span at 15-minute units bills 2 units.
func ServiceTimeUnits(checkin, checkout *time.Time, unitMinutes int) int {
	if checkin == nil || checkout == nil || unitMinutes <= 0 {
		return 0
	}
	durationMs := checkout.Sub(*checkin).Milliseconds()
	if durationMs <= 0 {
		return 0
	}
	unitMs := int64(unitMinutes) * 60 * 1000
	return int(math.Ceil(float64(durationMs) / float64(unitMs)))
}

// totalServiceTimeUnits sums ServiceTimeUnits over every visit, with the
// same legacy fallback as TotalLaborHours.
func totalServiceTimeUnits(visits []models.WorkOrderVisit, legacyCheckin, legacyCheckout *time.Time, unitMinutes int) int {
	if len(visits) == 0 {
		return ServiceTimeUnits(legacyCheckin, legacyCheckout, unitMinutes)
	}
	total := 0
	for i := range visits {
		total += ServiceTimeUnits(&visits[i].CheckinTs, visits[i].CheckoutTs, unitMinutes)
	}
	return total
}

// ManualRow is a vendor-finance-entered proposal line. PriceListItemID, if
// set, must reference a still-active item of the same vendor company for
// the row to escape the review warning.
type ManualRow struct {
	Description     string     `json:"description"`
	Unit            string     `json:"unit"`
	Quantity        float64    `json:"quantity"`
	PricePerUnit    float64    `json:"price_per_unit"`
	PriceListItemID *uuid.UUID `json:"price_list_item_id,omitempty"`
}

// BuildProposalRows pre-populates the invoice rows for a cost proposal.
//
// When the price list carries auto-apply rules (SelectableInUI=false),
// each such rule contributes one row: time-banded rules (UnitMinutes set)
// bill service-time units, the rest bill per visit. Otherwise the legacy
// model applies: one arrival-fee row (quantity = visit count) plus one
// labor row per declared technician (quantity = total labor hours).
//
// Legacy rows are always generated when work happened; when the catalog
// lacks an active ARRIVAL_FEE or LABOR item the row is emitted unpriced
// and flagged for review, so derived work never silently disappears.
//
// Manual rows follow the derived rows; any manual row not backed by an
// active price-list item is flagged for AMM review. The returned set
// replaces the work order's previous rows wholesale.
func BuildProposalRows(wo *models.WorkOrder, priceList []models.VendorPriceListItem, manual []ManualRow) []models.InvoiceRow {
	var rows []models.InvoiceRow

	visitCount := len(wo.Visits)
	if visitCount == 0 && wo.CheckinTs != nil && wo.CheckoutTs != nil {
		visitCount = 1
	}

	autoApply := autoApplyItems(priceList)
	if len(autoApply) > 0 {
		for _, item := range autoApply {
			var qty float64
			if item.UnitMinutes != nil {
				qty = float64(totalServiceTimeUnits(wo.Visits, wo.CheckinTs, wo.CheckoutTs, *item.UnitMinutes))
			} else {
				qty = float64(visitCount)
			}
			if qty == 0 {
				continue
			}
			rows = append(rows, rowFromItem(item, qty))
		}
	} else {
		techCount := 1
		if wo.DeclaredTechCount != nil && *wo.DeclaredTechCount > 1 {
			techCount = *wo.DeclaredTechCount
		}
		laborHours := TotalLaborHours(wo.Visits, wo.CheckinTs, wo.CheckoutTs)

		if visitCount > 0 {
			if arrival, ok := findActiveByCategory(priceList, models.PriceCategoryArrivalFee); ok {
				rows = append(rows, rowFromItem(arrival, float64(visitCount)))
			} else {
				rows = append(rows, models.InvoiceRow{
					Description: "Arrival fee",
					Unit:        "visit",
					Quantity:    float64(visitCount),
					WarningFlag: true,
				})
			}
		}
		if laborHours > 0 {
			labor, ok := findActiveByCategory(priceList, models.PriceCategoryLabor)
			for i := 0; i < techCount; i++ {
				if ok {
					rows = append(rows, rowFromItem(labor, laborHours))
				} else {
					rows = append(rows, models.InvoiceRow{
						Description: "Technician labor",
						Unit:        "hour",
						Quantity:    laborHours,
						WarningFlag: true,
					})
				}
			}
		}
	}

	for _, m := range manual {
		row := models.InvoiceRow{
			Description:     m.Description,
			Unit:            m.Unit,
			Quantity:        m.Quantity,
			PricePerUnit:    m.PricePerUnit,
			LineTotal:       m.Quantity * m.PricePerUnit,
			PriceListItemID: m.PriceListItemID,
			WarningFlag:     !matchesActiveItem(m.PriceListItemID, priceList),
		}
		rows = append(rows, row)
	}

	for i := range rows {
		rows[i].WorkOrderID = wo.ID
		rows[i].RowNumber = i + 1
	}
	return rows
}

func rowFromItem(item models.VendorPriceListItem, qty float64) models.InvoiceRow {
	id := item.ID
	return models.InvoiceRow{
		Description:     item.Description,
		Unit:            item.Unit,
		Quantity:        qty,
		PricePerUnit:    item.PricePerUnit,
		LineTotal:       qty * item.PricePerUnit,
		PriceListItemID: &id,
	}
}

func autoApplyItems(priceList []models.VendorPriceListItem) []models.VendorPriceListItem {
	var items []models.VendorPriceListItem
	for _, item := range priceList {
		if item.IsActive && !item.SelectableInUI {
			items = append(items, item)
		}
	}
	return items
}

func findActiveByCategory(priceList []models.VendorPriceListItem, category string) (models.VendorPriceListItem, bool) {
	for _, item := range priceList {
		if item.IsActive && item.Category == category {
			return item, true
		}
	}
	return models.VendorPriceListItem{}, false
}

func matchesActiveItem(id *uuid.UUID, priceList []models.VendorPriceListItem) bool {
	if id == nil {
		return false
	}
	for _, item := range priceList {
		if item.ID == *id && item.IsActive {
			return true
		}
	}
	return false
}
