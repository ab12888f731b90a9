package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amarinov1974/cmms-system-sub000/models"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func at(minutes int) *time.Time {
	t := baseTime.Add(time.Duration(minutes) * time.Minute)
	return &t
}

func visit(startMin, endMin int) models.WorkOrderVisit {
	return models.WorkOrderVisit{
		ID:         uuid.New(),
		CheckinTs:  *at(startMin),
		CheckoutTs: at(endMin),
	}
}

func TestLaborHoursFromVisit(t *testing.T) {
	tests := []struct {
		name     string
		checkin  *time.Time
		checkout *time.Time
		want     float64
	}{
		{"61 minutes rounds up to 1.25", at(0), at(61), 1.25},
		{"exactly one hour", at(0), at(60), 1.0},
		{"one minute bills a quarter hour", at(0), at(1), 0.25},
		{"fifteen minutes exactly", at(0), at(15), 0.25},
		{"zero duration", at(30), at(30), 0},
		{"checkout before checkin", at(30), at(10), 0},
		{"nil checkin", nil, at(30), 0},
		{"nil checkout", at(0), nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LaborHoursFromVisit(tt.checkin, tt.checkout); got != tt.want {
				t.Errorf("LaborHoursFromVisit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotalLaborHours(t *testing.T) {
	t.Run("sums multiple visits", func(t *testing.T) {
		visits := []models.WorkOrderVisit{
			visit(0, 90),    // 1.5h
			visit(200, 240), // 0.75h (40 min)
		}
		if got := TotalLaborHours(visits, nil, nil); got != 2.25 {
			t.Errorf("TotalLaborHours() = %v, want 2.25", got)
		}
	})
	t.Run("open visit contributes nothing", func(t *testing.T) {
		open := models.WorkOrderVisit{CheckinTs: *at(0)}
		visits := []models.WorkOrderVisit{visit(0, 60), open}
		if got := TotalLaborHours(visits, nil, nil); got != 1.0 {
			t.Errorf("TotalLaborHours() = %v, want 1.0", got)
		}
	})
	t.Run("legacy fallback when no visits", func(t *testing.T) {
		if got := TotalLaborHours(nil, at(0), at(61)); got != 1.25 {
			t.Errorf("TotalLaborHours() = %v, want 1.25", got)
		}
	})
	t.Run("visits win over legacy timestamps", func(t *testing.T) {
		visits := []models.WorkOrderVisit{visit(0, 30)}
		if got := TotalLaborHours(visits, at(0), at(600)); got != 0.5 {
			t.Errorf("TotalLaborHours() = %v, want 0.5", got)
		}
	})
}

func TestServiceTimeUnits(t *testing.T) {
	tests := []struct {
		name        string
		checkin     *time.Time
		checkout    *time.Time
		unitMinutes int
		want        int
	}{
		{"16 minutes at 15-minute units bills 2", at(0), at(16), 15, 2},
		{"15 minutes exactly bills 1", at(0), at(15), 15, 1},
		{"one hour at 30-minute units", at(0), at(60), 30, 2},
		{"zero unit size", at(0), at(60), 0, 0},
		{"nil checkout", at(0), nil, 15, 0},
		{"negative span", at(30), at(0), 15, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ServiceTimeUnits(tt.checkin, tt.checkout, tt.unitMinutes); got != tt.want {
				t.Errorf("ServiceTimeUnits() = %v, want %v", got, tt.want)
			}
		})
	}
}

func activeItem(category, desc, unit string, price float64) models.VendorPriceListItem {
	return models.VendorPriceListItem{
		ID:             uuid.New(),
		Category:       category,
		Description:    desc,
		Unit:           unit,
		PricePerUnit:   price,
		IsActive:       true,
		SelectableInUI: true,
	}
}

func TestBuildProposalRows_LegacyModel(t *testing.T) {
	arrival := activeItem(models.PriceCategoryArrivalFee, "Arrival fee", "visit", 40)
	labor := activeItem(models.PriceCategoryLabor, "Technician labor", "hour", 25)
	priceList := []models.VendorPriceListItem{arrival, labor}

	two := 2
	wo := &models.WorkOrder{
		ID:                uuid.New(),
		DeclaredTechCount: &two,
		Visits: []models.WorkOrderVisit{
			visit(0, 90),    // 1.5h
			visit(200, 240), // 0.75h
		},
	}

	rows := BuildProposalRows(wo, priceList, nil)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (arrival + one labor row per technician)", len(rows))
	}
	if rows[0].Description != "Arrival fee" || rows[0].Quantity != 2 || rows[0].LineTotal != 80 {
		t.Errorf("arrival row = %q qty=%v total=%v, want Arrival fee qty=2 total=80",
			rows[0].Description, rows[0].Quantity, rows[0].LineTotal)
	}
	for _, r := range rows[1:] {
		if r.Description != "Technician labor" || r.Quantity != 2.25 {
			t.Errorf("labor row = %q qty=%v, want Technician labor qty=2.25", r.Description, r.Quantity)
		}
		if r.LineTotal != 2.25*25 {
			t.Errorf("labor line total = %v, want %v", r.LineTotal, 2.25*25)
		}
	}
	for i, r := range rows {
		if r.RowNumber != i+1 {
			t.Errorf("row %d numbered %d", i, r.RowNumber)
		}
		if r.WorkOrderID != wo.ID {
			t.Errorf("row %d not stamped with the work order id", i)
		}
		if r.WarningFlag {
			t.Errorf("derived row %d flagged for review", i)
		}
	}
}

func TestBuildProposalRows_AutoApplyModel(t *testing.T) {
	fifteen := 15
	serviceTime := models.VendorPriceListItem{
		ID:             uuid.New(),
		Category:       models.PriceCategoryServiceTime,
		Description:    "Service time, started 15 min",
		Unit:           "unit",
		PricePerUnit:   12,
		IsActive:       true,
		SelectableInUI: false,
		UnitMinutes:    &fifteen,
	}
	arrival := models.VendorPriceListItem{
		ID:             uuid.New(),
		Category:       models.PriceCategoryArrivalFee,
		Description:    "Call-out fee",
		Unit:           "visit",
		PricePerUnit:   40,
		IsActive:       true,
		SelectableInUI: false,
	}
	spare := activeItem("PARTS", "Spare part", "pcs", 10)
	priceList := []models.VendorPriceListItem{serviceTime, arrival, spare}

	wo := &models.WorkOrder{
		ID:     uuid.New(),
		Visits: []models.WorkOrderVisit{visit(0, 16), visit(100, 130)},
	}

	rows := BuildProposalRows(wo, priceList, nil)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (one per auto-apply rule)", len(rows))
	}
	// 16 min -> 2 units, 30 min -> 2 units.
	if rows[0].Description != "Service time, started 15 min" || rows[0].Quantity != 4 {
		t.Errorf("service time row qty = %v, want 4", rows[0].Quantity)
	}
	if rows[1].Description != "Call-out fee" || rows[1].Quantity != 2 {
		t.Errorf("call-out row qty = %v, want 2 (one per visit)", rows[1].Quantity)
	}
}

func TestBuildProposalRows_ManualRows(t *testing.T) {
	spare := activeItem("PARTS", "Compressor relay", "pcs", 18)
	retired := activeItem("PARTS", "Old relay", "pcs", 9)
	retired.IsActive = false
	priceList := []models.VendorPriceListItem{spare, retired}

	wo := &models.WorkOrder{ID: uuid.New()}
	manual := []ManualRow{
		{Description: "Compressor relay", Unit: "pcs", Quantity: 2, PricePerUnit: 18, PriceListItemID: &spare.ID},
		{Description: "Crane rental", Unit: "day", Quantity: 1, PricePerUnit: 300},
		{Description: "Old relay", Unit: "pcs", Quantity: 1, PricePerUnit: 9, PriceListItemID: &retired.ID},
	}

	rows := BuildProposalRows(wo, priceList, manual)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].WarningFlag {
		t.Error("catalog-backed row must not carry a warning")
	}
	if !rows[1].WarningFlag {
		t.Error("free-text row must be flagged for review")
	}
	if !rows[2].WarningFlag {
		t.Error("row referencing a retired item must be flagged for review")
	}
	if rows[1].LineTotal != 300 {
		t.Errorf("line total = %v, want 300", rows[1].LineTotal)
	}
}

func TestBuildProposalRows_RebuildReplacesNumbering(t *testing.T) {
	// No LABOR catalog item: the labor row is still emitted, unpriced and
	// flagged, so each build yields arrival + labor (+manual).
	arrival := activeItem(models.PriceCategoryArrivalFee, "Arrival fee", "visit", 40)
	priceList := []models.VendorPriceListItem{arrival}

	wo := &models.WorkOrder{
		ID:     uuid.New(),
		Visits: []models.WorkOrderVisit{visit(0, 30)},
	}

	first := BuildProposalRows(wo, priceList, []ManualRow{
		{Description: "Extra", Unit: "pcs", Quantity: 1, PricePerUnit: 5},
	})
	second := BuildProposalRows(wo, priceList, nil)

	if len(first) != 3 || len(second) != 2 {
		t.Fatalf("row counts = %d/%d, want 3/2", len(first), len(second))
	}
	if !first[1].WarningFlag || first[1].PricePerUnit != 0 {
		t.Errorf("labor fallback row = flag %v price %v, want flagged and unpriced",
			first[1].WarningFlag, first[1].PricePerUnit)
	}
	for i, r := range second {
		if r.RowNumber != i+1 {
			t.Errorf("rebuilt set row %d numbered %d", i, r.RowNumber)
		}
	}
}

func TestBuildProposalRows_MissingCatalogFallbacks(t *testing.T) {
	// Empty catalog: the legacy model still bills the work that happened,
	// as unpriced rows flagged for AMM review.
	wo := &models.WorkOrder{
		ID:     uuid.New(),
		Visits: []models.WorkOrderVisit{visit(0, 61)},
	}

	rows := BuildProposalRows(wo, nil, nil)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (arrival + labor fallbacks)", len(rows))
	}
	if rows[0].Description != "Arrival fee" || rows[0].Quantity != 1 {
		t.Errorf("arrival fallback = %q qty=%v, want Arrival fee qty=1", rows[0].Description, rows[0].Quantity)
	}
	if rows[1].Description != "Technician labor" || rows[1].Quantity != 1.25 {
		t.Errorf("labor fallback = %q qty=%v, want Technician labor qty=1.25", rows[1].Description, rows[1].Quantity)
	}
	for i, r := range rows {
		if !r.WarningFlag {
			t.Errorf("fallback row %d not flagged for review", i)
		}
		if r.PricePerUnit != 0 || r.LineTotal != 0 {
			t.Errorf("fallback row %d carries a price", i)
		}
		if r.PriceListItemID != nil {
			t.Errorf("fallback row %d references a catalog item", i)
		}
	}
}

func TestBuildProposalRows_NoTimestampsNoLegacyRows(t *testing.T) {
	arrival := activeItem(models.PriceCategoryArrivalFee, "Arrival fee", "visit", 40)
	labor := activeItem(models.PriceCategoryLabor, "Technician labor", "hour", 25)

	wo := &models.WorkOrder{ID: uuid.New()}
	rows := BuildProposalRows(wo, []models.VendorPriceListItem{arrival, labor}, nil)
	if len(rows) != 0 {
		t.Errorf("got %d rows for a work order without any visit, want 0", len(rows))
	}
}

func BenchmarkBuildProposalRows(b *testing.B) {
	arrival := activeItem(models.PriceCategoryArrivalFee, "Arrival fee", "visit", 40)
	labor := activeItem(models.PriceCategoryLabor, "Technician labor", "hour", 25)
	priceList := []models.VendorPriceListItem{arrival, labor}
	three := 3
	wo := &models.WorkOrder{
		ID:                uuid.New(),
		DeclaredTechCount: &three,
		Visits:            []models.WorkOrderVisit{visit(0, 90), visit(200, 240), visit(400, 475)},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildProposalRows(wo, priceList, nil)
	}
}
