package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/amarinov1974/cmms-system-sub000/middleware"
	"github.com/amarinov1974/cmms-system-sub000/models"
)

// InvoiceBatchHandler lets a vendor's finance user bundle approved work
// orders into a batch and download it as an Excel file. Inclusion sets
// InvoiceBatchID on the work order, which locks its invoice rows.
type InvoiceBatchHandler struct {
	db *gorm.DB
}

func NewInvoiceBatchHandler(db *gorm.DB) *InvoiceBatchHandler {
	return &InvoiceBatchHandler{db: db}
}

// CreateBatch handles POST /invoice-batches. It collects every approved,
// not-yet-batched work order of the caller's vendor company.
func (h *InvoiceBatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil || claims.Role != string(models.RoleVendorFinance) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	vendorID, err := uuid.Parse(claims.CompanyID)
	if err != nil {
		http.Error(w, "invalid company in claims", http.StatusBadRequest)
		return
	}

	var batch models.InvoiceBatch
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var workOrders []models.WorkOrder
		if err := tx.Preload("InvoiceRows").
			Where("vendor_company_id = ? AND current_status = ? AND invoice_batch_id IS NULL",
				vendorID, models.WOStatusCostProposalApproved).
			Find(&workOrders).Error; err != nil {
			return err
		}
		if len(workOrders) == 0 {
			return fmt.Errorf("%w: no approved work orders to batch", models.ErrValidation)
		}

		total := 0.0
		ids := make([]uuid.UUID, 0, len(workOrders))
		for _, wo := range workOrders {
			ids = append(ids, wo.ID)
			for _, row := range wo.InvoiceRows {
				total += row.LineTotal
			}
		}

		batch = models.InvoiceBatch{
			VendorCompanyID: vendorID,
			BatchNumber:     fmt.Sprintf("INV-%s-%s", time.Now().Format("20060102"), uuid.New().String()[:8]),
			CreatedByUserID: middleware.ActorUUID(r),
			TotalAmount:     total,
		}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}

		// Guard against a work order slipping into another batch between
		// the read and this write.
		res := tx.Model(&models.WorkOrder{}).
			Where("id IN ? AND invoice_batch_id IS NULL", ids).
			Update("invoice_batch_id", batch.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return models.ErrConflict
		}
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log.Printf("✅ Created invoice batch %s (%s, total %.2f)", batch.ID, batch.BatchNumber, batch.TotalAmount)
	writeJSON(w, http.StatusCreated, batch)
}

// ListBatches handles GET /invoice-batches for the caller's vendor company.
func (h *InvoiceBatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil || claims.Role != string(models.RoleVendorFinance) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var batches []models.InvoiceBatch
	if err := h.db.WithContext(r.Context()).
		Where("vendor_company_id = ?", claims.CompanyID).
		Order("created_at DESC").
		Find(&batches).Error; err != nil {
		http.Error(w, "failed to fetch batches", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// ExportBatch handles GET /invoice-batches/{id}/export and streams the
// batch as an .xlsx download.
func (h *InvoiceBatchHandler) ExportBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid batch id", http.StatusBadRequest)
		return
	}

	var batch models.InvoiceBatch
	if err := h.db.WithContext(r.Context()).
		Preload("WorkOrders").
		Preload("WorkOrders.InvoiceRows", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_number ASC")
		}).
		First(&batch, "id = ?", batchID).Error; err != nil {
		writeDomainError(w, fmt.Errorf("%w: invoice batch", models.ErrNotFound))
		return
	}

	claims := middleware.GetClaims(r)
	if claims == nil || claims.CompanyID != batch.VendorCompanyID.String() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	excelFile, err := createBatchExcelFile(&batch)
	if err != nil {
		http.Error(w, "Failed to generate Excel file", http.StatusInternalServerError)
		return
	}

	buffer, err := excelFile.WriteToBuffer()
	if err != nil {
		http.Error(w, "Failed to write Excel file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s.xlsx", batch.BatchNumber)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))

	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// createBatchExcelFile renders one sheet: batch header, then one line per
// invoice row grouped by work order, then the batch total.
func createBatchExcelFile(batch *models.InvoiceBatch) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Invoice Batch"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	f.SetCellValue(sheetName, "A1", batch.BatchNumber)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
	})
	headers := []string{"Work Order", "Row", "Description", "Unit", "Quantity", "Price/Unit", "Line Total", "Review"}
	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "C", "C", 40)

	rowIdx := 5
	for _, wo := range batch.WorkOrders {
		for _, row := range wo.InvoiceRows {
			values := []interface{}{
				wo.ID.String(),
				row.RowNumber,
				row.Description,
				row.Unit,
				row.Quantity,
				row.PricePerUnit,
				row.LineTotal,
			}
			for colIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
				f.SetCellValue(sheetName, cell, v)
			}
			if row.WarningFlag {
				cell, _ := excelize.CoordinatesToCellName(8, rowIdx)
				f.SetCellValue(sheetName, cell, "off-catalog")
			}
			rowIdx++
		}
	}

	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	labelCell, _ := excelize.CoordinatesToCellName(6, rowIdx+1)
	totalCell, _ := excelize.CoordinatesToCellName(7, rowIdx+1)
	f.SetCellValue(sheetName, labelCell, "Total")
	f.SetCellValue(sheetName, totalCell, batch.TotalAmount)
	f.SetCellStyle(sheetName, labelCell, totalCell, totalStyle)

	return f, nil
}
