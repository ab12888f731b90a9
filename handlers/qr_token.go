package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/amarinov1974/cmms-system-sub000/middleware"
	"github.com/amarinov1974/cmms-system-sub000/models"
)

var qrTokenKey = []byte(os.Getenv("QR_TOKEN_SECRET"))

// ScanType distinguishes the two QR code kinds a store manager can issue.
type ScanType string

const (
	ScanCheckin  ScanType = "CHECKIN"
	ScanCheckout ScanType = "CHECKOUT"
)

// ScanClaims bind a scan token to a single work order and scan direction.
// TechCountConfirmed is filled by the store manager at check-in time and
// trusted verbatim by the lifecycle engine.
type ScanClaims struct {
	WorkOrderID        string   `json:"workOrderId"`
	ScanType           ScanType `json:"scanType"`
	TechCountConfirmed *int     `json:"techCountConfirmed,omitempty"`
	jwt.RegisteredClaims
}

// ScanResult is the validated outcome handed to the lifecycle service.
type ScanResult struct {
	Valid              bool
	ScanType           ScanType
	TechCountConfirmed *int
}

// IssueScanToken signs a short-lived scan token for one work order.
func IssueScanToken(workOrderID uuid.UUID, scanType ScanType, techCount *int) (string, error) {
	claims := ScanClaims{
		WorkOrderID:        workOrderID.String(),
		ScanType:           scanType,
		TechCountConfirmed: techCount,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(qrTokenKey)
}

// ValidateScanToken checks signature, expiry and the work order binding.
func ValidateScanToken(tokenStr string, workOrderID uuid.UUID) (*ScanResult, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ScanClaims{}, func(t *jwt.Token) (interface{}, error) {
		return qrTokenKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired scan token", models.ErrValidation)
	}
	claims, ok := token.Claims.(*ScanClaims)
	if !ok || claims.WorkOrderID != workOrderID.String() {
		return nil, fmt.Errorf("%w: scan token does not match this work order", models.ErrValidation)
	}
	return &ScanResult{Valid: true, ScanType: claims.ScanType, TechCountConfirmed: claims.TechCountConfirmed}, nil
}

type scanTokenRequest struct {
	ScanType  ScanType `json:"scan_type"`
	TechCount *int     `json:"tech_count,omitempty"`
}

// ScanTokenHandler issues check-in/check-out QR tokens. Only the store
// manager of the work order's store may issue them.
type ScanTokenHandler struct {
	db *gorm.DB
}

func NewScanTokenHandler(db *gorm.DB) *ScanTokenHandler {
	return &ScanTokenHandler{db: db}
}

func (h *ScanTokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	woID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid work order id", http.StatusBadRequest)
		return
	}

	var req scanTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ScanType != ScanCheckin && req.ScanType != ScanCheckout {
		http.Error(w, "scan_type must be CHECKIN or CHECKOUT", http.StatusBadRequest)
		return
	}

	var wo models.WorkOrder
	if err := h.db.Preload("Ticket").First(&wo, "id = ?", woID).Error; err != nil {
		writeDomainError(w, fmt.Errorf("%w: work order", models.ErrNotFound))
		return
	}

	claims := middleware.GetClaims(r)
	if claims == nil || claims.Role != string(models.RoleStoreManager) ||
		claims.StoreID != wo.Ticket.StoreID.String() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	token, err := IssueScanToken(woID, req.ScanType, req.TechCount)
	if err != nil {
		http.Error(w, "failed to sign token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"scan_type":  req.ScanType,
		"expires_in": int((15 * time.Minute).Seconds()),
	})
}
