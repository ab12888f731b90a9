package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/amarinov1974/cmms-system-sub000/models"
	"github.com/amarinov1974/cmms-system-sub000/pkg/billing"
	"github.com/amarinov1974/cmms-system-sub000/utils"
)

func intPtr(n int) *int { return &n }

func openVisitWO() *models.WorkOrder {
	return &models.WorkOrder{
		ID: uuid.New(),
		Visits: []models.WorkOrderVisit{
			{ID: uuid.New(), CheckinTs: time.Now().Add(-time.Hour)},
		},
	}
}

func TestValidateActionPayload_InvoiceBatchLock(t *testing.T) {
	batchID := uuid.New()
	wo := &models.WorkOrder{ID: uuid.New(), InvoiceBatchID: &batchID}

	err := validateActionPayload(wo, models.ActionApproveCost, ActionPayload{})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestValidateActionPayload_Checkin(t *testing.T) {
	tests := []struct {
		name    string
		wo      *models.WorkOrder
		payload ActionPayload
		wantErr bool
	}{
		{
			name:    "missing tech count",
			wo:      &models.WorkOrder{ID: uuid.New()},
			payload: ActionPayload{},
			wantErr: true,
		},
		{
			name:    "zero tech count",
			wo:      &models.WorkOrder{ID: uuid.New()},
			payload: ActionPayload{TechCount: intPtr(0)},
			wantErr: true,
		},
		{
			name:    "visit already open",
			wo:      openVisitWO(),
			payload: ActionPayload{TechCount: intPtr(1)},
			wantErr: true,
		},
		{
			name:    "valid check-in",
			wo:      &models.WorkOrder{ID: uuid.New()},
			payload: ActionPayload{TechCount: intPtr(2)},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateActionPayload(tt.wo, models.ActionCheckin, tt.payload)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateActionPayload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, models.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestValidateActionPayload_CheckinGeofence(t *testing.T) {
	// A square around (0, 0), roughly 200m across.
	fence := `{"coordinates":[{"lat":-0.001,"lng":-0.001},{"lat":-0.001,"lng":0.001},{"lat":0.001,"lng":0.001},{"lat":0.001,"lng":-0.001}]}`
	wo := &models.WorkOrder{
		ID:     uuid.New(),
		Ticket: &models.Ticket{Store: &models.Store{Geofence: datatypes.JSON(fence)}},
	}

	inside := ActionPayload{TechCount: intPtr(1), Coordinate: &utils.Coordinate{Lat: 0, Lng: 0}}
	if err := validateActionPayload(wo, models.ActionCheckin, inside); err != nil {
		t.Errorf("check-in inside the fence rejected: %v", err)
	}

	outside := ActionPayload{TechCount: intPtr(1), Coordinate: &utils.Coordinate{Lat: 1, Lng: 1}}
	if err := validateActionPayload(wo, models.ActionCheckin, outside); !errors.Is(err, models.ErrValidation) {
		t.Errorf("check-in outside the fence accepted, error = %v", err)
	}

	// No coordinate supplied: geofence is not enforced.
	if err := validateActionPayload(wo, models.ActionCheckin, ActionPayload{TechCount: intPtr(1)}); err != nil {
		t.Errorf("check-in without coordinate rejected: %v", err)
	}
}

func TestValidateActionPayload_Checkout(t *testing.T) {
	tests := []struct {
		name    string
		wo      *models.WorkOrder
		action  models.WorkOrderAction
		comment string
		wantErr bool
	}{
		{"fixed without comment is fine", openVisitWO(), models.ActionCheckoutFixed, "", false},
		{"follow-up requires comment", openVisitWO(), models.ActionCheckoutFollowUp, "", true},
		{"follow-up with blank comment", openVisitWO(), models.ActionCheckoutFollowUp, "   ", true},
		{"follow-up with comment", openVisitWO(), models.ActionCheckoutFollowUp, "compressor leaking", false},
		{"new WO needed requires comment", openVisitWO(), models.ActionCheckoutNewWONeeded, "", true},
		{"unsuccessful requires comment", openVisitWO(), models.ActionCheckoutUnsuccessful, "", true},
		{"no open visit", &models.WorkOrder{ID: uuid.New()}, models.ActionCheckoutFixed, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateActionPayload(tt.wo, tt.action, ActionPayload{Comment: tt.comment})
			if (err != nil) != tt.wantErr {
				t.Errorf("validateActionPayload() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateActionPayload_ProposalRows(t *testing.T) {
	wo := &models.WorkOrder{ID: uuid.New()}

	bad := []billing.ManualRow{{Description: "Part", Unit: "pcs", Quantity: -1, PricePerUnit: 5}}
	if err := validateActionPayload(wo, models.ActionSubmitCostProposal, ActionPayload{ManualRows: bad}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("negative quantity accepted, error = %v", err)
	}

	blank := []billing.ManualRow{{Description: "  ", Unit: "pcs", Quantity: 1, PricePerUnit: 5}}
	if err := validateActionPayload(wo, models.ActionResubmitCostProposal, ActionPayload{ManualRows: blank}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("blank description accepted, error = %v", err)
	}

	good := []billing.ManualRow{{Description: "Part", Unit: "pcs", Quantity: 1, PricePerUnit: 5}}
	if err := validateActionPayload(wo, models.ActionSubmitCostProposal, ActionPayload{ManualRows: good}); err != nil {
		t.Errorf("valid rows rejected: %v", err)
	}
}

func TestValidateActionPayload_AssignTechnician(t *testing.T) {
	wo := &models.WorkOrder{ID: uuid.New()}
	if err := validateActionPayload(wo, models.ActionAssignTechnician, ActionPayload{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing technician id accepted, error = %v", err)
	}
	techID := uuid.New()
	if err := validateActionPayload(wo, models.ActionAssignTechnician, ActionPayload{TechnicianUserID: &techID}); err != nil {
		t.Errorf("valid assignment rejected: %v", err)
	}
}
