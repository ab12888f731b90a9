package handlers

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/amarinov1974/cmms-system-sub000/models"
)

func TestScanToken_RoundTrip(t *testing.T) {
	woID := uuid.New()
	two := 2

	token, err := IssueScanToken(woID, ScanCheckin, &two)
	if err != nil {
		t.Fatalf("IssueScanToken() error = %v", err)
	}

	result, err := ValidateScanToken(token, woID)
	if err != nil {
		t.Fatalf("ValidateScanToken() error = %v", err)
	}
	if result.ScanType != ScanCheckin {
		t.Errorf("scan type = %s, want CHECKIN", result.ScanType)
	}
	if result.TechCountConfirmed == nil || *result.TechCountConfirmed != 2 {
		t.Errorf("tech count = %v, want 2", result.TechCountConfirmed)
	}
}

func TestScanToken_WrongWorkOrder(t *testing.T) {
	token, err := IssueScanToken(uuid.New(), ScanCheckout, nil)
	if err != nil {
		t.Fatalf("IssueScanToken() error = %v", err)
	}
	if _, err := ValidateScanToken(token, uuid.New()); !errors.Is(err, models.ErrValidation) {
		t.Errorf("token accepted for a different work order, error = %v", err)
	}
}

func TestScanToken_Garbage(t *testing.T) {
	if _, err := ValidateScanToken("not-a-token", uuid.New()); !errors.Is(err, models.ErrValidation) {
		t.Errorf("garbage token accepted, error = %v", err)
	}
	if _, err := ValidateScanToken("", uuid.New()); !errors.Is(err, models.ErrValidation) {
		t.Errorf("empty token accepted, error = %v", err)
	}
}

func TestResolveAction_ScanGuards(t *testing.T) {
	h := &WorkOrderHandler{}
	woID := uuid.New()
	one := 1

	checkinToken, err := IssueScanToken(woID, ScanCheckin, &one)
	if err != nil {
		t.Fatalf("IssueScanToken() error = %v", err)
	}
	checkoutToken, err := IssueScanToken(woID, ScanCheckout, nil)
	if err != nil {
		t.Fatalf("IssueScanToken() error = %v", err)
	}

	t.Run("checkin with checkin token", func(t *testing.T) {
		action, payload, err := h.resolveAction(woID, &actionRequest{Action: "CHECKIN", ScanToken: checkinToken})
		if err != nil {
			t.Fatalf("resolveAction() error = %v", err)
		}
		if action != models.ActionCheckin {
			t.Errorf("action = %s, want CHECKIN", action)
		}
		if payload.TechCount == nil || *payload.TechCount != 1 {
			t.Errorf("tech count not carried from the scan token")
		}
	})

	t.Run("checkin with checkout token", func(t *testing.T) {
		if _, _, err := h.resolveAction(woID, &actionRequest{Action: "CHECKIN", ScanToken: checkoutToken}); !errors.Is(err, models.ErrValidation) {
			t.Errorf("wrong token type accepted, error = %v", err)
		}
	})

	t.Run("checkout maps outcome to action", func(t *testing.T) {
		for outcome, want := range models.CheckoutActions {
			action, _, err := h.resolveAction(woID, &actionRequest{
				Action: "CHECKOUT", ScanToken: checkoutToken, Outcome: outcome,
			})
			if err != nil {
				t.Fatalf("%s: resolveAction() error = %v", outcome, err)
			}
			if action != want {
				t.Errorf("%s resolved to %s, want %s", outcome, action, want)
			}
		}
	})

	t.Run("checkout with unknown outcome", func(t *testing.T) {
		if _, _, err := h.resolveAction(woID, &actionRequest{
			Action: "CHECKOUT", ScanToken: checkoutToken, Outcome: "PARTIAL",
		}); !errors.Is(err, models.ErrValidation) {
			t.Errorf("unknown outcome accepted, error = %v", err)
		}
	})

	t.Run("direct checkin without token", func(t *testing.T) {
		if _, _, err := h.resolveAction(woID, &actionRequest{Action: "CHECKIN"}); !errors.Is(err, models.ErrValidation) {
			t.Errorf("check-in without scan token accepted, error = %v", err)
		}
	})

	t.Run("lifecycle action names pass through", func(t *testing.T) {
		action, _, err := h.resolveAction(woID, &actionRequest{Action: "APPROVE_COST"})
		if err != nil {
			t.Fatalf("resolveAction() error = %v", err)
		}
		if action != models.ActionApproveCost {
			t.Errorf("action = %s, want APPROVE_COST", action)
		}
	})

	t.Run("scan-only actions cannot be called by name", func(t *testing.T) {
		for _, name := range []string{"CHECKOUT_FIXED", "CHECKOUT_FOLLOW_UP", "CHECKOUT_NEW_WO_NEEDED", "CHECKOUT_UNSUCCESSFUL"} {
			if _, _, err := h.resolveAction(woID, &actionRequest{Action: name}); !errors.Is(err, models.ErrValidation) {
				t.Errorf("%s accepted as a direct action, error = %v", name, err)
			}
		}
	})
}
