package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/amarinov1974/cmms-system-sub000/models"
	"github.com/amarinov1974/cmms-system-sub000/pkg/ownership"
)

type stubDirectory struct {
	users   []models.User
	queries []ownership.Query
}

func (d *stubDirectory) FindActiveUser(_ context.Context, q ownership.Query) (*models.User, error) {
	d.queries = append(d.queries, q)
	for i := range d.users {
		u := &d.users[i]
		if !u.IsActive || u.CompanyID != q.CompanyID || u.Role != q.Role {
			continue
		}
		if q.RegionID != nil && (u.RegionID == nil || *u.RegionID != *q.RegionID) {
			continue
		}
		if q.StoreID != nil && (u.StoreID == nil || *u.StoreID != *q.StoreID) {
			continue
		}
		if q.UserID != nil && u.ID != *q.UserID {
			continue
		}
		return u, nil
	}
	return nil, fmt.Errorf("%w: no active %s user", models.ErrNotFound, q.Role)
}

type engineFixture struct {
	dir     *stubDirectory
	engine  *Engine
	snap    Snapshot
	s1      uuid.UUID
	tech    uuid.UUID
	finance uuid.UUID
	amm     uuid.UUID
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		s1:      uuid.New(),
		tech:    uuid.New(),
		finance: uuid.New(),
		amm:     uuid.New(),
	}
	vendorCo := uuid.New()
	internalCo := uuid.New()
	regionID := uuid.New()
	storeID := uuid.New()

	f.dir = &stubDirectory{users: []models.User{
		{ID: f.s1, CompanyID: vendorCo, Role: models.RoleVendorServiceAdmin, IsActive: true},
		{ID: f.tech, CompanyID: vendorCo, Role: models.RoleVendorTechnician, IsActive: true},
		{ID: f.finance, CompanyID: vendorCo, Role: models.RoleVendorFinance, IsActive: true},
		{ID: f.amm, CompanyID: internalCo, Role: models.RoleAreaMaintenanceManager, RegionID: &regionID, IsActive: true},
	}}
	f.engine = NewEngine(f.dir)
	f.snap = Snapshot{
		EntityID:          uuid.New(),
		Status:            models.WOStatusCreated,
		OwnerType:         models.OwnerVendor,
		OwnerID:           f.s1,
		VendorCompanyID:   vendorCo,
		InternalCompanyID: internalCo,
		RegionID:          regionID,
		StoreID:           storeID,
	}
	return f
}

func (f *engineFixture) actor(id uuid.UUID, t models.OwnerType, role models.Role) Actor {
	return Actor{ID: id, Type: t, Role: role}
}

func TestDecide_AssignTechnician(t *testing.T) {
	f := newEngineFixture()

	patch, err := f.engine.Decide(context.Background(), f.snap, models.ActionAssignTechnician,
		f.actor(f.s1, models.OwnerVendor, models.RoleVendorServiceAdmin), &f.tech)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.NewStatus != models.WOStatusAcceptedTechAssigned {
		t.Errorf("new status = %s, want ACCEPTED_TECHNICIAN_ASSIGNED", patch.NewStatus)
	}
	if !patch.OwnerChanged || patch.NewOwnerType != models.OwnerVendor || patch.NewOwnerID != f.tech {
		t.Errorf("owner = (%v, %s, %s), want (true, VENDOR, technician)",
			patch.OwnerChanged, patch.NewOwnerType, patch.NewOwnerID)
	}
	if patch.PrevStatus != models.WOStatusCreated {
		t.Errorf("prev status = %s, want CREATED", patch.PrevStatus)
	}
}

func TestDecide_CheckoutFixedRoutesToFinance(t *testing.T) {
	f := newEngineFixture()
	f.snap.Status = models.WOStatusServiceInProgress
	f.snap.OwnerID = f.tech

	patch, err := f.engine.Decide(context.Background(), f.snap, models.ActionCheckoutFixed,
		f.actor(f.tech, models.OwnerVendor, models.RoleVendorTechnician), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.NewStatus != models.WOStatusServiceCompleted {
		t.Errorf("new status = %s, want SERVICE_COMPLETED", patch.NewStatus)
	}
	if !patch.OwnerChanged || patch.NewOwnerID != f.finance {
		t.Errorf("owner should move to the vendor finance user")
	}
}

func TestDecide_NonOwnerDeniedBeforeAnyLookup(t *testing.T) {
	f := newEngineFixture()
	f.snap.Status = models.WOStatusCostProposalPrepared
	f.snap.OwnerType = models.OwnerInternal
	f.snap.OwnerID = f.amm

	_, err := f.engine.Decide(context.Background(), f.snap, models.ActionApproveCost,
		f.actor(f.finance, models.OwnerVendor, models.RoleVendorFinance), nil)
	if !errors.Is(err, models.ErrTransitionDenied) {
		t.Fatalf("error = %v, want ErrTransitionDenied", err)
	}
	if len(f.dir.queries) != 0 {
		t.Errorf("directory was queried %d times for a denied action", len(f.dir.queries))
	}
}

func TestDecide_ClarificationKeepsStatus(t *testing.T) {
	f := newEngineFixture()
	f.snap.Status = models.WOStatusServiceCompleted
	f.snap.OwnerID = f.finance

	patch, err := f.engine.Decide(context.Background(), f.snap, models.ActionReturnForClarification,
		f.actor(f.finance, models.OwnerVendor, models.RoleVendorFinance), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.NewStatus != models.WOStatusServiceCompleted {
		t.Errorf("status changed to %s; clarification must keep it", patch.NewStatus)
	}
	if !patch.OwnerChanged || patch.NewOwnerID != f.amm {
		t.Errorf("owner should move to the AMM")
	}
}

func TestDecide_LookupFailureYieldsNoPatch(t *testing.T) {
	f := newEngineFixture()
	f.snap.Status = models.WOStatusServiceInProgress
	f.snap.OwnerID = f.tech
	// Remove the finance user so CHECKOUT_FIXED cannot route.
	f.dir.users = f.dir.users[:2]

	patch, err := f.engine.Decide(context.Background(), f.snap, models.ActionCheckoutFixed,
		f.actor(f.tech, models.OwnerVendor, models.RoleVendorTechnician), nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if patch != nil {
		t.Error("a failed lookup must not produce a partial patch")
	}
}

func TestDecide_OwnerUnchangedActions(t *testing.T) {
	f := newEngineFixture()
	f.snap.Status = models.WOStatusCostProposalPrepared
	f.snap.OwnerType = models.OwnerInternal
	f.snap.OwnerID = f.amm

	for _, action := range []models.WorkOrderAction{models.ActionApproveCost, models.ActionCloseWithoutCost} {
		patch, err := f.engine.Decide(context.Background(), f.snap, action,
			f.actor(f.amm, models.OwnerInternal, models.RoleAreaMaintenanceManager), nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", action, err)
		}
		if patch.OwnerChanged {
			t.Errorf("%s must not change the owner", action)
		}
	}
}
