package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/amarinov1974/cmms-system-sub000/models"
	"github.com/amarinov1974/cmms-system-sub000/pkg/ownership"
)

// Actor is the authenticated caller of a lifecycle action.
type Actor struct {
	ID   uuid.UUID
	Type models.OwnerType
	Role models.Role
}

// Snapshot is the engine's read-only view of a work order and the
// organizational coordinates of its ticket.
type Snapshot struct {
	EntityID          uuid.UUID
	Status            models.WorkOrderStatus
	OwnerType         models.OwnerType
	OwnerID           uuid.UUID
	VendorCompanyID   uuid.UUID
	InternalCompanyID uuid.UUID
	RegionID          uuid.UUID
	StoreID           uuid.UUID
}

// Patch is the combined outcome of validation and ownership routing. It is
// applied atomically by the caller: a status change never lands without
// its owner change.
type Patch struct {
	PrevStatus   models.WorkOrderStatus
	NewStatus    models.WorkOrderStatus
	OwnerChanged bool
	NewOwnerType models.OwnerType
	NewOwnerID   uuid.UUID
}

// Engine composes the transition validator with the ownership router.
type Engine struct {
	router *ownership.Router
}

func NewEngine(dir ownership.DirectoryLookup) *Engine {
	return &Engine{router: ownership.NewRouter(dir)}
}

// Decide validates the requested action for the actor and, when allowed,
// resolves the next owner. It performs no writes; directory lookups are
// its only I/O. technicianID is consulted only by ASSIGN_TECHNICIAN.
func (e *Engine) Decide(ctx context.Context, snap Snapshot, action models.WorkOrderAction, actor Actor, technicianID *uuid.UUID) (*Patch, error) {
	verdict := ValidateTransition(TransitionRequest{
		EntityType:       models.AuditEntityWorkOrder,
		EntityID:         snap.EntityID,
		CurrentStatus:    snap.Status,
		CurrentOwnerID:   snap.OwnerID,
		CurrentOwnerType: snap.OwnerType,
		Action:           action,
		ActorID:          actor.ID,
		ActorType:        actor.Type,
		ActorRole:        actor.Role,
	})
	if !verdict.Allowed {
		return nil, verdict.Err
	}

	owner, changed, err := e.router.NextOwner(ctx, action, ownership.RouteContext{
		VendorCompanyID:   snap.VendorCompanyID,
		InternalCompanyID: snap.InternalCompanyID,
		RegionID:          snap.RegionID,
		StoreID:           snap.StoreID,
		TechnicianUserID:  technicianID,
	})
	if err != nil {
		return nil, err
	}

	patch := &Patch{
		PrevStatus: snap.Status,
		NewStatus:  verdict.NewStatus,
	}
	if changed {
		patch.OwnerChanged = true
		patch.NewOwnerType = owner.Type
		patch.NewOwnerID = owner.ID
	}
	return patch, nil
}
