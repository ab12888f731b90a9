package lifecycle

import (
	"github.com/google/uuid"

	"github.com/amarinov1974/cmms-system-sub000/models"
)

// TransitionRequest carries everything the validator needs; it never loads
// state itself.
type TransitionRequest struct {
	EntityType       models.AuditEntityType
	EntityID         uuid.UUID
	CurrentStatus    models.WorkOrderStatus
	CurrentOwnerID   uuid.UUID
	CurrentOwnerType models.OwnerType
	Action           models.WorkOrderAction
	ActorID          uuid.UUID
	ActorType        models.OwnerType
	ActorRole        models.Role
}

// Verdict is the validator's allow/deny decision.
type Verdict struct {
	Allowed   bool
	NewStatus models.WorkOrderStatus
	Err       error
}

// ValidateTransition is the pure decision function of the engine. Actor
// eligibility is strict current-owner matching and runs before the table
// lookup; an actor who is not the owner gets exactly the same verdict as
// an owner requesting an undefined transition, so a denial never reveals
// whether the entity exists or what state it is in.
func ValidateTransition(req TransitionRequest) Verdict {
	if req.ActorType != req.CurrentOwnerType || req.ActorID != req.CurrentOwnerID {
		return Verdict{Allowed: false, Err: models.ErrTransitionDenied}
	}
	next, ok := NextStatus(req.CurrentStatus, req.Action)
	if !ok {
		return Verdict{Allowed: false, Err: models.ErrTransitionDenied}
	}
	return Verdict{Allowed: true, NewStatus: next}
}
