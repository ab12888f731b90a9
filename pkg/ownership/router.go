// Package ownership resolves the concrete next owner of a work order after
// a transition has been allowed. Lookups go through the injected
// DirectoryLookup so the engine can be tested with fixture directories.
package ownership

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/amarinov1974/cmms-system-sub000/models"
)

// Query describes one directory lookup. RegionID/StoreID narrow the search
// for internal roles; UserID pins a specific user (technician assignment).
type Query struct {
	CompanyID uuid.UUID
	Role      models.Role
	RegionID  *uuid.UUID
	StoreID   *uuid.UUID
	UserID    *uuid.UUID
}

// DirectoryLookup is the org-directory capability consumed by the router.
// Implementations must only return active users and must honor every
// populated scope field; a user from the wrong company is never a match.
type DirectoryLookup interface {
	FindActiveUser(ctx context.Context, q Query) (*models.User, error)
}

// Owner is a resolved (type, user) pair.
type Owner struct {
	Type models.OwnerType
	ID   uuid.UUID
}

// RouteContext carries the organizational coordinates of the work order's
// ticket, plus the named technician when the action assigns one.
type RouteContext struct {
	VendorCompanyID   uuid.UUID
	InternalCompanyID uuid.UUID
	RegionID          uuid.UUID
	StoreID           uuid.UUID
	TechnicianUserID  *uuid.UUID
}

// Router maps an allowed action to its next owner.
type Router struct {
	dir DirectoryLookup
}

func NewRouter(dir DirectoryLookup) *Router {
	return &Router{dir: dir}
}

// NextOwner resolves the owner a work order moves to after the given
// action. The second return value is false for actions that leave the
// owner unchanged. A lookup failure fails the whole operation; callers
// must not apply a status change without the resolved owner.
func (r *Router) NextOwner(ctx context.Context, action models.WorkOrderAction, rc RouteContext) (*Owner, bool, error) {
	switch action {
	case models.ActionAssignTechnician:
		if rc.TechnicianUserID == nil {
			return nil, false, fmt.Errorf("%w: technician_user_id is required", models.ErrValidation)
		}
		tech, err := r.dir.FindActiveUser(ctx, Query{
			CompanyID: rc.VendorCompanyID,
			Role:      models.RoleVendorTechnician,
			UserID:    rc.TechnicianUserID,
		})
		if err != nil {
			return nil, false, fmt.Errorf("%w: Technician not found for this vendor", models.ErrNotFound)
		}
		return &Owner{Type: models.OwnerVendor, ID: tech.ID}, true, nil

	case models.ActionCheckoutFixed, models.ActionRequestRevision:
		return r.vendorFinance(ctx, rc)

	case models.ActionCheckoutNewWONeeded, models.ActionCheckoutUnsuccessful,
		models.ActionSubmitCostProposal, models.ActionResubmitCostProposal,
		models.ActionReturnForClarification, models.ActionReject:
		return r.areaManager(ctx, rc)

	case models.ActionReturnForTechCount:
		sm, err := r.dir.FindActiveUser(ctx, Query{
			CompanyID: rc.InternalCompanyID,
			Role:      models.RoleStoreManager,
			StoreID:   &rc.StoreID,
		})
		if err != nil {
			return nil, false, fmt.Errorf("%w: Store Manager not found for this store", models.ErrNotFound)
		}
		return &Owner{Type: models.OwnerInternal, ID: sm.ID}, true, nil

	case models.ActionResendToVendor:
		admin, err := r.dir.FindActiveUser(ctx, Query{
			CompanyID: rc.VendorCompanyID,
			Role:      models.RoleVendorServiceAdmin,
		})
		if err != nil {
			return nil, false, fmt.Errorf("%w: Vendor Service admin (S1) not found", models.ErrNotFound)
		}
		return &Owner{Type: models.OwnerVendor, ID: admin.ID}, true, nil

	case models.ActionCheckin, models.ActionCheckoutFollowUp,
		models.ActionApproveCost, models.ActionCloseWithoutCost:
		return nil, false, nil
	}
	return nil, false, nil
}

func (r *Router) vendorFinance(ctx context.Context, rc RouteContext) (*Owner, bool, error) {
	fin, err := r.dir.FindActiveUser(ctx, Query{
		CompanyID: rc.VendorCompanyID,
		Role:      models.RoleVendorFinance,
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: Vendor Finance user (S3) not found", models.ErrNotFound)
	}
	return &Owner{Type: models.OwnerVendor, ID: fin.ID}, true, nil
}

func (r *Router) areaManager(ctx context.Context, rc RouteContext) (*Owner, bool, error) {
	amm, err := r.dir.FindActiveUser(ctx, Query{
		CompanyID: rc.InternalCompanyID,
		Role:      models.RoleAreaMaintenanceManager,
		RegionID:  &rc.RegionID,
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: AMM not found", models.ErrNotFound)
	}
	return &Owner{Type: models.OwnerInternal, ID: amm.ID}, true, nil
}
