// Package lifecycle implements the work order transition engine: a static
// transition table, a pure transition validator and a decision step that
// combines the validator with ownership routing into a single patch.
package lifecycle

import (
	"github.com/amarinov1974/cmms-system-sub000/models"
)

type transitionKey struct {
	Status models.WorkOrderStatus
	Action models.WorkOrderAction
}

// transitionTable is the full (status, action) -> next status mapping.
// ASSIGN_TECHNICIAN through REJECT; RETURN_FOR_CLARIFICATION is not listed
// here because it applies to every non-terminal status without changing it
// (see NextStatus).
var transitionTable = map[transitionKey]models.WorkOrderStatus{
	{models.WOStatusCreated, models.ActionAssignTechnician}: models.WOStatusAcceptedTechAssigned,

	{models.WOStatusAcceptedTechAssigned, models.ActionCheckin}: models.WOStatusServiceInProgress,
	{models.WOStatusFollowUpRequested, models.ActionCheckin}:    models.WOStatusServiceInProgress,

	{models.WOStatusServiceInProgress, models.ActionCheckoutFixed}:        models.WOStatusServiceCompleted,
	{models.WOStatusServiceInProgress, models.ActionCheckoutFollowUp}:     models.WOStatusFollowUpRequested,
	{models.WOStatusServiceInProgress, models.ActionCheckoutNewWONeeded}:  models.WOStatusNewWorkOrderNeeded,
	{models.WOStatusServiceInProgress, models.ActionCheckoutUnsuccessful}: models.WOStatusRepairUnsuccessful,

	{models.WOStatusServiceCompleted, models.ActionSubmitCostProposal}:        models.WOStatusCostProposalPrepared,
	{models.WOStatusCostRevisionRequested, models.ActionResubmitCostProposal}: models.WOStatusCostProposalPrepared,

	{models.WOStatusCostProposalPrepared, models.ActionApproveCost}:      models.WOStatusCostProposalApproved,
	{models.WOStatusCostProposalPrepared, models.ActionRequestRevision}:  models.WOStatusCostRevisionRequested,
	{models.WOStatusCostProposalPrepared, models.ActionCloseWithoutCost}: models.WOStatusClosedWithoutCost,

	{models.WOStatusCreated, models.ActionResendToVendor}: models.WOStatusCreated,

	{models.WOStatusServiceInProgress, models.ActionReturnForTechCount}: models.WOStatusAcceptedTechAssigned,

	{models.WOStatusCreated, models.ActionReject}: models.WOStatusRejected,
}

// NextStatus resolves the next status for an action from a given status.
// The second return value is false when the pair is not a legal transition.
func NextStatus(status models.WorkOrderStatus, action models.WorkOrderAction) (models.WorkOrderStatus, bool) {
	if action == models.ActionReturnForClarification {
		if status.IsTerminal() {
			return "", false
		}
		// Owner-only change: status stays where it is.
		return status, true
	}
	next, ok := transitionTable[transitionKey{Status: status, Action: action}]
	return next, ok
}
