package requisition

import (
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
)

const Resource = "requisition"

const (
	ActionCreate = "create"
	ActionList   = "list"
	ActionView   = "view"
	ActionDelete = "delete"
	// ActionListAll sees every requisition instead of only the caller's own.
	ActionListAll = "list_all"
)

// StatusAction is the action checked before moving a requisition to status.
func StatusAction(status string) string {
	return "status:" + status
}

func isRequester(sub authz.Subject, obj any) bool {
	r, ok := obj.(*entity.Requisition)
	return ok && r.RequestedByID == sub.UserID
}

func isTeamMember(sub authz.Subject, obj any) bool {
	r, ok := obj.(*entity.Requisition)
	return ok && r.IsTeamMember(sub.UserID)
}

func isOpen(_ authz.Subject, obj any) bool {
	r, ok := obj.(*entity.Requisition)
	return ok && (r.Status == entity.StatusDraft || r.Status == entity.StatusSubmitted)
}

func RegisterPolicy(e *authz.Evaluator) {
	privileged := authz.AnyRole(entity.RoleAdmin, entity.RoleSDO)

	e.Allow(Resource, ActionCreate, "authentication required", authz.Authenticated)
	e.Allow(Resource, ActionList, "authentication required", authz.Authenticated)
	e.Allow(Resource, ActionListAll, "", privileged)
	e.Allow(Resource, ActionView, "not authorized to view this requisition",
		privileged, isRequester, isTeamMember)
	e.Allow(Resource, ActionDelete, "not authorized to delete this requisition",
		authz.AnyRole(entity.RoleAdmin), authz.All(isRequester, isOpen))

	e.Allow(Resource, StatusAction(entity.StatusSDOApproved), "only SDO or admin can approve requisitions", privileged)
	e.Allow(Resource, StatusAction(entity.StatusCompleted), "only assigned team members can mark as completed", isTeamMember)
	for _, status := range []string{entity.StatusRejected, entity.StatusInProgress, entity.StatusCancelled} {
		e.Allow(Resource, StatusAction(status), "", authz.Authenticated)
	}
}
