package weapon

import (
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
)

const Resource = "weapon"

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionStatus = "status"
)

func RegisterPolicy(e *authz.Evaluator) {
	e.Allow(Resource, ActionRead, "authentication required", authz.Authenticated)
	e.Allow(Resource, ActionCreate, "only admin can register weapons", authz.AnyRole(entity.RoleAdmin))
	e.Allow(Resource, ActionUpdate, "only admin can update weapons", authz.AnyRole(entity.RoleAdmin))
	e.Allow(Resource, ActionStatus, "only admin or sdo can change weapon status", authz.AnyRole(entity.RoleAdmin, entity.RoleSDO))
}
