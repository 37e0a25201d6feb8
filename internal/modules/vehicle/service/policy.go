package vehicle

import (
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
)

const Resource = "vehicle"

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionStatus = "status"
)

func RegisterPolicy(e *authz.Evaluator) {
	e.Allow(Resource, ActionRead, "authentication required", authz.Authenticated)
	e.Allow(Resource, ActionCreate, "only admin can register vehicles", authz.AnyRole(entity.RoleAdmin))
	e.Allow(Resource, ActionUpdate, "only admin can update vehicles", authz.AnyRole(entity.RoleAdmin))
	e.Allow(Resource, ActionStatus, "only admin or sdo can change vehicle status", authz.AnyRole(entity.RoleAdmin, entity.RoleSDO))
}
