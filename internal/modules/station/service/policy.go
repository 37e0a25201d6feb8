package station

import (
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
)

const Resource = "station"

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
)

func RegisterPolicy(e *authz.Evaluator) {
	e.Allow(Resource, ActionRead, "authentication required", authz.Authenticated)
	e.Allow(Resource, ActionCreate, "only admin can create stations", authz.AnyRole(entity.RoleAdmin))
	e.Allow(Resource, ActionUpdate, "only admin can update stations", authz.AnyRole(entity.RoleAdmin))
}
