package user

import (
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/entity"
)

const Resource = "user"

const (
	ActionList             = "list"
	ActionRead             = "read"
	ActionUpdate           = "update"
	ActionUpdateRestricted = "update_restricted"
	ActionStatus           = "status"
)

// RegisterPolicy installs the user permission table.
func RegisterPolicy(e *authz.Evaluator) {
	e.Allow(Resource, ActionList, "only admin or sdo can list users",
		authz.AnyRole(entity.RoleAdmin, entity.RoleSDO))
	e.Allow(Resource, ActionRead, "not authorized to view this user",
		authz.AnyRole(entity.RoleAdmin, entity.RoleSDO), authz.Self)
	e.Allow(Resource, ActionUpdate, "not authorized to update this user",
		authz.AnyRole(entity.RoleAdmin), authz.Self)
	e.Allow(Resource, ActionUpdateRestricted, "only admin can change designation, station or active flag",
		authz.AnyRole(entity.RoleAdmin))
	e.Allow(Resource, ActionStatus, "only admin can activate or deactivate accounts",
		authz.AnyRole(entity.RoleAdmin))
}
