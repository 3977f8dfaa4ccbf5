package auth

import (
	"github.com/truetread/truetread-api/models"
)

// permissions is the static role → resource → actions table. Admin is not
// listed per-resource because HasPermission short-circuits for it; the entry
// below only documents the full grant.
var permissions = map[models.AdminRole]map[string][]string{
	models.RoleAdmin: {
		"orders":   {"view", "create", "update", "delete"},
		"payments": {"view", "update"},
		"users":    {"view", "create", "update", "delete"},
		"settings": {"view", "update"},
	},
	models.RoleProductionManager: {
		"orders":   {"view", "update"},
		"payments": {"view"},
		"users":    {},
		"settings": {},
	},
	models.RoleCustomerService: {
		"orders":   {"view"},
		"payments": {"view", "update"},
		"users":    {},
		"settings": {},
	},
	models.RoleViewer: {
		"orders":   {"view"},
		"payments": {"view"},
		"users":    {},
		"settings": {},
	},
}

// HasPermission reports whether a role may perform an action on a resource.
// Admin is granted everything; unknown role/resource pairs are denied.
func HasPermission(role models.AdminRole, action, resource string) bool {
	if role == models.RoleAdmin {
		return true
	}

	resources, ok := permissions[role]
	if !ok {
		return false
	}

	for _, allowed := range resources[resource] {
		if allowed == action {
			return true
		}
	}
	return false
}

// CanUpdateOrderStatus reports whether a role may request the given status
// transition. Transition legality is checked separately against the status
// flow table; this answers only the role question. Customer service may only
// move orders to MATERIALS_RECEIVED or READY_FOR_PRODUCTION (the statuses
// tied to payment handling).
func CanUpdateOrderStatus(role models.AdminRole, current, target models.OrderStatus) bool {
	switch role {
	case models.RoleAdmin, models.RoleProductionManager:
		return true
	case models.RoleCustomerService:
		return target == models.StatusMaterialsReceived || target == models.StatusReadyForProduction
	}
	return false
}

// CanManagePayments reports whether a role may record payments.
func CanManagePayments(role models.AdminRole) bool {
	return role == models.RoleAdmin || role == models.RoleCustomerService
}

// CanManageUsers reports whether a role may manage administrative identities.
func CanManageUsers(role models.AdminRole) bool {
	return role == models.RoleAdmin
}
