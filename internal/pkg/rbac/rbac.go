package rbac

import "guestgate/internal/domain/admin"

// Action identifiers use dot notation, e.g. "grants.extend".
const (
	ActionHealthRead         = "internal.health.read"
	ActionGrantsList         = "grants.list"
	ActionGrantsExtend       = "grants.extend"
	ActionGrantsRevoke       = "grants.revoke"
	ActionVouchersCreate     = "vouchers.create"
	ActionVouchersList       = "vouchers.list"
	ActionIntegrationsList   = "integrations.list"
	ActionIntegrationsCreate = "integrations.create"
	ActionIntegrationsUpdate = "integrations.update"
	ActionIntegrationsDelete = "integrations.delete"
	ActionPortalConfigRead   = "portal_config.read"
	ActionPortalConfigUpdate = "portal_config.update"
	ActionAccountsCreate     = "admin.accounts.create"
	ActionAccountsList       = "admin.accounts.list"
	ActionAuditList          = "audit.entries.list"
)

// roleActions is the static permission matrix. Anything not listed denies.
var roleActions = map[string]map[admin.Role]struct{}{
	ActionHealthRead:         roles(admin.RoleViewer, admin.RoleOperator, admin.RoleAuditor, admin.RoleAdmin),
	ActionGrantsList:         roles(admin.RoleOperator, admin.RoleAuditor, admin.RoleAdmin),
	ActionGrantsExtend:       roles(admin.RoleOperator, admin.RoleAdmin),
	ActionGrantsRevoke:       roles(admin.RoleOperator, admin.RoleAdmin),
	ActionVouchersCreate:     roles(admin.RoleOperator, admin.RoleAdmin),
	ActionVouchersList:       roles(admin.RoleOperator, admin.RoleAuditor, admin.RoleAdmin),
	ActionIntegrationsList:   roles(admin.RoleOperator, admin.RoleAuditor, admin.RoleAdmin),
	ActionIntegrationsCreate: roles(admin.RoleAdmin),
	ActionIntegrationsUpdate: roles(admin.RoleAdmin),
	ActionIntegrationsDelete: roles(admin.RoleAdmin),
	ActionPortalConfigRead:   roles(admin.RoleOperator, admin.RoleAuditor, admin.RoleAdmin),
	ActionPortalConfigUpdate: roles(admin.RoleAdmin),
	ActionAccountsCreate:     roles(admin.RoleAdmin),
	ActionAccountsList:       roles(admin.RoleAdmin),
	ActionAuditList:          roles(admin.RoleAuditor, admin.RoleAdmin),
}

func roles(rs ...admin.Role) map[admin.Role]struct{} {
	m := make(map[admin.Role]struct{}, len(rs))
	for _, r := range rs {
		m[r] = struct{}{}
	}
	return m
}

// IsAllowed reports whether role may perform action. Unknown actions deny.
func IsAllowed(role admin.Role, action string) bool {
	allowed, ok := roleActions[action]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}
