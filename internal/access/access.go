// Package access is the one place that decides whether a principal may
// perform an action. Handlers and services never branch on roles directly.
package access

import (
	apperr "dcip/internal/errors"
	"dcip/internal/models"
)

// Can reports whether p holds action, ignoring account status.
func Can(p *models.Principal, action models.Action) bool {
	if p == nil {
		return false
	}
	var granted []models.Action
	switch p.Kind {
	case models.PrincipalUser:
		granted = models.UserPermissions
	case models.PrincipalEmployee:
		granted = models.RolePermissions[p.Role]
	}
	for _, a := range granted {
		if a == action {
			return true
		}
	}
	return false
}

// Authorize fails with Unauthenticated when there is no principal, with
// ErrInactivePrincipal for inactive employees and with ErrPermissionDenied
// when the role lacks the action.
func Authorize(p *models.Principal, action models.Action) error {
	if p == nil {
		return apperr.ErrInvalidToken
	}
	if p.IsEmployee() && p.Status != models.StatusActive {
		return apperr.ErrInactivePrincipal
	}
	if !Can(p, action) {
		return apperr.ErrPermissionDenied
	}
	return nil
}

// AssignableRoles returns the roles p may grant, in privilege order.
func AssignableRoles(p *models.Principal) []models.RoleName {
	if p == nil || !p.IsEmployee() {
		return []models.RoleName{}
	}
	allowed := models.CreatableRoles[p.Role]
	out := make([]models.RoleName, 0, len(allowed))
	for _, r := range models.AllRoles {
		for _, a := range allowed {
			if r == a {
				out = append(out, r)
			}
		}
	}
	return out
}

// AuthorizeRoleGrant checks that p may create an employee holding target.
// Callers run Authorize(p, ActionEmployeeCreate) first.
func AuthorizeRoleGrant(p *models.Principal, target models.RoleName) error {
	if !target.Valid() {
		return apperr.BadRequest("INVALID_ROLE", "unknown role "+string(target))
	}
	for _, r := range AssignableRoles(p) {
		if r == target {
			return nil
		}
	}
	return apperr.ErrRoleNotGrantable
}
