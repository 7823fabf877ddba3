package leave

import (
	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
)

// CanDecide reports whether the actor may approve or reject a request.
// designated must be the approver assignments for the request's
// department (the one captured at filing time, not the employee's
// current department).
//
// HR, admin and top management decide for any department. Managers
// decide only for departments they are designated for; when a
// department has no designated approvers at all, the manager of that
// department is the degenerate fallback. Everyone else is refused.
func CanDecide(actor core.Employee, req LeaveRequest, designated []DepartmentApprover) bool {
	if !actor.Active {
		return false
	}
	switch actor.Role {
	case auth.RoleHR, auth.RoleAdmin, auth.RoleTopManagement:
		return true
	case auth.RoleManager:
		for _, assignment := range designated {
			if assignment.EmployeeID == actor.ID && assignment.Department == req.Department {
				return true
			}
		}
		return len(designated) == 0 && actor.Department == req.Department
	case auth.RoleEmployee:
		return false
	}
	return false
}
