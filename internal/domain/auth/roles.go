package auth

import "fmt"

// Role is a closed set. The Authorization Resolver switches over it
// exhaustively, so adding a value means revisiting every switch.
type Role string

const (
	RoleEmployee      Role = "employee"
	RoleManager       Role = "manager"
	RoleHR            Role = "hr"
	RoleAdmin         Role = "admin"
	RoleTopManagement Role = "top_management"
)

func Roles() []Role {
	return []Role{RoleEmployee, RoleManager, RoleHR, RoleAdmin, RoleTopManagement}
}

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHR, RoleAdmin, RoleTopManagement:
		return true
	}
	return false
}

func ParseRole(value string) (Role, error) {
	role := Role(value)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return role, nil
}
