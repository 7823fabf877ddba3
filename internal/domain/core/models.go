package core

import (
	"fmt"
	"time"

	"leavedesk/internal/domain/auth"
)

// Department is a closed set of eleven organizational units. Leave
// requests capture the value at filing time, so a later reassignment of
// the employee does not move already-filed requests.
type Department string

const (
	DepartmentEngineering           Department = "engineering"
	DepartmentProduct               Department = "product"
	DepartmentDesign                Department = "design"
	DepartmentMarketing             Department = "marketing"
	DepartmentSales                 Department = "sales"
	DepartmentFinance               Department = "finance"
	DepartmentHumanResources        Department = "human_resources"
	DepartmentInformationTechnology Department = "information_technology"
	DepartmentOperations            Department = "operations"
	DepartmentLegal                 Department = "legal"
	DepartmentSupport               Department = "support"
)

func Departments() []Department {
	return []Department{
		DepartmentEngineering,
		DepartmentProduct,
		DepartmentDesign,
		DepartmentMarketing,
		DepartmentSales,
		DepartmentFinance,
		DepartmentHumanResources,
		DepartmentInformationTechnology,
		DepartmentOperations,
		DepartmentLegal,
		DepartmentSupport,
	}
}

func (d Department) Valid() bool {
	for _, candidate := range Departments() {
		if d == candidate {
			return true
		}
	}
	return false
}

func ParseDepartment(value string) (Department, error) {
	dep := Department(value)
	if !dep.Valid() {
		return "", fmt.Errorf("unknown department %q", value)
	}
	return dep, nil
}

type Employee struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Department Department `json:"department"`
	Role       auth.Role  `json:"role"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"createdAt"`
}
