package leave

import (
	"fmt"
	"time"

	"leavedesk/internal/domain/core"
)

type LeaveType string

const (
	TypeVacation    LeaveType = "vacation"
	TypeSick        LeaveType = "sick"
	TypeEmergency   LeaveType = "emergency"
	TypeMaternity   LeaveType = "maternity"
	TypePaternity   LeaveType = "paternity"
	TypeBereavement LeaveType = "bereavement"
	TypeStudy       LeaveType = "study"
)

func LeaveTypes() []LeaveType {
	return []LeaveType{TypeVacation, TypeSick, TypeEmergency, TypeMaternity, TypePaternity, TypeBereavement, TypeStudy}
}

func (t LeaveType) Valid() bool {
	for _, candidate := range LeaveTypes() {
		if t == candidate {
			return true
		}
	}
	return false
}

func ParseLeaveType(value string) (LeaveType, error) {
	lt := LeaveType(value)
	if !lt.Valid() {
		return "", fmt.Errorf("unknown leave type %q", value)
	}
	return lt, nil
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	// StatusCancelled exists in the schema but no workflow transition
	// reaches it. Reserved.
	StatusCancelled Status = "cancelled"
)

// DefaultTotalCredits is the yearly PTO allotment granted at onboarding.
const DefaultTotalCredits = 5

// Balance is the authoritative PTO/LWOP record for one employee and one
// tracking year. Mutated only through approval commits.
type Balance struct {
	EmployeeID   string    `json:"employeeId"`
	Year         int       `json:"year"`
	TotalCredits int       `json:"totalCredits"`
	UsedCredits  int       `json:"usedCredits"`
	LwopDays     int       `json:"lwopDays"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (b Balance) Remaining() int {
	return b.TotalCredits - b.UsedCredits
}

type LeaveRequest struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	Type       LeaveType       `json:"leaveType"`
	Department core.Department `json:"department"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
	TotalDays  int             `json:"totalDays"`
	Reason     string          `json:"reason"`
	Status     Status          `json:"status"`
	// IsLwop is the filing-time prediction that the request exceeds the
	// remaining balance. It is authoritative at approval time; the split
	// is not recomputed even if other approvals landed in between.
	IsLwop          bool       `json:"isLwop"`
	ApproverID      string     `json:"approverId,omitempty"`
	ApproverRemarks string     `json:"approverRemarks,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	FiledAt         time.Time  `json:"filedAt"`
}

type DepartmentApprover struct {
	ID         string          `json:"id"`
	Department core.Department `json:"department"`
	EmployeeID string          `json:"employeeId"`
	CreatedAt  time.Time       `json:"createdAt"`
}
