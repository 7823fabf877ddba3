package leave

import (
	"context"
	"time"

	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/core"
)

// EmployeeDirectory is the slice of the employee registry the workflow
// needs: hydrated actor and requester records for authorization.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
}

type RequestFilter struct {
	EmployeeID     string
	Departments    []core.Department
	Status         Status
	AllDepartments bool
}

// BalanceUpdate is a compare-and-swap write: the Prev values guard the
// update so a concurrent approval against the same balance surfaces as
// ErrConflict instead of a lost update.
type BalanceUpdate struct {
	EmployeeID string
	Year       int
	PrevUsed   int
	PrevLwop   int
	NewUsed    int
	NewLwop    int
}

// DecisionCommit is the atomic unit of an approve/reject: request
// transition, optional balance write and audit line land together or
// not at all.
type DecisionCommit struct {
	RequestID  string
	NewStatus  Status
	ApproverID string
	Remarks    string
	DecidedAt  time.Time
	Balance    *BalanceUpdate
	Audit      audit.Entry
}

type StoreAPI interface {
	InsertBalance(ctx context.Context, balance Balance) error
	GetBalance(ctx context.Context, employeeID string, year int) (Balance, error)

	InsertRequest(ctx context.Context, req LeaveRequest, entry audit.Entry) error
	GetRequest(ctx context.Context, id string) (LeaveRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter, limit, offset int) ([]LeaveRequest, int, error)
	CommitDecision(ctx context.Context, commit DecisionCommit) error

	ApproversFor(ctx context.Context, department core.Department) ([]DepartmentApprover, error)
	AssignmentsFor(ctx context.Context, employeeID string) ([]DepartmentApprover, error)
	AddApprover(ctx context.Context, assignment DepartmentApprover) (DepartmentApprover, error)
	RemoveApprover(ctx context.Context, department core.Department, employeeID string) error
}
