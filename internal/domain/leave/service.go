package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
)

// MinReasonLength is the shortest acceptable filing reason.
const MinReasonLength = 10

type Service struct {
	store     StoreAPI
	directory EmployeeDirectory

	// RequireRejectRemarks makes remarks mandatory on rejection as well.
	// Off by default; only LWOP approvals always require remarks.
	RequireRejectRemarks bool

	now func() time.Time
}

func NewService(store StoreAPI, directory EmployeeDirectory) *Service {
	return &Service{store: store, directory: directory, now: time.Now}
}

// InitializeBalance grants the yearly allotment. Called once per
// employee and year, at onboarding.
func (s *Service) InitializeBalance(ctx context.Context, employeeID string, year int) error {
	return s.store.InsertBalance(ctx, Balance{
		EmployeeID:   employeeID,
		Year:         year,
		TotalCredits: DefaultTotalCredits,
	})
}

func (s *Service) Balance(ctx context.Context, employeeID string, year int) (Balance, error) {
	return s.store.GetBalance(ctx, employeeID, year)
}

type FileInput struct {
	EmployeeID string
	Type       LeaveType
	Department core.Department
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
	ApproverID string
}

// File creates a pending request. The LWOP flag and the total day count
// are fixed here; approval trusts both as filed.
func (s *Service) File(ctx context.Context, input FileInput) (LeaveRequest, error) {
	employee, err := s.directory.GetEmployee(ctx, input.EmployeeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return LeaveRequest{}, fmt.Errorf("%w: employee %s", ErrNotFound, input.EmployeeID)
		}
		return LeaveRequest{}, err
	}
	if !employee.Active {
		return LeaveRequest{}, fmt.Errorf("%w: employee is not active", ErrValidation)
	}

	if !input.Type.Valid() {
		return LeaveRequest{}, fmt.Errorf("%w: unknown leave type %q", ErrValidation, input.Type)
	}
	department := input.Department
	if department == "" {
		department = employee.Department
	}
	if !department.Valid() {
		return LeaveRequest{}, fmt.Errorf("%w: unknown department %q", ErrValidation, department)
	}
	if len(strings.TrimSpace(input.Reason)) < MinReasonLength {
		return LeaveRequest{}, fmt.Errorf("%w: reason must be at least %d characters", ErrValidation, MinReasonLength)
	}
	totalDays, err := CalculateDays(input.StartDate, input.EndDate)
	if err != nil {
		return LeaveRequest{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	if input.ApproverID != "" {
		if _, err := s.directory.GetEmployee(ctx, input.ApproverID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return LeaveRequest{}, fmt.Errorf("%w: approver %s not found", ErrValidation, input.ApproverID)
			}
			return LeaveRequest{}, err
		}
	}

	filedAt := s.now().UTC()
	balance, err := s.store.GetBalance(ctx, input.EmployeeID, filedAt.Year())
	if err != nil {
		return LeaveRequest{}, err
	}

	req := LeaveRequest{
		ID:         uuid.NewString(),
		EmployeeID: input.EmployeeID,
		Type:       input.Type,
		Department: department,
		StartDate:  truncateToDay(input.StartDate),
		EndDate:    truncateToDay(input.EndDate),
		TotalDays:  totalDays,
		Reason:     strings.TrimSpace(input.Reason),
		Status:     StatusPending,
		IsLwop:     PredictLwop(totalDays, balance),
		ApproverID: input.ApproverID,
		FiledAt:    filedAt,
	}

	entry := audit.Entry{
		RequestID: req.ID,
		ActorID:   input.EmployeeID,
		Action:    "Filed leave request",
		NewStatus: string(StatusPending),
		Lwop:      req.IsLwop,
	}
	if err := s.store.InsertRequest(ctx, req, entry); err != nil {
		return LeaveRequest{}, err
	}
	return req, nil
}

// Approve transitions pending -> approved and charges the balance.
// Guards run in order: existence, state, authorization, LWOP remarks.
// All of them fail before anything is written.
func (s *Service) Approve(ctx context.Context, requestID, actorID, remarks string) (LeaveRequest, error) {
	req, actor, err := s.loadForDecision(ctx, requestID, actorID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if req.IsLwop && strings.TrimSpace(remarks) == "" {
		return LeaveRequest{}, fmt.Errorf("%w: LWOP approvals require remarks", ErrValidation)
	}

	balance, err := s.store.GetBalance(ctx, req.EmployeeID, req.FiledAt.Year())
	if err != nil {
		return LeaveRequest{}, err
	}
	updated, split := ApplyDeduction(balance, req.TotalDays, req.IsLwop)

	decidedAt := s.now().UTC()
	commit := DecisionCommit{
		RequestID:  req.ID,
		NewStatus:  StatusApproved,
		ApproverID: actor.ID,
		Remarks:    strings.TrimSpace(remarks),
		DecidedAt:  decidedAt,
		Balance: &BalanceUpdate{
			EmployeeID: balance.EmployeeID,
			Year:       balance.Year,
			PrevUsed:   balance.UsedCredits,
			PrevLwop:   balance.LwopDays,
			NewUsed:    updated.UsedCredits,
			NewLwop:    updated.LwopDays,
		},
		Audit: audit.Entry{
			RequestID:   req.ID,
			ActorID:     actor.ID,
			Action:      fmt.Sprintf("Approved leave request: deducted %d PTO day(s), %d LWOP day(s)", split.PTODays, split.LwopDays),
			PrevStatus:  string(StatusPending),
			NewStatus:   string(StatusApproved),
			Remarks:     strings.TrimSpace(remarks),
			PTODeducted: split.PTODays,
			Lwop:        req.IsLwop,
		},
	}
	if err := s.store.CommitDecision(ctx, commit); err != nil {
		return LeaveRequest{}, err
	}

	req.Status = StatusApproved
	req.ApproverID = actor.ID
	req.ApproverRemarks = commit.Remarks
	req.ApprovedAt = &decidedAt
	return req, nil
}

// Reject transitions pending -> rejected. The balance is untouched.
func (s *Service) Reject(ctx context.Context, requestID, actorID, remarks string) (LeaveRequest, error) {
	req, actor, err := s.loadForDecision(ctx, requestID, actorID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if s.RequireRejectRemarks && strings.TrimSpace(remarks) == "" {
		return LeaveRequest{}, fmt.Errorf("%w: rejections require remarks", ErrValidation)
	}

	decidedAt := s.now().UTC()
	commit := DecisionCommit{
		RequestID:  req.ID,
		NewStatus:  StatusRejected,
		ApproverID: actor.ID,
		Remarks:    strings.TrimSpace(remarks),
		DecidedAt:  decidedAt,
		Audit: audit.Entry{
			RequestID:  req.ID,
			ActorID:    actor.ID,
			Action:     "Rejected leave request",
			PrevStatus: string(StatusPending),
			NewStatus:  string(StatusRejected),
			Remarks:    strings.TrimSpace(remarks),
			Lwop:       req.IsLwop,
		},
	}
	if err := s.store.CommitDecision(ctx, commit); err != nil {
		return LeaveRequest{}, err
	}

	req.Status = StatusRejected
	req.ApproverID = actor.ID
	req.ApproverRemarks = commit.Remarks
	req.ApprovedAt = &decidedAt
	return req, nil
}

// loadForDecision runs the shared approve/reject guards: existence,
// then state, then authorization.
func (s *Service) loadForDecision(ctx context.Context, requestID, actorID string) (LeaveRequest, core.Employee, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, core.Employee{}, err
	}
	if req.Status != StatusPending {
		return LeaveRequest{}, core.Employee{}, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}

	actor, err := s.directory.GetEmployee(ctx, actorID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return LeaveRequest{}, core.Employee{}, fmt.Errorf("%w: employee %s", ErrNotFound, actorID)
		}
		return LeaveRequest{}, core.Employee{}, err
	}

	designated, err := s.store.ApproversFor(ctx, req.Department)
	if err != nil {
		return LeaveRequest{}, core.Employee{}, err
	}
	if !CanDecide(actor, req, designated) {
		return LeaveRequest{}, core.Employee{}, fmt.Errorf("%w: %s may not decide for %s", ErrForbidden, actor.ID, req.Department)
	}
	return req, actor, nil
}

func (s *Service) Request(ctx context.Context, id string) (LeaveRequest, error) {
	return s.store.GetRequest(ctx, id)
}

// PendingRequests returns the actor's approval queue. Visibility
// mirrors the decision rule: HR, admin and top management see every
// pending request, managers see the departments they are designated
// for, and employees see only their own filings.
func (s *Service) PendingRequests(ctx context.Context, actorID string) ([]LeaveRequest, error) {
	actor, err := s.directory.GetEmployee(ctx, actorID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %s", ErrNotFound, actorID)
		}
		return nil, err
	}

	filter := RequestFilter{Status: StatusPending}
	switch actor.Role {
	case auth.RoleHR, auth.RoleAdmin, auth.RoleTopManagement:
		filter.AllDepartments = true
	case auth.RoleManager:
		departments, err := s.visibleDepartments(ctx, actor)
		if err != nil {
			return nil, err
		}
		if len(departments) == 0 {
			return []LeaveRequest{}, nil
		}
		filter.Departments = departments
	case auth.RoleEmployee:
		filter.EmployeeID = actor.ID
	default:
		filter.EmployeeID = actor.ID
	}

	requests, _, err := s.store.ListRequests(ctx, filter, 0, 0)
	return requests, err
}

// ListRequests is the role-scoped history view with pagination.
func (s *Service) ListRequests(ctx context.Context, actorID string, limit, offset int) ([]LeaveRequest, int, error) {
	actor, err := s.directory.GetEmployee(ctx, actorID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: employee %s", ErrNotFound, actorID)
		}
		return nil, 0, err
	}

	filter := RequestFilter{}
	switch actor.Role {
	case auth.RoleHR, auth.RoleAdmin, auth.RoleTopManagement:
		filter.AllDepartments = true
	case auth.RoleManager:
		departments, err := s.visibleDepartments(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		filter.Departments = departments
		filter.EmployeeID = actor.ID
	default:
		filter.EmployeeID = actor.ID
	}
	return s.store.ListRequests(ctx, filter, limit, offset)
}

// visibleDepartments lists the departments a manager may act on:
// every designated assignment, plus their own department while it has
// no designated approvers (the degenerate single-approver setup).
func (s *Service) visibleDepartments(ctx context.Context, actor core.Employee) ([]core.Department, error) {
	assignments, err := s.store.AssignmentsFor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	seen := map[core.Department]bool{}
	var departments []core.Department
	for _, assignment := range assignments {
		if !seen[assignment.Department] {
			seen[assignment.Department] = true
			departments = append(departments, assignment.Department)
		}
	}
	if !seen[actor.Department] {
		own, err := s.store.ApproversFor(ctx, actor.Department)
		if err != nil {
			return nil, err
		}
		if len(own) == 0 {
			departments = append(departments, actor.Department)
		}
	}
	return departments, nil
}

// AddDepartmentApprover assigns a designated approver. Admin only;
// multiple approvers per department are allowed.
func (s *Service) AddDepartmentApprover(ctx context.Context, actorID string, department core.Department, employeeID string) (DepartmentApprover, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return DepartmentApprover{}, err
	}
	if !department.Valid() {
		return DepartmentApprover{}, fmt.Errorf("%w: unknown department %q", ErrValidation, department)
	}
	approver, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return DepartmentApprover{}, fmt.Errorf("%w: employee %s", ErrNotFound, employeeID)
		}
		return DepartmentApprover{}, err
	}
	if !approver.Active {
		return DepartmentApprover{}, fmt.Errorf("%w: approver is not active", ErrValidation)
	}

	return s.store.AddApprover(ctx, DepartmentApprover{
		ID:         uuid.NewString(),
		Department: department,
		EmployeeID: employeeID,
		CreatedAt:  s.now().UTC(),
	})
}

func (s *Service) RemoveDepartmentApprover(ctx context.Context, actorID string, department core.Department, employeeID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.store.RemoveApprover(ctx, department, employeeID)
}

func (s *Service) DepartmentApprovers(ctx context.Context, department core.Department) ([]DepartmentApprover, error) {
	if !department.Valid() {
		return nil, fmt.Errorf("%w: unknown department %q", ErrValidation, department)
	}
	return s.store.ApproversFor(ctx, department)
}

func (s *Service) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := s.directory.GetEmployee(ctx, actorID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: employee %s", ErrNotFound, actorID)
		}
		return err
	}
	if actor.Role != auth.RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}
