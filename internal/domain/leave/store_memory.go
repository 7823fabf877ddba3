package leave

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/core"
)

// MemoryStore is an in-memory StoreAPI for tests and local development.
// It mirrors the relational store's concurrency semantics: decisions
// are committed under one lock, the request transition is guarded on
// pending status and the balance write is a compare-and-swap.
type MemoryStore struct {
	mu        sync.RWMutex
	employees map[string]core.Employee
	balances  map[balanceKey]Balance
	requests  map[string]LeaveRequest
	approvers []DepartmentApprover
	auditLog  []audit.Entry
}

type balanceKey struct {
	EmployeeID string
	Year       int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees: make(map[string]core.Employee),
		balances:  make(map[balanceKey]Balance),
		requests:  make(map[string]LeaveRequest),
	}
}

// PutEmployee seeds the directory side of the store.
func (m *MemoryStore) PutEmployee(emp core.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
}

func (m *MemoryStore) GetEmployee(_ context.Context, id string) (core.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return core.Employee{}, core.ErrNotFound
	}
	return emp, nil
}

func (m *MemoryStore) InsertBalance(_ context.Context, balance Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := balanceKey{balance.EmployeeID, balance.Year}
	if _, ok := m.balances[key]; ok {
		return fmt.Errorf("%w: balance for %s/%d", ErrAlreadyExists, balance.EmployeeID, balance.Year)
	}
	m.balances[key] = balance
	return nil
}

func (m *MemoryStore) GetBalance(_ context.Context, employeeID string, year int) (Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	balance, ok := m.balances[balanceKey{employeeID, year}]
	if !ok {
		return Balance{}, fmt.Errorf("%w: balance for %s/%d", ErrNotFound, employeeID, year)
	}
	return balance, nil
}

func (m *MemoryStore) InsertRequest(_ context.Context, req LeaveRequest, entry audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.ID]; ok {
		return fmt.Errorf("%w: leave request %s", ErrAlreadyExists, req.ID)
	}
	m.requests[req.ID] = req
	m.auditLog = append(m.auditLog, entry)
	return nil
}

func (m *MemoryStore) GetRequest(_ context.Context, id string) (LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return LeaveRequest{}, fmt.Errorf("%w: leave request %s", ErrNotFound, id)
	}
	return req, nil
}

func (m *MemoryStore) ListRequests(_ context.Context, filter RequestFilter, limit, offset int) ([]LeaveRequest, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	departments := map[core.Department]bool{}
	for _, department := range filter.Departments {
		departments[department] = true
	}

	var matched []LeaveRequest
	for _, req := range m.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if !filter.AllDepartments {
			byEmployee := filter.EmployeeID != "" && req.EmployeeID == filter.EmployeeID
			byDepartment := departments[req.Department]
			if !byEmployee && !byDepartment {
				continue
			}
		}
		matched = append(matched, req)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].FiledAt.After(matched[j].FiledAt) })

	total := len(matched)
	if limit > 0 {
		if offset >= len(matched) {
			return []LeaveRequest{}, total, nil
		}
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[offset:end]
	}
	return matched, total, nil
}

func (m *MemoryStore) CommitDecision(_ context.Context, commit DecisionCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[commit.RequestID]
	if !ok {
		return fmt.Errorf("%w: leave request %s", ErrNotFound, commit.RequestID)
	}
	if req.Status != StatusPending {
		return fmt.Errorf("%w: request %s", ErrInvalidState, commit.RequestID)
	}

	if commit.Balance != nil {
		upd := commit.Balance
		key := balanceKey{upd.EmployeeID, upd.Year}
		balance, ok := m.balances[key]
		if !ok {
			return fmt.Errorf("%w: balance for %s/%d", ErrNotFound, upd.EmployeeID, upd.Year)
		}
		if balance.UsedCredits != upd.PrevUsed || balance.LwopDays != upd.PrevLwop {
			return fmt.Errorf("%w: balance for %s/%d", ErrConflict, upd.EmployeeID, upd.Year)
		}
		balance.UsedCredits = upd.NewUsed
		balance.LwopDays = upd.NewLwop
		balance.UpdatedAt = commit.DecidedAt
		m.balances[key] = balance
	}

	decidedAt := commit.DecidedAt
	req.Status = commit.NewStatus
	req.ApproverID = commit.ApproverID
	req.ApproverRemarks = commit.Remarks
	req.ApprovedAt = &decidedAt
	m.requests[commit.RequestID] = req
	m.auditLog = append(m.auditLog, commit.Audit)
	return nil
}

func (m *MemoryStore) ApproversFor(_ context.Context, department core.Department) ([]DepartmentApprover, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DepartmentApprover
	for _, assignment := range m.approvers {
		if assignment.Department == department {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (m *MemoryStore) AssignmentsFor(_ context.Context, employeeID string) ([]DepartmentApprover, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DepartmentApprover
	for _, assignment := range m.approvers {
		if assignment.EmployeeID == employeeID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (m *MemoryStore) AddApprover(_ context.Context, assignment DepartmentApprover) (DepartmentApprover, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.approvers {
		if existing.Department == assignment.Department && existing.EmployeeID == assignment.EmployeeID {
			return DepartmentApprover{}, fmt.Errorf("%w: approver assignment", ErrAlreadyExists)
		}
	}
	m.approvers = append(m.approvers, assignment)
	return assignment, nil
}

func (m *MemoryStore) RemoveApprover(_ context.Context, department core.Department, employeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.approvers {
		if existing.Department == department && existing.EmployeeID == employeeID {
			m.approvers = append(m.approvers[:i], m.approvers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: approver assignment", ErrNotFound)
}

// AuditTrail returns a copy of the recorded entries, newest last.
func (m *MemoryStore) AuditTrail() []audit.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]audit.Entry, len(m.auditLog))
	copy(out, m.auditLog)
	return out
}
