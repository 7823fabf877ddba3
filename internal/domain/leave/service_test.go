package leave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
)

var fixedNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store, store)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func seedEmployee(store *MemoryStore, id string, role auth.Role, department core.Department) core.Employee {
	emp := core.Employee{
		ID:         id,
		FirstName:  "Test",
		LastName:   id,
		Email:      id + "@example.com",
		Department: department,
		Role:       role,
		Active:     true,
	}
	store.PutEmployee(emp)
	return emp
}

func seedBalance(t *testing.T, svc *Service, employeeID string, used int) {
	t.Helper()
	require.NoError(t, svc.InitializeBalance(context.Background(), employeeID, fixedNow.Year()))
	if used > 0 {
		store := svc.store.(*MemoryStore)
		store.mu.Lock()
		key := balanceKey{employeeID, fixedNow.Year()}
		balance := store.balances[key]
		balance.UsedCredits = used
		store.balances[key] = balance
		store.mu.Unlock()
	}
}

func fileRequest(t *testing.T, svc *Service, employeeID string, days int) LeaveRequest {
	t.Helper()
	start := date(2026, time.March, 16)
	req, err := svc.File(context.Background(), FileInput{
		EmployeeID: employeeID,
		Type:       TypeVacation,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, days-1),
		Reason:     "family trip out of town",
	})
	require.NoError(t, err)
	return req
}

func TestFile(t *testing.T) {
	t.Run("creates a pending request with employee defaults", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 0)

		req := fileRequest(t, svc, "emp-1", 3)

		assert.Equal(t, StatusPending, req.Status)
		assert.Equal(t, core.DepartmentEngineering, req.Department)
		assert.Equal(t, 3, req.TotalDays)
		assert.False(t, req.IsLwop)
		assert.NotEmpty(t, req.ID)
		assert.Equal(t, fixedNow, req.FiledAt)

		trail := store.AuditTrail()
		require.Len(t, trail, 1)
		assert.Equal(t, "Filed leave request", trail[0].Action)
		assert.Equal(t, string(StatusPending), trail[0].NewStatus)
	})

	t.Run("flags the request lwop when it exceeds the remaining balance", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 3)

		req := fileRequest(t, svc, "emp-1", 5)

		assert.True(t, req.IsLwop)
		assert.Equal(t, 5, req.TotalDays)
	})

	t.Run("rejects short reasons", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 0)

		_, err := svc.File(context.Background(), FileInput{
			EmployeeID: "emp-1",
			Type:       TypeVacation,
			StartDate:  date(2026, time.March, 16),
			EndDate:    date(2026, time.March, 16),
			Reason:     "short",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects unknown leave types", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 0)

		_, err := svc.File(context.Background(), FileInput{
			EmployeeID: "emp-1",
			Type:       "sabbatical",
			StartDate:  date(2026, time.March, 16),
			EndDate:    date(2026, time.March, 16),
			Reason:     "long enough reason here",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects end date before start date", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 0)

		_, err := svc.File(context.Background(), FileInput{
			EmployeeID: "emp-1",
			Type:       TypeVacation,
			StartDate:  date(2026, time.March, 16),
			EndDate:    date(2026, time.March, 15),
			Reason:     "long enough reason here",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects inactive employees", func(t *testing.T) {
		svc, store := newTestService(t)
		emp := seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		emp.Active = false
		store.PutEmployee(emp)

		_, err := svc.File(context.Background(), FileInput{
			EmployeeID: "emp-1",
			Type:       TypeVacation,
			StartDate:  date(2026, time.March, 16),
			EndDate:    date(2026, time.March, 16),
			Reason:     "long enough reason here",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects unknown employees", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.File(context.Background(), FileInput{
			EmployeeID: "ghost",
			Type:       TypeVacation,
			StartDate:  date(2026, time.March, 16),
			EndDate:    date(2026, time.March, 16),
			Reason:     "long enough reason here",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects unknown preferred approvers", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 0)

		_, err := svc.File(context.Background(), FileInput{
			EmployeeID: "emp-1",
			Type:       TypeVacation,
			StartDate:  date(2026, time.March, 16),
			EndDate:    date(2026, time.March, 16),
			Reason:     "long enough reason here",
			ApproverID: "ghost",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestApprove(t *testing.T) {
	t.Run("charges the balance and records the split", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedBalance(t, svc, "emp-1", 0)
		req := fileRequest(t, svc, "emp-1", 2)

		approved, err := svc.Approve(context.Background(), req.ID, "hr-1", "enjoy")
		require.NoError(t, err)

		assert.Equal(t, StatusApproved, approved.Status)
		assert.Equal(t, "hr-1", approved.ApproverID)
		require.NotNil(t, approved.ApprovedAt)

		balance, err := svc.Balance(context.Background(), "emp-1", fixedNow.Year())
		require.NoError(t, err)
		assert.Equal(t, 2, balance.UsedCredits)
		assert.Equal(t, 0, balance.LwopDays)

		trail := store.AuditTrail()
		require.Len(t, trail, 2)
		assert.Equal(t, "Approved leave request: deducted 2 PTO day(s), 0 LWOP day(s)", trail[1].Action)
		assert.Equal(t, 2, trail[1].PTODeducted)
	})

	t.Run("splits an lwop request across remaining credits", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedBalance(t, svc, "emp-1", 3)
		req := fileRequest(t, svc, "emp-1", 5)
		require.True(t, req.IsLwop)

		_, err := svc.Approve(context.Background(), req.ID, "hr-1", "approved, partially unpaid")
		require.NoError(t, err)

		balance, err := svc.Balance(context.Background(), "emp-1", fixedNow.Year())
		require.NoError(t, err)
		assert.Equal(t, 5, balance.UsedCredits)
		assert.Equal(t, 3, balance.LwopDays)

		trail := store.AuditTrail()
		require.Len(t, trail, 2)
		assert.Equal(t, 2, trail[1].PTODeducted)
		assert.True(t, trail[1].Lwop)
	})

	t.Run("lwop approvals require remarks", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedBalance(t, svc, "emp-1", 5)
		req := fileRequest(t, svc, "emp-1", 2)
		require.True(t, req.IsLwop)

		_, err := svc.Approve(context.Background(), req.ID, "hr-1", "  ")
		assert.ErrorIs(t, err, ErrValidation)

		balance, err := svc.Balance(context.Background(), "emp-1", fixedNow.Year())
		require.NoError(t, err)
		assert.Equal(t, 5, balance.UsedCredits)
		assert.Equal(t, 0, balance.LwopDays)
	})

	t.Run("second approval is an invalid state and the balance moves once", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedBalance(t, svc, "emp-1", 0)
		req := fileRequest(t, svc, "emp-1", 2)

		_, err := svc.Approve(context.Background(), req.ID, "hr-1", "ok")
		require.NoError(t, err)

		_, err = svc.Approve(context.Background(), req.ID, "hr-1", "again")
		assert.ErrorIs(t, err, ErrInvalidState)

		balance, err := svc.Balance(context.Background(), "emp-1", fixedNow.Year())
		require.NoError(t, err)
		assert.Equal(t, 2, balance.UsedCredits)
	})

	t.Run("employees may not approve", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "emp-2", auth.RoleEmployee, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 0)
		req := fileRequest(t, svc, "emp-1", 1)

		_, err := svc.Approve(context.Background(), req.ID, "emp-2", "no")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("designated manager approves for their department", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "mgr-1", auth.RoleManager, core.DepartmentSales)
		seedEmployee(store, "adm-1", auth.RoleAdmin, core.DepartmentInformationTechnology)
		seedBalance(t, svc, "emp-1", 0)

		_, err := svc.AddDepartmentApprover(context.Background(), "adm-1", core.DepartmentEngineering, "mgr-1")
		require.NoError(t, err)

		req := fileRequest(t, svc, "emp-1", 1)
		_, err = svc.Approve(context.Background(), req.ID, "mgr-1", "fine")
		assert.NoError(t, err)
	})

	t.Run("non-designated manager is forbidden once approvers exist", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "mgr-eng", auth.RoleManager, core.DepartmentEngineering)
		seedEmployee(store, "mgr-designated", auth.RoleManager, core.DepartmentSales)
		seedEmployee(store, "adm-1", auth.RoleAdmin, core.DepartmentInformationTechnology)
		seedBalance(t, svc, "emp-1", 0)

		_, err := svc.AddDepartmentApprover(context.Background(), "adm-1", core.DepartmentEngineering, "mgr-designated")
		require.NoError(t, err)

		req := fileRequest(t, svc, "emp-1", 1)
		_, err = svc.Approve(context.Background(), req.ID, "mgr-eng", "mine")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("department manager is the fallback without designations", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "mgr-eng", auth.RoleManager, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 0)
		req := fileRequest(t, svc, "emp-1", 1)

		_, err := svc.Approve(context.Background(), req.ID, "mgr-eng", "ok")
		assert.NoError(t, err)
	})

	t.Run("unknown request", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)

		_, err := svc.Approve(context.Background(), "missing", "hr-1", "ok")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent balance movement surfaces as a conflict", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedBalance(t, svc, "emp-1", 0)
		req := fileRequest(t, svc, "emp-1", 2)

		// A stale commit carries Prev values the balance no longer has.
		err := store.CommitDecision(context.Background(), DecisionCommit{
			RequestID:  req.ID,
			NewStatus:  StatusApproved,
			ApproverID: "hr-1",
			DecidedAt:  fixedNow,
			Balance: &BalanceUpdate{
				EmployeeID: "emp-1",
				Year:       fixedNow.Year(),
				PrevUsed:   1,
				PrevLwop:   0,
				NewUsed:    3,
				NewLwop:    0,
			},
		})
		assert.ErrorIs(t, err, ErrConflict)

		got, err := store.GetRequest(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)
	})
}

func TestReject(t *testing.T) {
	t.Run("leaves the balance untouched", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedBalance(t, svc, "emp-1", 0)
		req := fileRequest(t, svc, "emp-1", 3)

		rejected, err := svc.Reject(context.Background(), req.ID, "hr-1", "")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, rejected.Status)

		balance, err := svc.Balance(context.Background(), "emp-1", fixedNow.Year())
		require.NoError(t, err)
		assert.Equal(t, 0, balance.UsedCredits)
		assert.Equal(t, 0, balance.LwopDays)

		trail := store.AuditTrail()
		require.Len(t, trail, 2)
		assert.Equal(t, "Rejected leave request", trail[1].Action)
	})

	t.Run("remarks become mandatory when configured", func(t *testing.T) {
		svc, store := newTestService(t)
		svc.RequireRejectRemarks = true
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedBalance(t, svc, "emp-1", 0)
		req := fileRequest(t, svc, "emp-1", 1)

		_, err := svc.Reject(context.Background(), req.ID, "hr-1", "")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.Reject(context.Background(), req.ID, "hr-1", "overlaps the release window")
		assert.NoError(t, err)
	})

	t.Run("rejecting an approved request is an invalid state", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedBalance(t, svc, "emp-1", 0)
		req := fileRequest(t, svc, "emp-1", 1)

		_, err := svc.Approve(context.Background(), req.ID, "hr-1", "ok")
		require.NoError(t, err)

		_, err = svc.Reject(context.Background(), req.ID, "hr-1", "changed my mind")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestPendingRequests(t *testing.T) {
	setup := func(t *testing.T) (*Service, *MemoryStore) {
		svc, store := newTestService(t)
		seedEmployee(store, "emp-eng", auth.RoleEmployee, core.DepartmentEngineering)
		seedEmployee(store, "emp-sales", auth.RoleEmployee, core.DepartmentSales)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedEmployee(store, "mgr-1", auth.RoleManager, core.DepartmentMarketing)
		seedEmployee(store, "adm-1", auth.RoleAdmin, core.DepartmentInformationTechnology)
		seedBalance(t, svc, "emp-eng", 0)
		seedBalance(t, svc, "emp-sales", 0)
		fileRequest(t, svc, "emp-eng", 1)
		fileRequest(t, svc, "emp-sales", 2)
		return svc, store
	}

	t.Run("hr sees every pending request", func(t *testing.T) {
		svc, _ := setup(t)
		requests, err := svc.PendingRequests(context.Background(), "hr-1")
		require.NoError(t, err)
		assert.Len(t, requests, 2)
	})

	t.Run("employee sees only their own", func(t *testing.T) {
		svc, _ := setup(t)
		requests, err := svc.PendingRequests(context.Background(), "emp-eng")
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, "emp-eng", requests[0].EmployeeID)
	})

	t.Run("manager sees designated departments", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.AddDepartmentApprover(context.Background(), "adm-1", core.DepartmentSales, "mgr-1")
		require.NoError(t, err)

		requests, err := svc.PendingRequests(context.Background(), "mgr-1")
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, core.DepartmentSales, requests[0].Department)
	})

	t.Run("manager with no reachable departments sees nothing", func(t *testing.T) {
		svc, store := setup(t)
		// Another approver covers the manager's own department, so the
		// fallback does not apply and no designation exists for them.
		seedEmployee(store, "mgr-2", auth.RoleManager, core.DepartmentMarketing)
		_, err := svc.AddDepartmentApprover(context.Background(), "adm-1", core.DepartmentMarketing, "mgr-2")
		require.NoError(t, err)

		requests, err := svc.PendingRequests(context.Background(), "mgr-1")
		require.NoError(t, err)
		assert.Empty(t, requests)
	})

	t.Run("decided requests drop out of the queue", func(t *testing.T) {
		svc, _ := setup(t)
		pending, err := svc.PendingRequests(context.Background(), "hr-1")
		require.NoError(t, err)
		require.Len(t, pending, 2)

		_, err = svc.Approve(context.Background(), pending[0].ID, "hr-1", "ok")
		require.NoError(t, err)

		remaining, err := svc.PendingRequests(context.Background(), "hr-1")
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}

func TestListRequests(t *testing.T) {
	svc, store := newTestService(t)
	seedEmployee(store, "emp-1", auth.RoleEmployee, core.DepartmentEngineering)
	seedEmployee(store, "emp-2", auth.RoleEmployee, core.DepartmentSales)
	seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
	seedBalance(t, svc, "emp-1", 0)
	seedBalance(t, svc, "emp-2", 0)
	fileRequest(t, svc, "emp-1", 1)
	fileRequest(t, svc, "emp-2", 1)

	t.Run("hr sees all with a total", func(t *testing.T) {
		requests, total, err := svc.ListRequests(context.Background(), "hr-1", 10, 0)
		require.NoError(t, err)
		assert.Len(t, requests, 2)
		assert.Equal(t, 2, total)
	})

	t.Run("employee sees only their own", func(t *testing.T) {
		requests, total, err := svc.ListRequests(context.Background(), "emp-1", 10, 0)
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, 1, total)
		assert.Equal(t, "emp-1", requests[0].EmployeeID)
	})

	t.Run("pagination caps the page but not the total", func(t *testing.T) {
		requests, total, err := svc.ListRequests(context.Background(), "hr-1", 1, 0)
		require.NoError(t, err)
		assert.Len(t, requests, 1)
		assert.Equal(t, 2, total)
	})
}

func TestDepartmentApprovers(t *testing.T) {
	t.Run("only admins manage assignments", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "hr-1", auth.RoleHR, core.DepartmentHumanResources)
		seedEmployee(store, "mgr-1", auth.RoleManager, core.DepartmentSales)

		_, err := svc.AddDepartmentApprover(context.Background(), "hr-1", core.DepartmentSales, "mgr-1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("add, list and remove", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "adm-1", auth.RoleAdmin, core.DepartmentInformationTechnology)
		seedEmployee(store, "mgr-1", auth.RoleManager, core.DepartmentSales)

		assignment, err := svc.AddDepartmentApprover(context.Background(), "adm-1", core.DepartmentSales, "mgr-1")
		require.NoError(t, err)
		assert.Equal(t, core.DepartmentSales, assignment.Department)

		listed, err := svc.DepartmentApprovers(context.Background(), core.DepartmentSales)
		require.NoError(t, err)
		require.Len(t, listed, 1)

		require.NoError(t, svc.RemoveDepartmentApprover(context.Background(), "adm-1", core.DepartmentSales, "mgr-1"))

		listed, err = svc.DepartmentApprovers(context.Background(), core.DepartmentSales)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("duplicate assignment already exists", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "adm-1", auth.RoleAdmin, core.DepartmentInformationTechnology)
		seedEmployee(store, "mgr-1", auth.RoleManager, core.DepartmentSales)

		_, err := svc.AddDepartmentApprover(context.Background(), "adm-1", core.DepartmentSales, "mgr-1")
		require.NoError(t, err)
		_, err = svc.AddDepartmentApprover(context.Background(), "adm-1", core.DepartmentSales, "mgr-1")
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("inactive approver is rejected", func(t *testing.T) {
		svc, store := newTestService(t)
		seedEmployee(store, "adm-1", auth.RoleAdmin, core.DepartmentInformationTechnology)
		mgr := seedEmployee(store, "mgr-1", auth.RoleManager, core.DepartmentSales)
		mgr.Active = false
		store.PutEmployee(mgr)

		_, err := svc.AddDepartmentApprover(context.Background(), "adm-1", core.DepartmentSales, "mgr-1")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestInitializeBalance(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.InitializeBalance(context.Background(), "emp-1", 2026))

	balance, err := svc.Balance(context.Background(), "emp-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, DefaultTotalCredits, balance.TotalCredits)
	assert.Equal(t, 0, balance.UsedCredits)

	err = svc.InitializeBalance(context.Background(), "emp-1", 2026)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}
