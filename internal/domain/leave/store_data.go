package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/core"
)

const uniqueViolation = "23505"

func (s *Store) InsertBalance(ctx context.Context, balance Balance) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (employee_id, year, total_credits, used_credits, lwop_days)
    VALUES ($1,$2,$3,$4,$5)
  `, balance.EmployeeID, balance.Year, balance.TotalCredits, balance.UsedCredits, balance.LwopDays)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: balance for %s/%d", ErrAlreadyExists, balance.EmployeeID, balance.Year)
		}
		return err
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, employeeID string, year int) (Balance, error) {
	var balance Balance
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id, year, total_credits, used_credits, lwop_days, updated_at
    FROM leave_balances
    WHERE employee_id = $1 AND year = $2
  `, employeeID, year).Scan(&balance.EmployeeID, &balance.Year, &balance.TotalCredits, &balance.UsedCredits, &balance.LwopDays, &balance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, fmt.Errorf("%w: balance for %s/%d", ErrNotFound, employeeID, year)
		}
		return Balance{}, err
	}
	return balance, nil
}

func (s *Store) InsertRequest(ctx context.Context, req LeaveRequest, entry audit.Entry) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var approverID any
	if req.ApproverID != "" {
		approverID = req.ApproverID
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO leave_requests (id, employee_id, leave_type, department, start_date, end_date, total_days, reason, status, is_lwop, approver_id, filed_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
  `, req.ID, req.EmployeeID, string(req.Type), string(req.Department), req.StartDate, req.EndDate, req.TotalDays, req.Reason, string(req.Status), req.IsLwop, approverID, req.FiledAt); err != nil {
		return err
	}

	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetRequest(ctx context.Context, id string) (LeaveRequest, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, leave_type, department, start_date, end_date, total_days, reason, status, is_lwop,
           COALESCE(approver_id::text, ''), approver_remarks, approved_at, filed_at
    FROM leave_requests
    WHERE id = $1
  `, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeaveRequest{}, fmt.Errorf("%w: leave request %s", ErrNotFound, id)
		}
		return LeaveRequest{}, err
	}
	return req, nil
}

func (s *Store) ListRequests(ctx context.Context, filter RequestFilter, limit, offset int) ([]LeaveRequest, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if !filter.AllDepartments {
		switch {
		case filter.EmployeeID != "" && len(filter.Departments) > 0:
			depts := departmentStrings(filter.Departments)
			where += fmt.Sprintf(" AND (employee_id = $%d OR department = ANY($%d))", len(args)+1, len(args)+2)
			args = append(args, filter.EmployeeID, depts)
		case filter.EmployeeID != "":
			where += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
			args = append(args, filter.EmployeeID)
		case len(filter.Departments) > 0:
			depts := departmentStrings(filter.Departments)
			where += fmt.Sprintf(" AND department = ANY($%d)", len(args)+1)
			args = append(args, depts)
		default:
			return []LeaveRequest{}, 0, nil
		}
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, string(filter.Status))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
    SELECT id, employee_id, leave_type, department, start_date, end_date, total_days, reason, status, is_lwop,
           COALESCE(approver_id::text, ''), approver_remarks, approved_at, filed_at
    FROM leave_requests` + where + " ORDER BY filed_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, nil
}

// CommitDecision applies a decision as one transaction. The request
// update is guarded on status='pending' and the balance write is a
// compare-and-swap, so a concurrent decision or approval surfaces as
// ErrInvalidState or ErrConflict with nothing written.
func (s *Store) CommitDecision(ctx context.Context, commit DecisionCommit) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, approver_id = $2, approver_remarks = $3, approved_at = $4
    WHERE id = $5 AND status = $6
  `, string(commit.NewStatus), commit.ApproverID, commit.Remarks, commit.DecidedAt, commit.RequestID, string(StatusPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: request %s", ErrInvalidState, commit.RequestID)
	}

	if commit.Balance != nil {
		upd := commit.Balance
		tag, err := tx.Exec(ctx, `
      UPDATE leave_balances
      SET used_credits = $1, lwop_days = $2, updated_at = now()
      WHERE employee_id = $3 AND year = $4 AND used_credits = $5 AND lwop_days = $6
    `, upd.NewUsed, upd.NewLwop, upd.EmployeeID, upd.Year, upd.PrevUsed, upd.PrevLwop)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: balance for %s/%d", ErrConflict, upd.EmployeeID, upd.Year)
		}
	}

	if err := insertAuditTx(ctx, tx, commit.Audit); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ApproversFor(ctx context.Context, department core.Department) ([]DepartmentApprover, error) {
	return s.queryApprovers(ctx, "WHERE department = $1", string(department))
}

func (s *Store) AssignmentsFor(ctx context.Context, employeeID string) ([]DepartmentApprover, error) {
	return s.queryApprovers(ctx, "WHERE employee_id = $1", employeeID)
}

func (s *Store) queryApprovers(ctx context.Context, where string, arg any) ([]DepartmentApprover, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, department, employee_id, created_at
    FROM department_approvers `+where+` ORDER BY created_at`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentApprover
	for rows.Next() {
		var assignment DepartmentApprover
		var department string
		if err := rows.Scan(&assignment.ID, &department, &assignment.EmployeeID, &assignment.CreatedAt); err != nil {
			return nil, err
		}
		assignment.Department = core.Department(department)
		out = append(out, assignment)
	}
	return out, nil
}

func (s *Store) AddApprover(ctx context.Context, assignment DepartmentApprover) (DepartmentApprover, error) {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO department_approvers (id, department, employee_id, created_at)
    VALUES ($1,$2,$3,$4)
  `, assignment.ID, string(assignment.Department), assignment.EmployeeID, assignment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return DepartmentApprover{}, fmt.Errorf("%w: approver assignment", ErrAlreadyExists)
		}
		return DepartmentApprover{}, err
	}
	return assignment, nil
}

func (s *Store) RemoveApprover(ctx context.Context, department core.Department, employeeID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM department_approvers WHERE department = $1 AND employee_id = $2
  `, string(department), employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: approver assignment", ErrNotFound)
	}
	return nil
}

func insertAuditTx(ctx context.Context, tx pgx.Tx, entry audit.Entry) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO audit_log (request_id, actor_id, action, prev_status, new_status, remarks, pto_deducted, is_lwop)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, entry.RequestID, entry.ActorID, entry.Action, entry.PrevStatus, entry.NewStatus, entry.Remarks, entry.PTODeducted, entry.Lwop)
	return err
}

func departmentStrings(departments []core.Department) []string {
	out := make([]string, 0, len(departments))
	for _, department := range departments {
		out = append(out, string(department))
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (LeaveRequest, error) {
	var req LeaveRequest
	var leaveType, department, status string
	if err := row.Scan(&req.ID, &req.EmployeeID, &leaveType, &department, &req.StartDate, &req.EndDate,
		&req.TotalDays, &req.Reason, &status, &req.IsLwop, &req.ApproverID, &req.ApproverRemarks,
		&req.ApprovedAt, &req.FiledAt); err != nil {
		return LeaveRequest{}, err
	}
	req.Type = LeaveType(leaveType)
	req.Department = core.Department(department)
	req.Status = Status(status)
	return req, nil
}
