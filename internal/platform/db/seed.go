package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/platform/config"
)

// Seed provisions the bootstrap admin identity and its balance for the
// current tracking year. Safe to run repeatedly.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		slog.Warn("seed skipped: SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil
	}

	adminID, err := ensureAdminEmployee(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	return ensureBalance(ctx, pool, adminID, time.Now().UTC().Year())
}

func ensureAdminEmployee(ctx context.Context, pool *pgxpool.Pool, email, password string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM employees WHERE email = $1", email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	err = pool.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, email, password_hash, department, role, active)
    VALUES ($1,$2,$3,$4,$5,$6,TRUE)
    RETURNING id
  `, "System", "Admin", email, string(hash), string(core.DepartmentHumanResources), string(auth.RoleAdmin)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureBalance(ctx context.Context, pool *pgxpool.Pool, employeeID string, year int) error {
	_, err := pool.Exec(ctx, `
    INSERT INTO leave_balances (employee_id, year, total_credits, used_credits, lwop_days)
    VALUES ($1,$2,$3,0,0)
    ON CONFLICT (employee_id, year) DO NOTHING
  `, employeeID, year, leave.DefaultTotalCredits)
	return err
}
