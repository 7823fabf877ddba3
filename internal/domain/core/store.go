package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/domain/auth"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const uniqueViolation = "23505"

func (s *Store) InsertEmployee(ctx context.Context, emp Employee, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, email, password_hash, department, role, active)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, emp.FirstName, emp.LastName, emp.Email, passwordHash, string(emp.Department), string(emp.Role), emp.Active).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", ErrAlreadyExists
		}
		return "", err
	}
	return id, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	var emp Employee
	var department, role string
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, email, department, role, active, created_at
    FROM employees
    WHERE id = $1
  `, id).Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Email, &department, &role, &emp.Active, &emp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, err
	}
	emp.Department = Department(department)
	emp.Role = auth.Role(role)
	return emp, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (Employee, string, error) {
	var emp Employee
	var department, role, hash string
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, email, password_hash, department, role, active, created_at
    FROM employees
    WHERE email = $1
  `, email).Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Email, &hash, &department, &role, &emp.Active, &emp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, "", ErrNotFound
		}
		return Employee{}, "", err
	}
	emp.Department = Department(department)
	emp.Role = auth.Role(role)
	return emp, hash, nil
}

func (s *Store) ListEmployees(ctx context.Context, limit, offset int) ([]Employee, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, first_name, last_name, email, department, role, active, created_at
    FROM employees
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var emp Employee
		var department, role string
		if err := rows.Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Email, &department, &role, &emp.Active, &emp.CreatedAt); err != nil {
			return nil, 0, err
		}
		emp.Department = Department(department)
		emp.Role = auth.Role(role)
		employees = append(employees, emp)
	}
	return employees, total, nil
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET active = $1 WHERE id = $2", active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
