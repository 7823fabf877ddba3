package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leavedesk/internal/domain/auth"
)

// BalanceInitializer provisions the yearly PTO balance for a new hire.
// Implemented by the leave service; an interface here keeps the employee
// registry unaware of leave accounting internals.
type BalanceInitializer interface {
	InitializeBalance(ctx context.Context, employeeID string, year int) error
}

type Service struct {
	store    StoreAPI
	balances BalanceInitializer
	now      func() time.Time
}

func NewService(store StoreAPI, balances BalanceInitializer) *Service {
	return &Service{store: store, balances: balances, now: time.Now}
}

type RegisterInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Department Department
	Role       auth.Role
}

// Register creates the employee record and its balance for the current
// tracking year. Duplicate registration is rejected at the employee
// level, which is the idempotency boundary for balance creation.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Employee, error) {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return Employee{}, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	if !strings.Contains(input.Email, "@") {
		return Employee{}, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(input.Password) < 8 {
		return Employee{}, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if !input.Department.Valid() {
		return Employee{}, fmt.Errorf("%w: unknown department %q", ErrValidation, input.Department)
	}
	if !input.Role.Valid() {
		return Employee{}, fmt.Errorf("%w: unknown role %q", ErrValidation, input.Role)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return Employee{}, err
	}

	emp := Employee{
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Department: input.Department,
		Role:       input.Role,
		Active:     true,
	}

	id, err := s.store.InsertEmployee(ctx, emp, hash)
	if err != nil {
		return Employee{}, err
	}
	emp.ID = id
	emp.CreatedAt = s.now().UTC()

	if err := s.balances.InitializeBalance(ctx, id, s.now().UTC().Year()); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Service) Employee(ctx context.Context, id string) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, limit, offset int) ([]Employee, int, error) {
	return s.store.ListEmployees(ctx, limit, offset)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.store.SetActive(ctx, id, active)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Employee, error) {
	emp, hash, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return Employee{}, err
	}
	if !emp.Active {
		return Employee{}, ErrNotFound
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		return Employee{}, fmt.Errorf("%w: bad credentials", ErrValidation)
	}
	return emp, nil
}
