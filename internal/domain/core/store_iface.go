package core

import "context"

type StoreAPI interface {
	InsertEmployee(ctx context.Context, emp Employee, passwordHash string) (string, error)
	GetEmployee(ctx context.Context, id string) (Employee, error)
	FindByEmail(ctx context.Context, email string) (Employee, string, error)
	ListEmployees(ctx context.Context, limit, offset int) ([]Employee, int, error)
	SetActive(ctx context.Context, id string, active bool) error
}
