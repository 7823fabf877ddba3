package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one immutable line of the leave audit trail. Statuses are
// plain strings so the trail survives enum evolution in the workflow.
type Entry struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId"`
	ActorID     string    `json:"actorId"`
	Action      string    `json:"action"`
	PrevStatus  string    `json:"prevStatus"`
	NewStatus   string    `json:"newStatus"`
	Remarks     string    `json:"remarks"`
	PTODeducted int       `json:"ptoDeducted"`
	Lwop        bool      `json:"isLwop"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Filter struct {
	RequestID string
	ActorID   string
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Record appends one entry. There is no update or delete path.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_log (request_id, actor_id, action, prev_status, new_status, remarks, pto_deducted, is_lwop)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, entry.RequestID, entry.ActorID, entry.Action, entry.PrevStatus, entry.NewStatus, entry.Remarks, entry.PTODeducted, entry.Lwop)
	return err
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error) {
	query := `
    SELECT id, request_id, actor_id, action, prev_status, new_status, remarks, pto_deducted, is_lwop, created_at
    FROM audit_log
    WHERE 1=1
  `
	args := []any{}
	if filter.RequestID != "" {
		query += fmt.Sprintf(" AND request_id = $%d", len(args)+1)
		args = append(args, filter.RequestID)
	}
	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", len(args)+1)
		args = append(args, filter.ActorID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.RequestID, &entry.ActorID, &entry.Action, &entry.PrevStatus, &entry.NewStatus, &entry.Remarks, &entry.PTODeducted, &entry.Lwop, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
