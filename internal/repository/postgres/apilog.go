package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/internal/repository"
)

type apiLogRepository struct {
	BaseRepository
}

func NewAPILogRepository(base BaseRepository) repository.APILogRepository {
	return &apiLogRepository{base}
}

func (r *apiLogRepository) Create(ctx context.Context, entry *model.APILog) error {
	query := `
		INSERT INTO api_logs (
			id, client_id, integration_type, operation, method, path,
			status_code, duration_ms, success, error_kind,
			request_body, response_body, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ClientID,
		entry.IntegrationType,
		entry.Operation,
		entry.Method,
		entry.Path,
		entry.StatusCode,
		entry.DurationMs,
		entry.Success,
		entry.ErrorKind,
		entry.RequestBody,
		entry.ResponseBody,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create api log: %w", err)
	}
	return nil
}

func (r *apiLogRepository) ListByClient(ctx context.Context, clientID uuid.UUID, filters *model.APILogFilters) ([]*model.APILog, error) {
	query := `
		SELECT
			id, client_id, integration_type, operation, method, path,
			status_code, duration_ms, success, error_kind,
			request_body, response_body, created_at
		FROM api_logs
		WHERE client_id = $1
	`
	args := []interface{}{clientID}

	if filters != nil {
		if filters.Operation != "" {
			args = append(args, filters.Operation)
			query += fmt.Sprintf(" AND operation = $%d", len(args))
		}
		if filters.Success != nil {
			args = append(args, *filters.Success)
			query += fmt.Sprintf(" AND success = $%d", len(args))
		}
		if filters.From != nil {
			args = append(args, *filters.From)
			query += fmt.Sprintf(" AND created_at >= $%d", len(args))
		}
		if filters.To != nil {
			args = append(args, *filters.To)
			query += fmt.Sprintf(" AND created_at < $%d", len(args))
		}
	}

	query += " ORDER BY created_at DESC"

	limit := 100
	if filters != nil && filters.Limit > 0 {
		limit = filters.Limit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filters != nil && filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var logs []*model.APILog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list api logs: %w", err)
	}
	return logs, nil
}
