package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/internal/repository"
	"github.com/agendalink/gateway/pkg/errors"
)

type operatorRepository struct {
	BaseRepository
}

func NewOperatorRepository(base BaseRepository) repository.OperatorRepository {
	return &operatorRepository{base}
}

func (r *operatorRepository) Create(ctx context.Context, operator *model.Operator) error {
	query := `
		INSERT INTO operators (
			id, email, name, password_hash, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`
	if operator.ID == uuid.Nil {
		operator.ID = uuid.New()
	}
	operator.CreatedAt = time.Now()
	operator.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		operator.ID,
		operator.Email,
		operator.Name,
		operator.PasswordHash,
		operator.IsActive,
		operator.CreatedAt,
		operator.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

func (r *operatorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	query := `
		SELECT id, email, name, password_hash, is_active, created_at, updated_at
		FROM operators
		WHERE id = $1
	`
	var operator model.Operator
	if err := r.db.GetContext(ctx, &operator, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("operator", err)
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &operator, nil
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*model.Operator, error) {
	query := `
		SELECT id, email, name, password_hash, is_active, created_at, updated_at
		FROM operators
		WHERE email = $1
	`
	var operator model.Operator
	if err := r.db.GetContext(ctx, &operator, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("operator", err)
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &operator, nil
}
