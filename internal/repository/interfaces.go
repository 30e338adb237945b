package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/agendalink/gateway/internal/model"
)

// All repository interfaces in one file
type (
	// ClientRepository handles clients and their integration rows.
	ClientRepository interface {
		Create(ctx context.Context, client *model.Client) error
		Get(ctx context.Context, id uuid.UUID) (*model.Client, error)
		List(ctx context.Context) ([]*model.Client, error)
		Update(ctx context.Context, client *model.Client) error
		Delete(ctx context.Context, id uuid.UUID) error

		UpsertIntegration(ctx context.Context, integration *model.ClientIntegration) error
		DeleteIntegration(ctx context.Context, clientID uuid.UUID, integrationType model.IntegrationType) error
		RecordSyncStatus(ctx context.Context, integrationID uuid.UUID, status string) error
	}

	// APILogRepository is the append-only request audit trail.
	APILogRepository interface {
		Create(ctx context.Context, entry *model.APILog) error
		ListByClient(ctx context.Context, clientID uuid.UUID, filters *model.APILogFilters) ([]*model.APILog, error)
	}

	OperatorRepository interface {
		Create(ctx context.Context, operator *model.Operator) error
		Get(ctx context.Context, id uuid.UUID) (*model.Operator, error)
		GetByEmail(ctx context.Context, email string) (*model.Operator, error)
	}
)
