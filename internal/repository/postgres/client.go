package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/internal/repository"
	"github.com/agendalink/gateway/pkg/errors"
)

type clientRepository struct {
	BaseRepository
}

func NewClientRepository(base BaseRepository) repository.ClientRepository {
	return &clientRepository{base}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	query := `
		INSERT INTO clients (
			id, name, description, timezone, is_active,
			api_key, ghl_enabled, ghl_access_token, ghl_calendar_id, ghl_location_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			client.ID,
			client.Name,
			client.Description,
			client.Timezone,
			client.IsActive,
			client.APIKey,
			client.GHLEnabled,
			client.GHLAccessToken,
			client.GHLCalendarID,
			client.GHLLocationID,
			client.CreatedAt,
			client.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		for _, integration := range client.Integrations {
			integration.ClientID = client.ID
			if err := upsertIntegrationTx(ctx, tx, integration); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *clientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	query := `
		SELECT
			id, name, description, timezone, is_active,
			api_key, ghl_enabled, ghl_access_token, ghl_calendar_id, ghl_location_id,
			created_at, updated_at
		FROM clients
		WHERE id = $1
	`
	var client model.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("client", err)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	integrations, err := r.listIntegrations(ctx, id)
	if err != nil {
		return nil, err
	}
	client.Integrations = integrations
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context) ([]*model.Client, error) {
	query := `
		SELECT
			id, name, description, timezone, is_active,
			api_key, ghl_enabled, ghl_access_token, ghl_calendar_id, ghl_location_id,
			created_at, updated_at
		FROM clients
		ORDER BY created_at
	`
	var clients []*model.Client
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	for _, client := range clients {
		integrations, err := r.listIntegrations(ctx, client.ID)
		if err != nil {
			return nil, err
		}
		client.Integrations = integrations
	}
	return clients, nil
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	query := `
		UPDATE clients
		SET name = $1, description = $2, timezone = $3, is_active = $4,
			api_key = $5, ghl_enabled = $6, ghl_access_token = $7,
			ghl_calendar_id = $8, ghl_location_id = $9, updated_at = $10
		WHERE id = $11
	`
	client.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		client.Name,
		client.Description,
		client.Timezone,
		client.IsActive,
		client.APIKey,
		client.GHLEnabled,
		client.GHLAccessToken,
		client.GHLCalendarID,
		client.GHLLocationID,
		client.UpdatedAt,
		client.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("client", nil)
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM client_integrations WHERE client_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete client integrations: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return errors.NotFound("client", nil)
		}
		return nil
	})
}

func (r *clientRepository) listIntegrations(ctx context.Context, clientID uuid.UUID) ([]*model.ClientIntegration, error) {
	query := `
		SELECT
			id, client_id, integration_type, is_enabled, role, config,
			last_sync_at, last_sync_status, created_at, updated_at
		FROM client_integrations
		WHERE client_id = $1
		ORDER BY created_at
	`
	var integrations []*model.ClientIntegration
	if err := r.db.SelectContext(ctx, &integrations, query, clientID); err != nil {
		return nil, fmt.Errorf("failed to list client integrations: %w", err)
	}
	return integrations, nil
}

func (r *clientRepository) UpsertIntegration(ctx context.Context, integration *model.ClientIntegration) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return upsertIntegrationTx(ctx, tx, integration)
	})
}

func upsertIntegrationTx(ctx context.Context, tx *sqlx.Tx, integration *model.ClientIntegration) error {
	query := `
		INSERT INTO client_integrations (
			id, client_id, integration_type, is_enabled, role, config, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (client_id, integration_type) DO UPDATE
		SET is_enabled = EXCLUDED.is_enabled,
			role = EXCLUDED.role,
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at
	`
	if integration.ID == uuid.Nil {
		integration.ID = uuid.New()
	}
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = time.Now()
	}
	integration.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		integration.ID,
		integration.ClientID,
		integration.IntegrationType,
		integration.IsEnabled,
		integration.Role,
		integration.Config,
		integration.CreatedAt,
		integration.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert client integration: %w", err)
	}
	return nil
}

func (r *clientRepository) DeleteIntegration(ctx context.Context, clientID uuid.UUID, integrationType model.IntegrationType) error {
	query := `DELETE FROM client_integrations WHERE client_id = $1 AND integration_type = $2`
	if _, err := r.db.ExecContext(ctx, query, clientID, integrationType); err != nil {
		return fmt.Errorf("failed to delete client integration: %w", err)
	}
	return nil
}

func (r *clientRepository) RecordSyncStatus(ctx context.Context, integrationID uuid.UUID, status string) error {
	query := `
		UPDATE client_integrations
		SET last_sync_at = $1, last_sync_status = $2, updated_at = $1
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), status, integrationID)
	if err != nil {
		return fmt.Errorf("failed to record sync status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("client integration", nil)
	}
	return nil
}
