package client

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agendalink/gateway/internal/cache"
	"github.com/agendalink/gateway/internal/integration"
	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/internal/repository"
	"github.com/agendalink/gateway/pkg/errors"
)

const defaultTimezone = "America/Santiago"

// validate reuses the binding tags gin checks at the HTTP boundary, so
// requests built in code go through the same rules.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

type Servicer interface {
	Create(ctx context.Context, req *model.CreateClientRequest) (*model.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context) ([]*model.Client, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateClientRequest) (*model.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TestConnection(ctx context.Context, id uuid.UUID, integrationType model.IntegrationType) (*model.ConnectionStatus, error)
}

type Service struct {
	repo      repository.ClientRepository
	registry  *integration.Registry
	directory *cache.Directory
}

func NewService(repo repository.ClientRepository, registry *integration.Registry, directory *cache.Directory) *Service {
	return &Service{repo: repo, registry: registry, directory: directory}
}

func (s *Service) Create(ctx context.Context, req *model.CreateClientRequest) (*model.Client, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.Configuration("invalid client payload", err)
	}

	client := &model.Client{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Timezone:    req.Timezone,
		IsActive:    true,

		APIKey:         req.APIKey,
		GHLEnabled:     req.GHLEnabled,
		GHLAccessToken: req.GHLAccessToken,
		GHLCalendarID:  req.GHLCalendarID,
		GHLLocationID:  req.GHLLocationID,
	}
	if client.Timezone == "" {
		client.Timezone = defaultTimezone
	}

	integrations, err := s.buildIntegrations(client.ID, req.Integrations)
	if err != nil {
		return nil, err
	}

	// A flat apiKey with no explicit Dentalink entry gets the
	// equivalent integration row, so new clients never stay legacy.
	if req.APIKey != "" && !hasType(integrations, model.TypeDentalink) {
		config := model.IntegrationConfig{"apiKey": req.APIKey}
		if client.Timezone != "" {
			config["timezone"] = client.Timezone
		}
		integrations = append(integrations, &model.ClientIntegration{
			ID:              uuid.New(),
			ClientID:        client.ID,
			IntegrationType: model.TypeDentalink,
			IsEnabled:       true,
			Role:            model.RolePrimary,
			Config:          config,
		})
	}
	client.Integrations = integrations

	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Client, error) {
	return s.repo.List(ctx)
}

// Update patches scalar fields and, when Integrations is non-nil,
// reconciles the whole integration set: present entries are upserted,
// missing ones deleted.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateClientRequest) (*model.Client, error) {
	client, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Description != nil {
		client.Description = *req.Description
	}
	if req.Timezone != nil {
		client.Timezone = *req.Timezone
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}
	if req.APIKey != nil {
		client.APIKey = *req.APIKey
	}
	if req.GHLEnabled != nil {
		client.GHLEnabled = *req.GHLEnabled
	}
	if req.GHLAccessToken != nil {
		client.GHLAccessToken = *req.GHLAccessToken
	}
	if req.GHLCalendarID != nil {
		client.GHLCalendarID = *req.GHLCalendarID
	}
	if req.GHLLocationID != nil {
		client.GHLLocationID = *req.GHLLocationID
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}

	if req.Integrations != nil {
		if err := s.reconcileIntegrations(ctx, client, req.Integrations); err != nil {
			return nil, err
		}
	}

	if s.directory != nil {
		s.directory.Invalidate(client.ID.String())
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.directory != nil {
		s.directory.Invalidate(id.String())
	}
	return nil
}

func (s *Service) TestConnection(ctx context.Context, id uuid.UUID, integrationType model.IntegrationType) (*model.ConnectionStatus, error) {
	client, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	provider, err := s.registry.Get(integrationType)
	if err != nil {
		return nil, err
	}

	var config model.IntegrationConfig
	if ci := client.Integration(integrationType); ci != nil {
		config = ci.Config
	} else if client.IsLegacy() && integrationType == model.TypeDentalink {
		config = model.IntegrationConfig{"apiKey": client.APIKey}
	} else {
		return nil, errors.NotFound(fmt.Sprintf("integration %s for client %q", integrationType, client.Name), nil)
	}

	if err := s.registry.ValidateConfig(integrationType, config); err != nil {
		return nil, err
	}
	return provider.TestConnection(ctx, config)
}

func (s *Service) buildIntegrations(clientID uuid.UUID, inputs []*model.IntegrationInput) ([]*model.ClientIntegration, error) {
	var out []*model.ClientIntegration
	for _, input := range inputs {
		ci, err := s.buildIntegration(clientID, input)
		if err != nil {
			return nil, err
		}
		if hasType(out, ci.IntegrationType) {
			return nil, errors.Conflict(fmt.Sprintf("duplicate integration %s", ci.IntegrationType), nil)
		}
		out = append(out, ci)
	}
	return out, nil
}

func (s *Service) buildIntegration(clientID uuid.UUID, input *model.IntegrationInput) (*model.ClientIntegration, error) {
	if _, err := s.registry.Metadata(input.Type); err != nil {
		return nil, errors.Configuration(fmt.Sprintf("unknown integration type %q", input.Type), err)
	}
	if err := s.registry.ValidateConfig(input.Type, input.Config); err != nil {
		return nil, err
	}

	enabled := true
	if input.IsEnabled != nil {
		enabled = *input.IsEnabled
	}
	role := input.Role
	if role == "" {
		role = model.RolePrimary
	}
	return &model.ClientIntegration{
		ID:              uuid.New(),
		ClientID:        clientID,
		IntegrationType: input.Type,
		IsEnabled:       enabled,
		Role:            role,
		Config:          input.Config,
	}, nil
}

func (s *Service) reconcileIntegrations(ctx context.Context, client *model.Client, inputs []*model.IntegrationInput) error {
	desired, err := s.buildIntegrations(client.ID, inputs)
	if err != nil {
		return err
	}

	existing := make(map[model.IntegrationType]*model.ClientIntegration, len(client.Integrations))
	for _, ci := range client.Integrations {
		existing[ci.IntegrationType] = ci
	}

	for _, ci := range desired {
		if current, ok := existing[ci.IntegrationType]; ok {
			ci.ID = current.ID
			ci.CreatedAt = current.CreatedAt
		}
		if err := s.repo.UpsertIntegration(ctx, ci); err != nil {
			return err
		}
		delete(existing, ci.IntegrationType)
	}
	for integrationType := range existing {
		if err := s.repo.DeleteIntegration(ctx, client.ID, integrationType); err != nil {
			return err
		}
	}
	return nil
}

func hasType(integrations []*model.ClientIntegration, t model.IntegrationType) bool {
	for _, ci := range integrations {
		if ci.IntegrationType == t {
			return true
		}
	}
	return false
}
