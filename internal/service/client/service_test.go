package client

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendalink/gateway/internal/integration"
	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
)

type stubProvider struct {
	meta      model.IntegrationMetadata
	connected bool
}

func (s *stubProvider) Type() model.IntegrationType         { return s.meta.Type }
func (s *stubProvider) Metadata() model.IntegrationMetadata { return s.meta }
func (s *stubProvider) Endpoints() []model.IntegrationEndpoint {
	return []model.IntegrationEndpoint{{ID: string(s.meta.Type) + ".ping", Name: "Ping"}}
}
func (s *stubProvider) TestConnection(ctx context.Context, config model.IntegrationConfig) (*model.ConnectionStatus, error) {
	s.connected = true
	return &model.ConnectionStatus{Success: true, Message: "ok"}, nil
}
func (s *stubProvider) SearchPatient(ctx context.Context, config model.IntegrationConfig, params model.SearchPatientParams) (*model.PatientResult, error) {
	return &model.PatientResult{}, nil
}
func (s *stubProvider) CreatePatient(ctx context.Context, config model.IntegrationConfig, params model.CreatePatientParams) (*model.PatientResult, error) {
	return &model.PatientResult{}, nil
}

func newStub(typ model.IntegrationType) *stubProvider {
	return &stubProvider{meta: model.IntegrationMetadata{
		Type:         typ,
		Name:         string(typ),
		Capabilities: []model.IntegrationCapability{model.CapabilityPatients},
		RequiredFields: []model.FieldDefinition{
			{Key: "apiKey", Label: "API Key", Kind: model.FieldPassword},
		},
	}}
}

// memoryRepo keeps clients in a map so the service can be exercised
// without Postgres.
type memoryRepo struct {
	clients map[uuid.UUID]*model.Client
	deleted []model.IntegrationType
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (m *memoryRepo) Create(ctx context.Context, client *model.Client) error {
	m.clients[client.ID] = client
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	client, ok := m.clients[id]
	if !ok {
		return nil, errors.NotFound("client", nil)
	}
	return client, nil
}

func (m *memoryRepo) List(ctx context.Context) ([]*model.Client, error) {
	var out []*model.Client
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) Update(ctx context.Context, client *model.Client) error {
	if _, ok := m.clients[client.ID]; !ok {
		return errors.NotFound("client", nil)
	}
	m.clients[client.ID] = client
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.clients[id]; !ok {
		return errors.NotFound("client", nil)
	}
	delete(m.clients, id)
	return nil
}

func (m *memoryRepo) UpsertIntegration(ctx context.Context, integration *model.ClientIntegration) error {
	client, ok := m.clients[integration.ClientID]
	if !ok {
		return errors.NotFound("client", nil)
	}
	for i, ci := range client.Integrations {
		if ci.IntegrationType == integration.IntegrationType {
			client.Integrations[i] = integration
			return nil
		}
	}
	client.Integrations = append(client.Integrations, integration)
	return nil
}

func (m *memoryRepo) DeleteIntegration(ctx context.Context, clientID uuid.UUID, integrationType model.IntegrationType) error {
	m.deleted = append(m.deleted, integrationType)
	client, ok := m.clients[clientID]
	if !ok {
		return errors.NotFound("client", nil)
	}
	kept := client.Integrations[:0]
	for _, ci := range client.Integrations {
		if ci.IntegrationType != integrationType {
			kept = append(kept, ci)
		}
	}
	client.Integrations = kept
	return nil
}

func (m *memoryRepo) RecordSyncStatus(ctx context.Context, integrationID uuid.UUID, status string) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *stubProvider) {
	t.Helper()
	dentalink := newStub(model.TypeDentalink)
	registry, err := integration.NewRegistry(dentalink, newStub(model.TypeReservo))
	require.NoError(t, err)
	repo := newMemoryRepo()
	return NewService(repo, registry, nil), repo, dentalink
}

func TestCreateDefaultsTimezone(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &model.CreateClientRequest{Name: "clinica norte"})
	require.NoError(t, err)
	assert.Equal(t, "America/Santiago", created.Timezone)
	assert.True(t, created.IsActive)
}

func TestCreateLegacyAPIKeyBecomesDentalinkIntegration(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &model.CreateClientRequest{
		Name:   "clinica sur",
		APIKey: "flat-key",
	})
	require.NoError(t, err)

	require.Len(t, created.Integrations, 1)
	ci := created.Integrations[0]
	assert.Equal(t, model.TypeDentalink, ci.IntegrationType)
	assert.Equal(t, model.RolePrimary, ci.Role)
	assert.True(t, ci.IsEnabled)
	assert.Equal(t, "flat-key", ci.Config["apiKey"])
	assert.False(t, created.IsLegacy(), "new clients never stay legacy")
}

func TestCreateRejectsUnknownIntegrationType(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &model.CreateClientRequest{
		Name: "x",
		Integrations: []*model.IntegrationInput{
			{Type: "typeform", Config: model.IntegrationConfig{"apiKey": "k"}},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestCreateValidatesConfig(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &model.CreateClientRequest{
		Name: "x",
		Integrations: []*model.IntegrationInput{
			{Type: model.TypeDentalink, Config: model.IntegrationConfig{}},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	assert.Contains(t, err.Error(), "API Key")
}

func TestCreateRejectsDuplicateTypes(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &model.CreateClientRequest{
		Name: "x",
		Integrations: []*model.IntegrationInput{
			{Type: model.TypeDentalink, Config: model.IntegrationConfig{"apiKey": "a"}},
			{Type: model.TypeDentalink, Config: model.IntegrationConfig{"apiKey": "b"}},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConflict))
}

func TestUpdateReconcilesIntegrations(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &model.CreateClientRequest{
		Name: "clinica este",
		Integrations: []*model.IntegrationInput{
			{Type: model.TypeDentalink, Config: model.IntegrationConfig{"apiKey": "a"}},
			{Type: model.TypeReservo, Config: model.IntegrationConfig{"apiKey": "b"}},
		},
	})
	require.NoError(t, err)
	originalID := created.Integrations[0].ID

	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateClientRequest{
		Integrations: []*model.IntegrationInput{
			{Type: model.TypeDentalink, Config: model.IntegrationConfig{"apiKey": "rotated"}},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Integrations, 1)
	assert.Equal(t, model.TypeDentalink, updated.Integrations[0].IntegrationType)
	assert.Equal(t, "rotated", updated.Integrations[0].Config["apiKey"])
	assert.Equal(t, originalID, updated.Integrations[0].ID, "existing rows keep their identity")
	assert.Contains(t, repo.deleted, model.TypeReservo)
}

func TestUpdatePatchesScalars(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &model.CreateClientRequest{Name: "before"})
	require.NoError(t, err)

	name := "after"
	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateClientRequest{
		Name:     &name,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
	assert.False(t, updated.IsActive)
}

func TestTestConnectionUsesStoredConfig(t *testing.T) {
	svc, _, dentalink := newTestService(t)

	created, err := svc.Create(context.Background(), &model.CreateClientRequest{
		Name: "clinica oeste",
		Integrations: []*model.IntegrationInput{
			{Type: model.TypeDentalink, Config: model.IntegrationConfig{"apiKey": "k"}},
		},
	})
	require.NoError(t, err)

	status, err := svc.TestConnection(context.Background(), created.ID, model.TypeDentalink)
	require.NoError(t, err)
	assert.True(t, status.Success)
	assert.True(t, dentalink.connected)
}

func TestTestConnectionUnknownIntegration(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), &model.CreateClientRequest{Name: "bare"})
	require.NoError(t, err)

	_, err = svc.TestConnection(context.Background(), created.ID, model.TypeReservo)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}
