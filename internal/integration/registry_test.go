package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
)

// stubProvider advertises a metadata-driven capability set backed by
// full interface coverage, so registration checks pass.
type stubProvider struct {
	meta model.IntegrationMetadata
}

func (s *stubProvider) Type() model.IntegrationType          { return s.meta.Type }
func (s *stubProvider) Metadata() model.IntegrationMetadata  { return s.meta }
func (s *stubProvider) Endpoints() []model.IntegrationEndpoint {
	return []model.IntegrationEndpoint{{ID: string(s.meta.Type) + ".ping", Name: "Ping"}}
}
func (s *stubProvider) TestConnection(ctx context.Context, config model.IntegrationConfig) (*model.ConnectionStatus, error) {
	return &model.ConnectionStatus{Success: true}, nil
}
func (s *stubProvider) SearchAvailability(ctx context.Context, config model.IntegrationConfig, params model.SearchAvailabilityParams) (*model.AvailabilityResult, error) {
	return &model.AvailabilityResult{}, nil
}
func (s *stubProvider) SearchPatient(ctx context.Context, config model.IntegrationConfig, params model.SearchPatientParams) (*model.PatientResult, error) {
	return &model.PatientResult{}, nil
}
func (s *stubProvider) CreatePatient(ctx context.Context, config model.IntegrationConfig, params model.CreatePatientParams) (*model.PatientResult, error) {
	return &model.PatientResult{}, nil
}
func (s *stubProvider) ScheduleAppointment(ctx context.Context, config model.IntegrationConfig, params model.ScheduleAppointmentParams) (*model.AppointmentResult, error) {
	return &model.AppointmentResult{}, nil
}
func (s *stubProvider) CancelAppointment(ctx context.Context, config model.IntegrationConfig, params model.CancelAppointmentParams) (*model.CancelAppointmentResult, error) {
	return &model.CancelAppointmentResult{}, nil
}
func (s *stubProvider) GetBranches(ctx context.Context, config model.IntegrationConfig) ([]model.BranchResult, error) {
	return nil, nil
}
func (s *stubProvider) GetProfessionals(ctx context.Context, config model.IntegrationConfig) ([]model.ProfessionalResult, error) {
	return nil, nil
}
func (s *stubProvider) GetProfessionalsByBranch(ctx context.Context, config model.IntegrationConfig, branchID int) ([]model.ProfessionalResult, error) {
	return nil, nil
}

func newStub(typ model.IntegrationType, caps ...model.IntegrationCapability) *stubProvider {
	return &stubProvider{meta: model.IntegrationMetadata{
		Type:         typ,
		Name:         string(typ),
		Capabilities: caps,
		RequiredFields: []model.FieldDefinition{
			{Key: "apiKey", Label: "API Key", Kind: model.FieldPassword},
		},
	}}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry(
		newStub(model.TypeDentalink, model.CapabilityAvailability, model.CapabilityPatients),
		newStub(model.TypeReservo, model.CapabilityAvailability),
	)
	require.NoError(t, err)

	p, err := reg.Get(model.TypeDentalink)
	require.NoError(t, err)
	assert.Equal(t, model.TypeDentalink, p.Type())

	_, err = reg.Get(model.TypeGoHighLevel)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	all := reg.AllMetadata()
	require.Len(t, all, 2)
	assert.Equal(t, model.TypeDentalink, all[0].Type)
	assert.Equal(t, model.TypeReservo, all[1].Type)
}

func TestRegistryByCapability(t *testing.T) {
	reg, err := NewRegistry(
		newStub(model.TypeDentalink, model.CapabilityAvailability, model.CapabilityPatients),
		newStub(model.TypeReservo, model.CapabilityAvailability),
	)
	require.NoError(t, err)

	avail := reg.ByCapability(model.CapabilityAvailability)
	assert.Len(t, avail, 2)

	patients := reg.ByCapability(model.CapabilityPatients)
	require.Len(t, patients, 1)
	assert.Equal(t, model.TypeDentalink, patients[0].Type)

	assert.Empty(t, reg.ByCapability(model.CapabilityTreatments))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		newStub(model.TypeDentalink, model.CapabilityAvailability),
		newStub(model.TypeDentalink, model.CapabilityAvailability),
	)
	require.Error(t, err)
}

func TestRegistryRejectsEmptyCapabilities(t *testing.T) {
	_, err := NewRegistry(newStub(model.TypeDentalink))
	require.Error(t, err)
}

func TestRegistryValidateConfig(t *testing.T) {
	reg, err := NewRegistry(newStub(model.TypeDentalink, model.CapabilityAvailability))
	require.NoError(t, err)

	assert.NoError(t, reg.ValidateConfig(model.TypeDentalink, model.IntegrationConfig{"apiKey": "tok"}))

	err = reg.ValidateConfig(model.TypeDentalink, model.IntegrationConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	assert.Contains(t, err.Error(), "API Key")

	err = reg.ValidateConfig(model.TypeDentalink, model.IntegrationConfig{"apiKey": ""})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestRegistryEndpoints(t *testing.T) {
	reg, err := NewRegistry(newStub(model.TypeDentalink, model.CapabilityAvailability))
	require.NoError(t, err)

	eps, err := reg.Endpoints(model.TypeDentalink)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, "dentalink.ping", eps[0].ID)
}
