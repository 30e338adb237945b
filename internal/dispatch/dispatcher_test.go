package dispatch

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendalink/gateway/internal/cache"
	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
	"github.com/agendalink/gateway/pkg/logger"
)

type recordedSync struct {
	integrationID uuid.UUID
	status        string
}

type fakeRecorder struct {
	recorded []recordedSync
}

func (f *fakeRecorder) RecordSyncStatus(ctx context.Context, integrationID uuid.UUID, status string) error {
	f.recorded = append(f.recorded, recordedSync{integrationID: integrationID, status: status})
	return nil
}

type fakeAlerter struct {
	notified int
}

func (f *fakeAlerter) NotifyPartialSync(client *model.Client, integrationType model.IntegrationType, operation string, cause error) {
	f.notified++
}

func quietLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func dualClient(secondaryID uuid.UUID) *model.Client {
	secondary := enabledIntegration(model.TypeGoHighLevel, model.RoleSecondary)
	secondary.ID = secondaryID
	return &model.Client{
		ID:   uuid.New(),
		Name: "dual",
		Integrations: []*model.ClientIntegration{
			enabledIntegration(model.TypeDentalink, model.RolePrimary),
			secondary,
		},
	}
}

func TestScheduleDualWriteBothSucceed(t *testing.T) {
	primary := newFake(model.TypeDentalink, model.CapabilityAppointments)
	secondary := newFake(model.TypeGoHighLevel, model.CapabilityAppointments)
	reg := newTestRegistry(t, primary, secondary)
	recorder := &fakeRecorder{}
	alerter := &fakeAlerter{}
	d := NewDispatcher(NewResolver(reg, nil), nil, recorder, alerter, nil, quietLogger())

	secondaryID := uuid.New()
	outcome, err := d.ScheduleAppointment(context.Background(), dualClient(secondaryID), model.ScheduleAppointmentParams{
		PatientIdentifier: "12345678-9",
		ProfessionalID:    10,
		Date:              "2024-05-01",
		Time:              "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", outcome.Appointment.Status)
	assert.Empty(t, outcome.SyncWarning)
	require.NotNil(t, outcome.Secondary)
	assert.True(t, outcome.Secondary.Success)

	require.Len(t, primary.scheduled, 1)
	require.Len(t, secondary.scheduled, 1)
	require.Len(t, recorder.recorded, 1)
	assert.Equal(t, secondaryID, recorder.recorded[0].integrationID)
	assert.Equal(t, "ok", recorder.recorded[0].status)
	assert.Zero(t, alerter.notified)
}

func TestScheduleSecondaryFailureIsAdvisory(t *testing.T) {
	primary := newFake(model.TypeDentalink, model.CapabilityAppointments)
	secondary := newFake(model.TypeGoHighLevel, model.CapabilityAppointments)
	secondary.scheduleErr = errors.UpstreamUnavailable("gohighlevel", nil)
	reg := newTestRegistry(t, primary, secondary)
	recorder := &fakeRecorder{}
	alerter := &fakeAlerter{}
	d := NewDispatcher(NewResolver(reg, nil), nil, recorder, alerter, nil, quietLogger())

	secondaryID := uuid.New()
	outcome, err := d.ScheduleAppointment(context.Background(), dualClient(secondaryID), model.ScheduleAppointmentParams{
		PatientIdentifier: "12345678-9",
		ProfessionalID:    10,
		Date:              "2024-05-01",
		Time:              "09:00",
	})
	require.NoError(t, err, "secondary failure must not fail the booking")
	assert.Equal(t, "scheduled", outcome.Appointment.Status)
	assert.Contains(t, outcome.SyncWarning, "gohighlevel")
	require.NotNil(t, outcome.Secondary)
	assert.False(t, outcome.Secondary.Success)

	require.Len(t, recorder.recorded, 1)
	assert.Equal(t, secondaryID, recorder.recorded[0].integrationID)
	assert.Contains(t, recorder.recorded[0].status, "failed")
	assert.Equal(t, 1, alerter.notified)
}

func TestSchedulePrimaryFailureSkipsSecondary(t *testing.T) {
	primary := newFake(model.TypeDentalink, model.CapabilityAppointments)
	primary.scheduleErr = errors.UpstreamRejected("Horario no disponible", nil)
	secondary := newFake(model.TypeGoHighLevel, model.CapabilityAppointments)
	reg := newTestRegistry(t, primary, secondary)
	d := NewDispatcher(NewResolver(reg, nil), nil, &fakeRecorder{}, &fakeAlerter{}, nil, quietLogger())

	_, err := d.ScheduleAppointment(context.Background(), dualClient(uuid.New()), model.ScheduleAppointmentParams{
		PatientIdentifier: "12345678-9",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUpstreamRejected))
	assert.Empty(t, secondary.scheduled, "secondary must not be attempted after a primary failure")
}

func TestScheduleLegacyClientRecordsNothing(t *testing.T) {
	primary := newFake(model.TypeDentalink, model.CapabilityAppointments)
	secondary := newFake(model.TypeGoHighLevel, model.CapabilityAppointments)
	reg := newTestRegistry(t, primary, secondary)
	recorder := &fakeRecorder{}
	d := NewDispatcher(NewResolver(reg, nil), nil, recorder, &fakeAlerter{}, nil, quietLogger())

	client := &model.Client{
		ID:             uuid.New(),
		Name:           "legacy",
		APIKey:         "flat-key",
		GHLEnabled:     true,
		GHLAccessToken: "tok",
	}
	outcome, err := d.ScheduleAppointment(context.Background(), client, model.ScheduleAppointmentParams{
		PatientIdentifier: "12345678-9",
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Secondary)
	assert.Empty(t, recorder.recorded, "legacy clients have no integration row to update")
}

func TestGetBranchesUsesDirectoryCache(t *testing.T) {
	provider := newFake(model.TypeDentalink, model.CapabilityClinicConfig)
	reg := newTestRegistry(t, provider)
	d := NewDispatcher(NewResolver(reg, nil), nil, nil, nil, cache.NewDirectory(cache.DefaultTTL), quietLogger())

	client := &model.Client{
		ID:   uuid.New(),
		Name: "cached",
		Integrations: []*model.ClientIntegration{
			enabledIntegration(model.TypeDentalink, model.RolePrimary),
		},
	}

	first, err := d.GetBranches(context.Background(), client)
	require.NoError(t, err)
	second, err := d.GetBranches(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.branchCalls, "second fetch must come from cache")
}

func TestConfirmRequiresConfirmerCapability(t *testing.T) {
	reg := newTestRegistry(t, newFake(model.TypeGoHighLevel, model.CapabilityAppointments))
	d := NewDispatcher(NewResolver(reg, nil), nil, nil, nil, nil, quietLogger())

	client := &model.Client{
		ID:   uuid.New(),
		Name: "ghl only",
		Integrations: []*model.ClientIntegration{
			enabledIntegration(model.TypeGoHighLevel, model.RolePrimary),
		},
	}

	_, err := d.ConfirmAppointment(context.Background(), client, model.ConfirmAppointmentParams{AppointmentID: 1})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}
