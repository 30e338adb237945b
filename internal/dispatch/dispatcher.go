package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agendalink/gateway/internal/cache"
	"github.com/agendalink/gateway/internal/integration"
	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
	"github.com/agendalink/gateway/pkg/logger"
	"github.com/agendalink/gateway/pkg/metrics"
)

// SyncRecorder persists the outcome of a secondary sync attempt on the
// owning client integration row.
type SyncRecorder interface {
	RecordSyncStatus(ctx context.Context, integrationID uuid.UUID, status string) error
}

// Alerter is notified when a dual-mode write succeeds on the primary
// but fails on the secondary.
type Alerter interface {
	NotifyPartialSync(client *model.Client, integrationType model.IntegrationType, operation string, cause error)
}

// ScheduleOutcome is a schedule result plus the advisory state of the
// secondary sync. SyncWarning is set only when the primary succeeded
// and the secondary did not; it never fails the operation.
type ScheduleOutcome struct {
	Appointment *model.AppointmentResult                    `json:"appointment"`
	Secondary   *model.DualResult[*model.AppointmentResult] `json:"secondary,omitempty"`
	SyncWarning string                                      `json:"syncWarning,omitempty"`
}

// Dispatcher executes capability operations against a client's
// resolved integrations, recording metrics per upstream call.
type Dispatcher struct {
	resolver  *Resolver
	metrics   *metrics.Metrics
	recorder  SyncRecorder
	alerter   Alerter
	directory *cache.Directory
	log       *logger.Logger
}

func NewDispatcher(resolver *Resolver, m *metrics.Metrics, recorder SyncRecorder, alerter Alerter, directory *cache.Directory, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		resolver:  resolver,
		metrics:   m,
		recorder:  recorder,
		alerter:   alerter,
		directory: directory,
		log:       log.WithComponent("dispatch"),
	}
}

func (d *Dispatcher) observe(binding Binding, operation string, started time.Time, err error) {
	if d.metrics == nil {
		return
	}
	kind := ""
	if err != nil {
		kind = errors.KindOf(err).String()
	}
	d.metrics.ObserveUpstreamCall(string(binding.Type), operation, time.Since(started).Seconds(), err, kind)
}

// --- reads: primary only ---

func (d *Dispatcher) SearchAvailability(ctx context.Context, client *model.Client, params model.SearchAvailabilityParams) (*model.AvailabilityResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityAvailability)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.AvailabilityProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement availability", nil)
	}
	if params.Timezone == "" && client.Timezone != "" {
		params.Timezone = client.Timezone
	}
	started := time.Now()
	result, err := provider.SearchAvailability(ctx, res.Primary.Config, params)
	d.observe(res.Primary, "availability.search", started, err)
	return result, err
}

func (d *Dispatcher) SearchPatient(ctx context.Context, client *model.Client, params model.SearchPatientParams) (*model.PatientResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityPatients)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.PatientProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement patients", nil)
	}
	started := time.Now()
	result, err := provider.SearchPatient(ctx, res.Primary.Config, params)
	d.observe(res.Primary, "patients.search", started, err)
	return result, err
}

func (d *Dispatcher) CreatePatient(ctx context.Context, client *model.Client, params model.CreatePatientParams) (*model.PatientResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityPatients)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.PatientProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement patients", nil)
	}
	started := time.Now()
	result, err := provider.CreatePatient(ctx, res.Primary.Config, params)
	d.observe(res.Primary, "patients.create", started, err)
	return result, err
}

func (d *Dispatcher) GetPatientTreatments(ctx context.Context, client *model.Client, params model.GetTreatmentsParams) ([]model.TreatmentResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityTreatments)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.TreatmentProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement treatments", nil)
	}
	started := time.Now()
	result, err := provider.GetPatientTreatments(ctx, res.Primary.Config, params)
	d.observe(res.Primary, "treatments.list", started, err)
	return result, err
}

func (d *Dispatcher) GetBranches(ctx context.Context, client *model.Client) ([]model.BranchResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityClinicConfig)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.ClinicProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement clinic directory", nil)
	}
	clientID := client.ID.String()
	if d.directory != nil {
		if cached, ok := d.directory.Branches(clientID, res.Primary.Type); ok {
			return cached, nil
		}
	}
	started := time.Now()
	branches, err := provider.GetBranches(ctx, res.Primary.Config)
	d.observe(res.Primary, "clinic.branches", started, err)
	if err != nil {
		return nil, err
	}
	if d.directory != nil {
		d.directory.SetBranches(clientID, res.Primary.Type, branches)
	}
	return branches, nil
}

func (d *Dispatcher) GetProfessionals(ctx context.Context, client *model.Client) ([]model.ProfessionalResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityClinicConfig)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.ClinicProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement clinic directory", nil)
	}
	clientID := client.ID.String()
	if d.directory != nil {
		if cached, ok := d.directory.Professionals(clientID, res.Primary.Type); ok {
			return cached, nil
		}
	}
	started := time.Now()
	profs, err := provider.GetProfessionals(ctx, res.Primary.Config)
	d.observe(res.Primary, "clinic.professionals", started, err)
	if err != nil {
		return nil, err
	}
	if d.directory != nil {
		d.directory.SetProfessionals(clientID, res.Primary.Type, profs)
	}
	return profs, nil
}

func (d *Dispatcher) GetProfessionalsByBranch(ctx context.Context, client *model.Client, branchID int) ([]model.ProfessionalResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityClinicConfig)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.ClinicProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement clinic directory", nil)
	}
	started := time.Now()
	profs, err := provider.GetProfessionalsByBranch(ctx, res.Primary.Config, branchID)
	d.observe(res.Primary, "clinic.professionals_by_branch", started, err)
	return profs, err
}

// --- writes ---

// ScheduleAppointment books on the primary integration; its outcome is
// the operation outcome. A configured secondary is then attempted best
// effort, only after the primary succeeded, and its failure surfaces
// solely as an advisory warning.
func (d *Dispatcher) ScheduleAppointment(ctx context.Context, client *model.Client, params model.ScheduleAppointmentParams) (*ScheduleOutcome, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityAppointments)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.AppointmentProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement appointments", nil)
	}

	started := time.Now()
	appointment, err := provider.ScheduleAppointment(ctx, res.Primary.Config, params)
	d.observe(res.Primary, "appointments.schedule", started, err)
	if err != nil {
		return nil, err
	}

	outcome := &ScheduleOutcome{Appointment: appointment}
	if res.Secondary != nil {
		outcome.Secondary = d.syncSecondary(ctx, client, *res.Secondary, params)
		if !outcome.Secondary.Success {
			outcome.SyncWarning = "appointment booked, but syncing to " + string(res.Secondary.Type) + " failed: " + outcome.Secondary.Error
		}
	}
	return outcome, nil
}

// syncSecondary writes the appointment to the secondary integration.
// Failures are recorded, counted, alerted, and swallowed.
func (d *Dispatcher) syncSecondary(ctx context.Context, client *model.Client, binding Binding, params model.ScheduleAppointmentParams) *model.DualResult[*model.AppointmentResult] {
	operation := "appointments.schedule"
	if d.metrics != nil {
		d.metrics.SecondarySyncAttempts.WithLabelValues(string(binding.Type), operation).Inc()
	}

	result := &model.DualResult[*model.AppointmentResult]{}
	provider, ok := binding.Provider.(integration.AppointmentProvider)
	if !ok {
		result.Error = string(binding.Type) + " does not implement appointments"
	} else {
		started := time.Now()
		appointment, err := provider.ScheduleAppointment(ctx, binding.Config, params)
		d.observe(binding, operation, started, err)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Success = true
			result.Data = appointment
		}
	}

	status := "ok"
	if !result.Success {
		status = "failed: " + result.Error
		if d.metrics != nil {
			d.metrics.PartialSyncFailures.WithLabelValues(string(binding.Type), operation).Inc()
		}
		d.log.Warn("secondary sync failed",
			"client_id", client.ID.String(),
			"integration", string(binding.Type),
			"error", result.Error,
		)
		if d.alerter != nil {
			d.alerter.NotifyPartialSync(client, binding.Type, operation, errors.New(errors.KindUpstreamUnavailable, result.Error, nil))
		}
	}
	if d.recorder != nil && binding.IntegrationID != uuid.Nil {
		if err := d.recorder.RecordSyncStatus(ctx, binding.IntegrationID, status); err != nil {
			d.log.Error(err, "could not record sync status", "integration_id", binding.IntegrationID.String())
		}
	}
	return result
}

func (d *Dispatcher) CancelAppointment(ctx context.Context, client *model.Client, params model.CancelAppointmentParams) (*model.CancelAppointmentResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityAppointments)
	if err != nil {
		return nil, err
	}
	provider, ok := res.Primary.Provider.(integration.AppointmentProvider)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not implement appointments", nil)
	}
	started := time.Now()
	result, err := provider.CancelAppointment(ctx, res.Primary.Config, params)
	d.observe(res.Primary, "appointments.cancel", started, err)
	return result, err
}

func (d *Dispatcher) ConfirmAppointment(ctx context.Context, client *model.Client, params model.ConfirmAppointmentParams) (*model.AppointmentResult, error) {
	res, err := d.resolver.Resolve(client, model.CapabilityAppointments)
	if err != nil {
		return nil, err
	}
	confirmer, ok := res.Primary.Provider.(integration.AppointmentConfirmer)
	if !ok {
		return nil, errors.Configuration(string(res.Primary.Type)+" does not support appointment confirmation", nil)
	}
	started := time.Now()
	result, err := confirmer.ConfirmAppointment(ctx, res.Primary.Config, params)
	d.observe(res.Primary, "appointments.confirm", started, err)
	return result, err
}
