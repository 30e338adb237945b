// Package integration defines the capability contracts every concrete
// provider adapter may implement, and the registry that catalogs them.
package integration

import (
	"context"

	"github.com/agendalink/gateway/internal/model"
)

// Provider is the base contract every adapter implements. Adapters are
// stateless beyond the config injected per call: one instance serves
// every client configured for its integration type.
type Provider interface {
	// Type returns the adapter's integration type tag.
	Type() model.IntegrationType

	// Metadata returns the adapter's static description: capability
	// set and configuration field schema.
	Metadata() model.IntegrationMetadata

	// Endpoints returns the declarative endpoint catalog consumed by
	// the UI for documentation.
	Endpoints() []model.IntegrationEndpoint

	// TestConnection performs a cheap read-only probe with the given
	// credentials.
	TestConnection(ctx context.Context, config model.IntegrationConfig) (*model.ConnectionStatus, error)
}

// AvailabilityProvider searches open appointment slots.
type AvailabilityProvider interface {
	// SearchAvailability returns one ProfessionalAvailability entry
	// per requested professional id, with an empty date map when a
	// professional has no open slots.
	SearchAvailability(ctx context.Context, config model.IntegrationConfig, params model.SearchAvailabilityParams) (*model.AvailabilityResult, error)
}

// PatientProvider looks up and creates patients.
type PatientProvider interface {
	// SearchPatient returns a NotFound error kind when no patient
	// matches the identifier.
	SearchPatient(ctx context.Context, config model.IntegrationConfig, params model.SearchPatientParams) (*model.PatientResult, error)
	CreatePatient(ctx context.Context, config model.IntegrationConfig, params model.CreatePatientParams) (*model.PatientResult, error)
}

// TreatmentProvider lists a patient's treatments. Gated by the
// treatments capability: callers check the capability set before
// asserting this interface.
type TreatmentProvider interface {
	GetPatientTreatments(ctx context.Context, config model.IntegrationConfig, params model.GetTreatmentsParams) ([]model.TreatmentResult, error)
}

// AppointmentProvider schedules and cancels appointments.
// ScheduleAppointment is never retried by the dispatch layer: retrying
// a create against a flaky upstream risks duplicate bookings.
type AppointmentProvider interface {
	ScheduleAppointment(ctx context.Context, config model.IntegrationConfig, params model.ScheduleAppointmentParams) (*model.AppointmentResult, error)
	CancelAppointment(ctx context.Context, config model.IntegrationConfig, params model.CancelAppointmentParams) (*model.CancelAppointmentResult, error)
}

// AppointmentConfirmer confirms appointments. Optional: an adapter
// advertising the appointments capability may or may not implement
// it; callers check with CanConfirm before asserting.
type AppointmentConfirmer interface {
	ConfirmAppointment(ctx context.Context, config model.IntegrationConfig, params model.ConfirmAppointmentParams) (*model.AppointmentResult, error)
}

// ClinicProvider exposes the clinic directory.
type ClinicProvider interface {
	GetBranches(ctx context.Context, config model.IntegrationConfig) ([]model.BranchResult, error)
	GetProfessionals(ctx context.Context, config model.IntegrationConfig) ([]model.ProfessionalResult, error)
	// GetProfessionalsByBranch filters consistently with the Branches
	// field reported by GetProfessionals.
	GetProfessionalsByBranch(ctx context.Context, config model.IntegrationConfig, branchID int) ([]model.ProfessionalResult, error)
}

// CanConfirm reports whether p supports appointment confirmation.
func CanConfirm(p Provider) bool {
	_, ok := p.(AppointmentConfirmer)
	return ok && p.Metadata().HasCapability(model.CapabilityAppointments)
}

// CanListTreatments reports whether p supports treatment listing.
func CanListTreatments(p Provider) bool {
	_, ok := p.(TreatmentProvider)
	return ok && p.Metadata().HasCapability(model.CapabilityTreatments)
}
