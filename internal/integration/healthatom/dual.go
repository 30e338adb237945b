package healthatom

import (
	"context"
	stderrors "errors"

	"github.com/rs/zerolog/log"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
)

// DualAdapter serves clinics whose single HealthAtom key spans both
// products. Every operation goes to Dentalink first and falls back to
// Medilink, except when Dentalink returns a business rejection: the
// sibling API would refuse the same request, so fallback stops there.
// A 412 (branch not served) and a 404 do continue to the sibling.
type DualAdapter struct {
	dentalink *Adapter
	medilink  *Adapter
	meta      model.IntegrationMetadata
	endpoints []model.IntegrationEndpoint
}

// NewDual composes the two single-API adapters.
func NewDual(dentalink, medilink *Adapter) *DualAdapter {
	return &DualAdapter{
		dentalink: dentalink,
		medilink:  medilink,
		meta:      dualMetadata(),
		endpoints: healthAtomEndpoints(model.TypeDentalinkMedilink),
	}
}

func (d *DualAdapter) Type() model.IntegrationType { return model.TypeDentalinkMedilink }

func (d *DualAdapter) Metadata() model.IntegrationMetadata { return d.meta }

func (d *DualAdapter) Endpoints() []model.IntegrationEndpoint { return d.endpoints }

// stopFallback reports whether err rules out trying the sibling API.
func stopFallback(err error) bool {
	if stderrors.Is(err, errBranchUnsupported) {
		return false
	}
	return errors.IsKind(err, errors.KindUpstreamRejected)
}

func tryBoth[T any](d *DualAdapter, op string, fn func(a *Adapter) (T, error)) (T, error) {
	out, err := fn(d.dentalink)
	if err == nil {
		return out, nil
	}
	if stopFallback(err) {
		return out, err
	}
	log.Debug().Err(err).Str("operation", op).Msg("dentalink failed, trying medilink")
	return fn(d.medilink)
}

func (d *DualAdapter) TestConnection(ctx context.Context, config model.IntegrationConfig) (*model.ConnectionStatus, error) {
	status, err := d.dentalink.TestConnection(ctx, config)
	if err == nil && status.Success {
		return status, nil
	}
	return d.medilink.TestConnection(ctx, config)
}

// GetBranches merges the directories of both APIs, first id wins.
func (d *DualAdapter) GetBranches(ctx context.Context, config model.IntegrationConfig) ([]model.BranchResult, error) {
	var merged []model.BranchResult
	seen := make(map[int]bool)
	var lastErr error
	for _, a := range []*Adapter{d.dentalink, d.medilink} {
		branches, err := a.GetBranches(ctx, config)
		if err != nil {
			lastErr = err
			continue
		}
		for _, b := range branches {
			if !seen[b.ID] {
				seen[b.ID] = true
				merged = append(merged, b)
			}
		}
	}
	if len(merged) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, errors.UpstreamUnavailable("healthatom", nil)
	}
	return merged, nil
}

// GetProfessionals merges the directories of both APIs, first id wins.
func (d *DualAdapter) GetProfessionals(ctx context.Context, config model.IntegrationConfig) ([]model.ProfessionalResult, error) {
	var merged []model.ProfessionalResult
	seen := make(map[int]bool)
	var lastErr error
	for _, a := range []*Adapter{d.dentalink, d.medilink} {
		profs, err := a.GetProfessionals(ctx, config)
		if err != nil {
			lastErr = err
			continue
		}
		for _, p := range profs {
			if !seen[p.ID] {
				seen[p.ID] = true
				merged = append(merged, p)
			}
		}
	}
	if len(merged) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, errors.UpstreamUnavailable("healthatom", nil)
	}
	return merged, nil
}

func (d *DualAdapter) GetProfessionalsByBranch(ctx context.Context, config model.IntegrationConfig, branchID int) ([]model.ProfessionalResult, error) {
	all, err := d.GetProfessionals(ctx, config)
	if err != nil {
		return nil, err
	}
	out := make([]model.ProfessionalResult, 0, len(all))
	for _, p := range all {
		for _, b := range p.Branches {
			if b == branchID {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (d *DualAdapter) SearchAvailability(ctx context.Context, config model.IntegrationConfig, params model.SearchAvailabilityParams) (*model.AvailabilityResult, error) {
	result, err := tryBoth(d, "availability.search", func(a *Adapter) (*model.AvailabilityResult, error) {
		res, err := a.SearchAvailability(ctx, config, params)
		if err != nil {
			return nil, err
		}
		// An all-empty answer from Dentalink usually means the clinic
		// lives on Medilink; treat it as a miss so fallback happens.
		if !hasOpenSlots(res) {
			return res, errors.NotFound("availability", nil)
		}
		return res, nil
	})
	if err != nil && errors.IsKind(err, errors.KindNotFound) && result != nil {
		// Neither API had open slots; empty entries are still a valid
		// answer, one per requested professional.
		return result, nil
	}
	return result, err
}

func hasOpenSlots(res *model.AvailabilityResult) bool {
	for _, entry := range res.Availability {
		if len(entry.Dates) > 0 {
			return true
		}
	}
	return false
}

func (d *DualAdapter) SearchPatient(ctx context.Context, config model.IntegrationConfig, params model.SearchPatientParams) (*model.PatientResult, error) {
	return tryBoth(d, "patients.search", func(a *Adapter) (*model.PatientResult, error) {
		return a.SearchPatient(ctx, config, params)
	})
}

func (d *DualAdapter) CreatePatient(ctx context.Context, config model.IntegrationConfig, params model.CreatePatientParams) (*model.PatientResult, error) {
	return tryBoth(d, "patients.create", func(a *Adapter) (*model.PatientResult, error) {
		return a.CreatePatient(ctx, config, params)
	})
}

func (d *DualAdapter) GetPatientTreatments(ctx context.Context, config model.IntegrationConfig, params model.GetTreatmentsParams) ([]model.TreatmentResult, error) {
	return tryBoth(d, "treatments.list", func(a *Adapter) ([]model.TreatmentResult, error) {
		return a.GetPatientTreatments(ctx, config, params)
	})
}

func (d *DualAdapter) ScheduleAppointment(ctx context.Context, config model.IntegrationConfig, params model.ScheduleAppointmentParams) (*model.AppointmentResult, error) {
	return tryBoth(d, "appointments.schedule", func(a *Adapter) (*model.AppointmentResult, error) {
		return a.ScheduleAppointment(ctx, config, params)
	})
}

func (d *DualAdapter) CancelAppointment(ctx context.Context, config model.IntegrationConfig, params model.CancelAppointmentParams) (*model.CancelAppointmentResult, error) {
	return tryBoth(d, "appointments.cancel", func(a *Adapter) (*model.CancelAppointmentResult, error) {
		return a.CancelAppointment(ctx, config, params)
	})
}

func (d *DualAdapter) ConfirmAppointment(ctx context.Context, config model.IntegrationConfig, params model.ConfirmAppointmentParams) (*model.AppointmentResult, error) {
	return tryBoth(d, "appointments.confirm", func(a *Adapter) (*model.AppointmentResult, error) {
		return a.ConfirmAppointment(ctx, config, params)
	})
}
