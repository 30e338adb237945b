package integration

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/agendalink/gateway/internal/model"
	apperrors "github.com/agendalink/gateway/pkg/errors"
)

// Registry is the process-wide catalog of available integrations.
// Built once at startup and never mutated afterwards, so concurrent
// reads need no synchronization.
type Registry struct {
	providers map[model.IntegrationType]Provider
	order     []model.IntegrationType
}

// NewRegistry collects the given adapters into an immutable catalog.
// Registration fails for adapters with an empty capability set or a
// declared capability without the matching interface.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make(map[model.IntegrationType]Provider, len(providers)),
	}
	for _, p := range providers {
		if err := r.register(p); err != nil {
			return nil, err
		}
	}
	log.Info().Int("integrations", len(r.providers)).Msg("integration registry built")
	return r, nil
}

func (r *Registry) register(p Provider) error {
	meta := p.Metadata()
	if meta.Type == "" || meta.Type != p.Type() {
		return fmt.Errorf("integration %q: metadata type mismatch", p.Type())
	}
	if _, exists := r.providers[meta.Type]; exists {
		return fmt.Errorf("integration %q registered twice", meta.Type)
	}
	if len(meta.Capabilities) == 0 {
		return fmt.Errorf("integration %q declares no capabilities", meta.Type)
	}
	for _, cap := range meta.Capabilities {
		if !implementsCapability(p, cap) {
			return fmt.Errorf("integration %q declares %q without implementing it", meta.Type, cap)
		}
	}

	r.providers[meta.Type] = p
	r.order = append(r.order, meta.Type)
	log.Info().Str("integration", string(meta.Type)).Msg("integration registered")
	return nil
}

func implementsCapability(p Provider, cap model.IntegrationCapability) bool {
	switch cap {
	case model.CapabilityAvailability:
		_, ok := p.(AvailabilityProvider)
		return ok
	case model.CapabilityPatients:
		_, ok := p.(PatientProvider)
		return ok
	case model.CapabilityAppointments:
		_, ok := p.(AppointmentProvider)
		return ok
	case model.CapabilityClinicConfig:
		_, ok := p.(ClinicProvider)
		return ok
	case model.CapabilityTreatments:
		_, ok := p.(TreatmentProvider)
		return ok
	default:
		return false
	}
}

// Get returns the adapter for the given type.
func (r *Registry) Get(t model.IntegrationType) (Provider, error) {
	p, ok := r.providers[t]
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("integration %q", t), nil)
	}
	return p, nil
}

// Metadata returns the metadata for the given type.
func (r *Registry) Metadata(t model.IntegrationType) (model.IntegrationMetadata, error) {
	p, err := r.Get(t)
	if err != nil {
		return model.IntegrationMetadata{}, err
	}
	return p.Metadata(), nil
}

// AllMetadata returns every registered integration's metadata in
// registration order.
func (r *Registry) AllMetadata() []model.IntegrationMetadata {
	out := make([]model.IntegrationMetadata, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.providers[t].Metadata())
	}
	return out
}

// ByCapability returns metadata of integrations advertising cap.
func (r *Registry) ByCapability(cap model.IntegrationCapability) []model.IntegrationMetadata {
	var out []model.IntegrationMetadata
	for _, t := range r.order {
		meta := r.providers[t].Metadata()
		if meta.HasCapability(cap) {
			out = append(out, meta)
		}
	}
	return out
}

// Endpoints returns the declarative endpoint catalog for the type.
func (r *Registry) Endpoints(t model.IntegrationType) ([]model.IntegrationEndpoint, error) {
	p, err := r.Get(t)
	if err != nil {
		return nil, err
	}
	return p.Endpoints(), nil
}

// ValidateConfig checks that every required field of the integration's
// schema is present and non-empty. Violations are configuration
// errors, reported with field-level messages.
func (r *Registry) ValidateConfig(t model.IntegrationType, config model.IntegrationConfig) error {
	meta, err := r.Metadata(t)
	if err != nil {
		return err
	}

	var missing []string
	for _, field := range meta.RequiredFields {
		v, ok := config[field.Key]
		if !ok || v == nil || v == "" {
			missing = append(missing, field.Label)
		}
	}
	if len(missing) > 0 {
		msg := fmt.Sprintf("integration %q is missing required fields: %s", t, strings.Join(missing, ", "))
		return apperrors.Configuration(msg, nil)
	}
	return nil
}
