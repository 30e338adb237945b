// Package dispatch routes capability operations to the right adapter
// for a client: a single primary for reads, primary plus best-effort
// secondary for dual-mode writes.
package dispatch

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/agendalink/gateway/internal/integration"
	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
	"github.com/agendalink/gateway/pkg/metrics"
)

// Binding pairs an adapter with the per-client config it runs under.
// IntegrationID is zero for legacy clients, which have no integration
// rows to record sync state on.
type Binding struct {
	Provider      integration.Provider
	Type          model.IntegrationType
	Config        model.IntegrationConfig
	IntegrationID uuid.UUID
}

// Resolution is the outcome of resolving a client + capability pair.
// Reads use Primary only; dual-mode writes also attempt Secondary.
type Resolution struct {
	Primary   Binding
	Secondary *Binding
}

type Resolver struct {
	registry *integration.Registry
	metrics  *metrics.Metrics
}

func NewResolver(registry *integration.Registry, m *metrics.Metrics) *Resolver {
	return &Resolver{registry: registry, metrics: m}
}

// Resolve picks the client's integrations for a capability. It fails
// with a configuration error before any network call when the client
// has no enabled integration advertising the capability, or when a
// candidate's config is missing required fields.
func (r *Resolver) Resolve(client *model.Client, capability model.IntegrationCapability) (*Resolution, error) {
	res, err := r.resolve(client, capability)
	if r.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = errors.KindOf(err).String()
		}
		r.metrics.DispatchResolutions.WithLabelValues(string(capability), outcome).Inc()
	}
	return res, err
}

func (r *Resolver) resolve(client *model.Client, capability model.IntegrationCapability) (*Resolution, error) {
	if client.IsLegacy() {
		return r.resolveLegacy(client, capability)
	}

	var primary, secondary *model.ClientIntegration
	for _, ci := range client.EnabledIntegrations() {
		meta, err := r.registry.Metadata(ci.IntegrationType)
		if err != nil {
			return nil, errors.Configuration(fmt.Sprintf("client %q references unknown integration %q", client.Name, ci.IntegrationType), err)
		}
		if !meta.HasCapability(capability) {
			continue
		}
		switch ci.Role {
		case model.RoleSecondary:
			if secondary == nil {
				secondary = ci
			}
		default:
			if primary == nil {
				primary = ci
			}
		}
	}
	if primary == nil {
		return nil, errors.Configuration(fmt.Sprintf("client %q has no integration with the %s capability", client.Name, capability), nil)
	}

	primaryBinding, err := r.bind(primary)
	if err != nil {
		return nil, err
	}
	resolution := &Resolution{Primary: *primaryBinding}

	if secondary != nil {
		secondaryBinding, err := r.bind(secondary)
		if err != nil {
			return nil, err
		}
		resolution.Secondary = secondaryBinding
	}
	return resolution, nil
}

func (r *Resolver) bind(ci *model.ClientIntegration) (*Binding, error) {
	if err := r.registry.ValidateConfig(ci.IntegrationType, ci.Config); err != nil {
		return nil, err
	}
	provider, err := r.registry.Get(ci.IntegrationType)
	if err != nil {
		return nil, err
	}
	return &Binding{
		Provider:      provider,
		Type:          ci.IntegrationType,
		Config:        ci.Config,
		IntegrationID: ci.ID,
	}, nil
}
