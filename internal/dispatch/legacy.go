package dispatch

import (
	"fmt"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
)

// resolveLegacy translates a flat-config client into the equivalent
// multi-integration resolution: Dentalink as primary, GoHighLevel as
// secondary when its fields are set. The translation happens here, at
// the resolver boundary, so nothing downstream knows legacy clients
// exist.
func (r *Resolver) resolveLegacy(client *model.Client, capability model.IntegrationCapability) (*Resolution, error) {
	meta, err := r.registry.Metadata(model.TypeDentalink)
	if err != nil {
		return nil, err
	}
	if !meta.HasCapability(capability) {
		return nil, errors.Configuration(fmt.Sprintf("client %q has no integration with the %s capability", client.Name, capability), nil)
	}

	provider, err := r.registry.Get(model.TypeDentalink)
	if err != nil {
		return nil, err
	}
	config := model.IntegrationConfig{"apiKey": client.APIKey}
	if client.Timezone != "" {
		config["timezone"] = client.Timezone
	}
	resolution := &Resolution{Primary: Binding{
		Provider: provider,
		Type:     model.TypeDentalink,
		Config:   config,
	}}

	if client.GHLEnabled && client.GHLAccessToken != "" && capability == model.CapabilityAppointments {
		ghl, err := r.registry.Get(model.TypeGoHighLevel)
		if err == nil {
			resolution.Secondary = &Binding{
				Provider: ghl,
				Type:     model.TypeGoHighLevel,
				Config: model.IntegrationConfig{
					"accessToken": client.GHLAccessToken,
					"calendarId":  client.GHLCalendarID,
					"locationId":  client.GHLLocationID,
					"timezone":    client.Timezone,
				},
			}
		}
	}
	return resolution, nil
}
