package model

import "strconv"

// IntegrationType identifies a concrete adapter family.
type IntegrationType string

const (
	TypeDentalink IntegrationType = "dentalink"
	TypeMedilink  IntegrationType = "medilink"
	// TypeDentalinkMedilink composes both HealthAtom APIs behind a
	// single adapter: Dentalink first, Medilink as fallback.
	TypeDentalinkMedilink IntegrationType = "dentalink_medilink"
	TypeReservo           IntegrationType = "reservo"
	TypeGoHighLevel       IntegrationType = "gohighlevel"
)

// IntegrationCapability is a named category of operations an adapter
// may support.
type IntegrationCapability string

const (
	CapabilityAvailability IntegrationCapability = "availability"
	CapabilityPatients     IntegrationCapability = "patients"
	CapabilityAppointments IntegrationCapability = "appointments"
	CapabilityClinicConfig IntegrationCapability = "clinic_config"
	CapabilityTreatments   IntegrationCapability = "treatments"
)

// IntegrationRole designates an integration's place in dual-mode
// dispatch. The role is stored per client integration, never inferred
// from ordering.
type IntegrationRole string

const (
	RolePrimary   IntegrationRole = "primary"
	RoleSecondary IntegrationRole = "secondary"
)

// FieldKind is the value kind of a configuration field.
type FieldKind string

const (
	FieldString   FieldKind = "string"
	FieldNumber   FieldKind = "number"
	FieldBoolean  FieldKind = "boolean"
	FieldSelect   FieldKind = "select"
	FieldPassword FieldKind = "password"
	FieldArray    FieldKind = "array"
)

// FieldOption is one choice of a select field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDefinition describes one configuration field of an integration.
type FieldDefinition struct {
	Key         string        `json:"key"`
	Label       string        `json:"label"`
	Kind        FieldKind     `json:"type"`
	Description string        `json:"description,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Default     interface{}   `json:"defaultValue,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
}

// IntegrationMetadata is the static, immutable description of an
// adapter. Constructed once per adapter at startup and read by the
// registry and configuration UIs.
type IntegrationMetadata struct {
	Type           IntegrationType         `json:"type"`
	Name           string                  `json:"name"`
	Description    string                  `json:"description"`
	Logo           string                  `json:"logo,omitempty"`
	Capabilities   []IntegrationCapability `json:"capabilities"`
	RequiredFields []FieldDefinition       `json:"requiredFields"`
	OptionalFields []FieldDefinition       `json:"optionalFields"`
}

// HasCapability reports whether the metadata advertises cap.
func (m IntegrationMetadata) HasCapability(cap IntegrationCapability) bool {
	for _, c := range m.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// EndpointArgument documents one argument of a catalog endpoint.
type EndpointArgument struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Example     interface{} `json:"example,omitempty"`
}

// IntegrationEndpoint is a declarative endpoint description consumed by
// the UI for documentation and URL generation. Not used for routing.
type IntegrationEndpoint struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Method      string             `json:"method"`
	Path        string             `json:"path"`
	Category    string             `json:"category"`
	Arguments   []EndpointArgument `json:"arguments"`
}

// IntegrationConfig is the open key/value configuration of one enabled
// integration. Its schema is defined by the owning adapter's metadata.
// Configs are read-only snapshots passed into each adapter call.
type IntegrationConfig map[string]interface{}

// GetString returns the string value for key, "" when absent.
func (c IntegrationConfig) GetString(key string) string {
	if v, ok := c[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetBool returns the boolean value for key, false when absent.
func (c IntegrationConfig) GetBool(key string) bool {
	if v, ok := c[key]; ok {
		switch b := v.(type) {
		case bool:
			return b
		case string:
			return b == "true"
		}
	}
	return false
}

// GetInt returns the numeric value for key, 0 when absent. JSON
// decoding yields float64 for numbers, so both forms are accepted.
func (c IntegrationConfig) GetInt(key string) int {
	switch v := c[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// ConnectionStatus is the outcome of a cheap read-only probe against
// an integration's upstream.
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DualResult wraps the outcome of an operation attempted against a
// secondary provider, where failure must not abort the primary flow.
type DualResult[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
