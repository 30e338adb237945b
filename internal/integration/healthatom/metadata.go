package healthatom

import "github.com/agendalink/gateway/internal/model"

// Static adapter descriptions served by the registry. Both HealthAtom
// APIs share one field schema and one capability set.

var healthAtomCapabilities = []model.IntegrationCapability{
	model.CapabilityAvailability,
	model.CapabilityPatients,
	model.CapabilityAppointments,
	model.CapabilityClinicConfig,
	model.CapabilityTreatments,
}

func healthAtomFields() ([]model.FieldDefinition, []model.FieldDefinition) {
	required := []model.FieldDefinition{
		{
			Key:         "apiKey",
			Label:       "API Key",
			Kind:        model.FieldPassword,
			Description: "HealthAtom API token",
			Placeholder: "tok_...",
		},
	}
	optional := []model.FieldDefinition{
		{
			Key:         "timezone",
			Label:       "Timezone",
			Kind:        model.FieldString,
			Description: "IANA timezone used for availability filtering",
			Default:     defaultTimezone,
		},
		{
			Key:         "confirmedStateId",
			Label:       "Confirmed state ID",
			Kind:        model.FieldNumber,
			Description: "Appointment state applied on confirmation",
		},
	}
	return required, optional
}

func dentalinkMetadata() model.IntegrationMetadata {
	required, optional := healthAtomFields()
	return model.IntegrationMetadata{
		Type:           model.TypeDentalink,
		Name:           "Dentalink",
		Description:    "Dental clinic management by HealthAtom",
		Logo:           "dentalink.svg",
		Capabilities:   healthAtomCapabilities,
		RequiredFields: required,
		OptionalFields: optional,
	}
}

func medilinkMetadata() model.IntegrationMetadata {
	required, optional := healthAtomFields()
	return model.IntegrationMetadata{
		Type:           model.TypeMedilink,
		Name:           "Medilink",
		Description:    "Medical clinic management by HealthAtom",
		Logo:           "medilink.svg",
		Capabilities:   healthAtomCapabilities,
		RequiredFields: required,
		OptionalFields: optional,
	}
}

func dualMetadata() model.IntegrationMetadata {
	required, optional := healthAtomFields()
	return model.IntegrationMetadata{
		Type:           model.TypeDentalinkMedilink,
		Name:           "Dentalink + Medilink",
		Description:    "Both HealthAtom APIs behind one key, Dentalink first with Medilink fallback",
		Logo:           "healthatom.svg",
		Capabilities:   healthAtomCapabilities,
		RequiredFields: required,
		OptionalFields: optional,
	}
}

func healthAtomEndpoints(typ model.IntegrationType) []model.IntegrationEndpoint {
	return []model.IntegrationEndpoint{
		{
			ID:          string(typ) + ".availability.search",
			Name:        "Search availability",
			Description: "Open slots per professional over a seven day window",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/availability/search",
			Category:    "availability",
			Arguments: []model.EndpointArgument{
				{Name: "professionalIds", Type: "number[]", Description: "Professional ids to query", Required: true, Example: []int{10}},
				{Name: "branchId", Type: "number", Description: "Branch id", Required: true, Example: 1},
				{Name: "startDate", Type: "string", Description: "Window start, YYYY-MM-DD, defaults to today", Required: false},
				{Name: "appointmentDuration", Type: "number", Description: "Minutes needed, filters short runs", Required: false, Example: 30},
			},
		},
		{
			ID:          string(typ) + ".patients.search",
			Name:        "Search patient",
			Description: "Look a patient up by RUT",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/patients/search",
			Category:    "patients",
			Arguments: []model.EndpointArgument{
				{Name: "identifier", Type: "string", Description: "Patient RUT", Required: true, Example: "12345678-9"},
			},
		},
		{
			ID:          string(typ) + ".patients.create",
			Name:        "Create patient",
			Description: "Register a patient, returning the existing record on a duplicate RUT",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/patients",
			Category:    "patients",
			Arguments: []model.EndpointArgument{
				{Name: "firstName", Type: "string", Description: "Given name", Required: true},
				{Name: "lastName", Type: "string", Description: "Family name", Required: true},
				{Name: "identifier", Type: "string", Description: "Patient RUT", Required: true},
				{Name: "phone", Type: "string", Description: "Mobile phone", Required: false},
				{Name: "email", Type: "string", Description: "Email address", Required: false},
				{Name: "birthDate", Type: "string", Description: "YYYY-MM-DD", Required: false},
			},
		},
		{
			ID:          string(typ) + ".appointments.schedule",
			Name:        "Schedule appointment",
			Description: "Book an appointment for an existing patient",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/appointments",
			Category:    "appointments",
			Arguments: []model.EndpointArgument{
				{Name: "patientIdentifier", Type: "string", Description: "Patient RUT", Required: true, Example: "12345678-9"},
				{Name: "professionalId", Type: "number", Description: "Professional id", Required: true, Example: 10},
				{Name: "branchId", Type: "number", Description: "Branch id", Required: true, Example: 1},
				{Name: "date", Type: "string", Description: "YYYY-MM-DD", Required: true},
				{Name: "time", Type: "string", Description: "HH:MM", Required: true},
				{Name: "duration", Type: "number", Description: "Minutes, defaults to the professional's interval", Required: false},
			},
		},
		{
			ID:          string(typ) + ".appointments.cancel",
			Name:        "Cancel appointment",
			Description: "Cancel an appointment by id",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/appointments/{appointmentId}/cancel",
			Category:    "appointments",
			Arguments: []model.EndpointArgument{
				{Name: "appointmentId", Type: "number", Description: "Appointment id", Required: true},
			},
		},
		{
			ID:          string(typ) + ".appointments.confirm",
			Name:        "Confirm appointment",
			Description: "Confirm an appointment by id",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/appointments/{appointmentId}/confirm",
			Category:    "appointments",
			Arguments: []model.EndpointArgument{
				{Name: "appointmentId", Type: "number", Description: "Appointment id", Required: true},
			},
		},
		{
			ID:          string(typ) + ".treatments.list",
			Name:        "List patient treatments",
			Description: "Treatments or attentions registered for a patient",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/treatments",
			Category:    "treatments",
			Arguments: []model.EndpointArgument{
				{Name: "patientIdentifier", Type: "string", Description: "Patient RUT", Required: true},
			},
		},
		{
			ID:          string(typ) + ".clinic.branches",
			Name:        "List branches",
			Description: "Branch directory",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/clinic/branches",
			Category:    "clinic_config",
		},
		{
			ID:          string(typ) + ".clinic.professionals",
			Name:        "List professionals",
			Description: "Professional directory, optionally filtered by branch",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/clinic/professionals",
			Category:    "clinic_config",
			Arguments: []model.EndpointArgument{
				{Name: "branchId", Type: "number", Description: "Restrict to one branch", Required: false},
			},
		},
	}
}
