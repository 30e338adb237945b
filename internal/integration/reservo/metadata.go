package reservo

import "github.com/agendalink/gateway/internal/model"

func metadata() model.IntegrationMetadata {
	return model.IntegrationMetadata{
		Type:        model.TypeReservo,
		Name:        "Reservo",
		Description: "Online scheduling for health clinics (reservo.cl)",
		Logo:        "reservo.svg",
		Capabilities: []model.IntegrationCapability{
			model.CapabilityAvailability,
			model.CapabilityPatients,
			model.CapabilityAppointments,
			model.CapabilityClinicConfig,
			model.CapabilityTreatments,
		},
		RequiredFields: []model.FieldDefinition{
			{
				Key:         "apiToken",
				Label:       "API Token",
				Kind:        model.FieldPassword,
				Description: "Reservo public API token",
			},
			{
				Key:         "agendas",
				Label:       "Agendas",
				Kind:        model.FieldArray,
				Description: "Bookable agendas: id, name, uuid, kind (presencial/online)",
			},
		},
		OptionalFields: []model.FieldDefinition{
			{
				Key:         "timezone",
				Label:       "Timezone",
				Kind:        model.FieldString,
				Default:     defaultTimezone,
				Description: "IANA timezone sent on appointment creation",
			},
			{
				Key:         "defaultTreatmentUuid",
				Label:       "Default treatment UUID",
				Kind:        model.FieldString,
				Description: "Treatment used when a request names none; first catalog entry otherwise",
			},
		},
	}
}

func endpoints() []model.IntegrationEndpoint {
	return []model.IntegrationEndpoint{
		{
			ID:          "reservo.availability.search",
			Name:        "Search availability",
			Description: "Weekly open hours per professional on the configured agenda",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/availability/search",
			Category:    "availability",
			Arguments: []model.EndpointArgument{
				{Name: "professionalIds", Type: "number[]", Description: "Professional positions in the agenda listing", Required: false},
				{Name: "startDate", Type: "string", Description: "Week start, YYYY-MM-DD", Required: false},
			},
		},
		{
			ID:          "reservo.patients.search",
			Name:        "Search patient",
			Description: "Look a patient up by identifier, email or name",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/patients/search",
			Category:    "patients",
			Arguments: []model.EndpointArgument{
				{Name: "identifier", Type: "string", Description: "RUT, email or full name", Required: true},
			},
		},
		{
			ID:          "reservo.patients.create",
			Name:        "Create patient",
			Description: "Register a patient",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/patients",
			Category:    "patients",
			Arguments: []model.EndpointArgument{
				{Name: "firstName", Type: "string", Description: "Given name", Required: true},
				{Name: "lastName", Type: "string", Description: "Family name", Required: false},
				{Name: "identifier", Type: "string", Description: "RUT or other identifier", Required: true},
			},
		},
		{
			ID:          "reservo.appointments.schedule",
			Name:        "Schedule appointment",
			Description: "Book an appointment on the configured agenda",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/appointments",
			Category:    "appointments",
			Arguments: []model.EndpointArgument{
				{Name: "patientIdentifier", Type: "string", Description: "Patient RUT, email or name", Required: true},
				{Name: "professionalId", Type: "number", Description: "Professional position in the agenda listing", Required: true},
				{Name: "branchId", Type: "number", Description: "Branch position, defaults to the first", Required: false},
				{Name: "date", Type: "string", Description: "YYYY-MM-DD", Required: true},
				{Name: "time", Type: "string", Description: "HH:MM", Required: true},
			},
		},
		{
			ID:          "reservo.appointments.cancel",
			Name:        "Cancel appointment",
			Description: "Suspend an appointment by its uuid",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/appointments/{appointmentId}/cancel",
			Category:    "appointments",
			Arguments: []model.EndpointArgument{
				{Name: "externalRef", Type: "string", Description: "Appointment uuid", Required: true},
			},
		},
		{
			ID:          "reservo.appointments.confirm",
			Name:        "Confirm appointment",
			Description: "Confirm an appointment by its uuid",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/appointments/{appointmentId}/confirm",
			Category:    "appointments",
			Arguments: []model.EndpointArgument{
				{Name: "externalRef", Type: "string", Description: "Appointment uuid", Required: true},
			},
		},
		{
			ID:          "reservo.treatments.list",
			Name:        "List patient treatments",
			Description: "Treatments attached to the patient's appointments",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/treatments",
			Category:    "treatments",
			Arguments: []model.EndpointArgument{
				{Name: "patientIdentifier", Type: "string", Description: "Patient RUT, email or name", Required: true},
			},
		},
		{
			ID:          "reservo.clinic.branches",
			Name:        "List branches",
			Description: "Branches of the configured agenda",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/clinic/branches",
			Category:    "clinic_config",
		},
		{
			ID:          "reservo.clinic.professionals",
			Name:        "List professionals",
			Description: "Professionals of the configured agenda",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/clinic/professionals",
			Category:    "clinic_config",
		},
	}
}
