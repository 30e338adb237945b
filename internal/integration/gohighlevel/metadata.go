package gohighlevel

import "github.com/agendalink/gateway/internal/model"

func metadata() model.IntegrationMetadata {
	return model.IntegrationMetadata{
		Type:        model.TypeGoHighLevel,
		Name:        "GoHighLevel",
		Description: "CRM calendar sync via LeadConnector",
		Logo:        "gohighlevel.svg",
		Capabilities: []model.IntegrationCapability{
			model.CapabilityAvailability,
			model.CapabilityPatients,
			model.CapabilityAppointments,
		},
		RequiredFields: []model.FieldDefinition{
			{
				Key:         "accessToken",
				Label:       "Access Token",
				Kind:        model.FieldPassword,
				Description: "Private integration token",
			},
			{
				Key:         "calendarId",
				Label:       "Calendar ID",
				Kind:        model.FieldString,
				Description: "Calendar receiving appointments",
			},
			{
				Key:         "locationId",
				Label:       "Location ID",
				Kind:        model.FieldString,
				Description: "Sub-account location",
			},
		},
		OptionalFields: []model.FieldDefinition{
			{
				Key:     "timezone",
				Label:   "Timezone",
				Kind:    model.FieldString,
				Default: defaultTimezone,
			},
		},
	}
}

func endpoints() []model.IntegrationEndpoint {
	return []model.IntegrationEndpoint{
		{
			ID:          "gohighlevel.availability.search",
			Name:        "Search availability",
			Description: "Calendar free slots over a seven day window",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/availability/search",
			Category:    "availability",
			Arguments: []model.EndpointArgument{
				{Name: "startDate", Type: "string", Description: "Window start, YYYY-MM-DD", Required: false},
			},
		},
		{
			ID:          "gohighlevel.patients.search",
			Name:        "Get contact",
			Description: "Look a contact up by its id",
			Method:      "GET",
			Path:        "/api/v1/clients/{clientId}/patients/search",
			Category:    "patients",
			Arguments: []model.EndpointArgument{
				{Name: "identifier", Type: "string", Description: "Contact id", Required: true},
			},
		},
		{
			ID:          "gohighlevel.patients.create",
			Name:        "Create contact",
			Description: "Create a contact in the configured location",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/patients",
			Category:    "patients",
			Arguments: []model.EndpointArgument{
				{Name: "firstName", Type: "string", Description: "Given name", Required: true},
				{Name: "lastName", Type: "string", Description: "Family name", Required: false},
				{Name: "email", Type: "string", Description: "Email address", Required: false},
				{Name: "phone", Type: "string", Description: "Phone number", Required: false},
			},
		},
		{
			ID:          "gohighlevel.appointments.schedule",
			Name:        "Create appointment",
			Description: "Book a calendar event for a contact",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/appointments",
			Category:    "appointments",
			Arguments: []model.EndpointArgument{
				{Name: "externalUserId", Type: "string", Description: "Contact id", Required: true},
				{Name: "date", Type: "string", Description: "YYYY-MM-DD", Required: true},
				{Name: "time", Type: "string", Description: "HH:MM", Required: true},
				{Name: "duration", Type: "number", Description: "Minutes, defaults to 30", Required: false},
			},
		},
		{
			ID:          "gohighlevel.appointments.cancel",
			Name:        "Delete appointment",
			Description: "Delete a calendar event",
			Method:      "POST",
			Path:        "/api/v1/clients/{clientId}/appointments/{appointmentId}/cancel",
			Category:    "appointments",
			Arguments: []model.EndpointArgument{
				{Name: "externalRef", Type: "string", Description: "Event id", Required: true},
			},
		},
	}
}
