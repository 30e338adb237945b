package gohighlevel

// Wire shapes of the GoHighLevel (LeadConnector) REST API.

const (
	ghlBaseURL = "https://services.leadconnectorhq.com"

	// Version header values. Calendar event endpoints run on the older
	// API version.
	versionContacts  = "2021-07-28"
	versionCalendars = "2021-04-15"
)

type calendarsResponse struct {
	Calendars []wireCalendar `json:"calendars"`
}

type calendarResponse struct {
	Calendar wireCalendar `json:"calendar"`
}

type wireCalendar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TeamMembers []struct {
		UserID string `json:"userId"`
	} `json:"teamMembers"`
}

// freeSlotsResponse maps date (YYYY-MM-DD) to the day's open slots.
// The API also emits a traceId key, dropped on decode.
type freeSlotsResponse map[string]daySlots

type daySlots struct {
	Slots []string `json:"slots"`
}

type contactEnvelope struct {
	Contact wireContact `json:"contact"`
}

type wireContact struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth"`
}

type upsertContactPayload struct {
	LocationID   string        `json:"locationId,omitempty"`
	FirstName    string        `json:"firstName,omitempty"`
	LastName     string        `json:"lastName,omitempty"`
	Email        string        `json:"email,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	DateOfBirth  string        `json:"dateOfBirth,omitempty"`
	CustomFields []customField `json:"customFields,omitempty"`
}

type customField struct {
	Key        string `json:"key"`
	FieldValue string `json:"field_value"`
}

type createAppointmentPayload struct {
	Title                    string `json:"title"`
	AppointmentStatus        string `json:"appointmentStatus"`
	CalendarID               string `json:"calendarId"`
	LocationID               string `json:"locationId"`
	ContactID                string `json:"contactId"`
	AssignedUserID           string `json:"assignedUserId"`
	StartTime                string `json:"startTime"`
	EndTime                  string `json:"endTime"`
	OverrideLocationConfig   bool   `json:"overrideLocationConfig"`
	IgnoreDateRange          bool   `json:"ignoreDateRange"`
	IgnoreFreeSlotValidation bool   `json:"ignoreFreeSlotValidation"`
}

type wireAppointment struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"appointmentStatus"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	ContactID string `json:"contactId"`
}

type apiError struct {
	Message interface{} `json:"message"`
}
