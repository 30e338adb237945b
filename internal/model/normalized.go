package model

// Normalized result shapes shared by every adapter. Fields a provider
// does not supply are left at their zero value (empty string, empty
// slice, false), never omitted, so callers can treat all providers
// uniformly.

type BranchResult struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	District string `json:"district"`
	Address  string `json:"address"`
	Enabled  bool   `json:"enabled"`
}

type ProfessionalResult struct {
	ID               int    `json:"id"`
	InternalID       string `json:"internalId"`
	Identifier       string `json:"identifier"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	FullName         string `json:"fullName"`
	Specialty        string `json:"specialty"`
	Interval         int    `json:"interval"`
	Branches         []int  `json:"branches"`
	Enabled          bool   `json:"enabled"`
	OnlineScheduling bool   `json:"onlineScheduling"`
}

type PatientResult struct {
	ID         int    `json:"id"`
	Identifier string `json:"identifier"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	BirthDate  string `json:"birthDate"`
	// ExternalRef carries the provider's native reference when it is
	// not numeric (e.g. a Reservo uuid). Empty for providers with
	// numeric identifiers only.
	ExternalRef string `json:"externalRef"`
}

type TreatmentResult struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Date         string `json:"date"`
	Professional string `json:"professional"`
	Notes        string `json:"notes"`
	ExternalRef  string `json:"externalRef"`
}

type AppointmentResult struct {
	ID             int    `json:"id"`
	PatientID      int    `json:"patientId"`
	ProfessionalID int    `json:"professionalId"`
	BranchID       int    `json:"branchId"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Duration       int    `json:"duration"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	ExternalRef    string `json:"externalRef"`
}

type CancelAppointmentResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AppointmentID int    `json:"appointmentId"`
}

// ProfessionalAvailability maps dates (YYYY-MM-DD) to open starting
// times (HH:MM) for one professional. A professional with no open
// slots gets an empty Dates map, never a missing entry.
type ProfessionalAvailability struct {
	ProfessionalID   int                 `json:"professionalId"`
	ProfessionalName string              `json:"professionalName"`
	Dates            map[string][]string `json:"dates"`
}

type AvailabilityResult struct {
	Availability []ProfessionalAvailability `json:"availability"`
	DateFrom     string                     `json:"dateFrom"`
	DateTo       string                     `json:"dateTo"`
	Message      string                     `json:"message,omitempty"`
}

// Parameter shapes for capability operations.

type SearchAvailabilityParams struct {
	ProfessionalIDs     []int  `json:"professionalIds"`
	BranchID            int    `json:"branchId"`
	StartDate           string `json:"startDate,omitempty"`
	AppointmentDuration int    `json:"appointmentDuration,omitempty"`
	Timezone            string `json:"timezone,omitempty"`
}

type SearchPatientParams struct {
	Identifier string `json:"identifier"`
}

type CreatePatientParams struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Identifier string `json:"identifier"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	BirthDate  string `json:"birthDate,omitempty"`
	BranchID   int    `json:"branchId,omitempty"`
}

type GetTreatmentsParams struct {
	PatientIdentifier string `json:"patientIdentifier"`
}

type ScheduleAppointmentParams struct {
	PatientIdentifier string `json:"patientIdentifier"`
	ProfessionalID    int    `json:"professionalId"`
	BranchID          int    `json:"branchId"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Duration          int    `json:"duration,omitempty"`
	TreatmentID       int    `json:"treatmentId,omitempty"`
	Notes             string `json:"notes,omitempty"`
	// ExternalUserID identifies the contact in a secondary CRM
	// (e.g. a GoHighLevel contact id) for dual-mode sync.
	ExternalUserID string `json:"externalUserId,omitempty"`
}

type CancelAppointmentParams struct {
	AppointmentID int `json:"appointmentId"`
	// ExternalRef is required by providers whose native appointment
	// reference is not numeric.
	ExternalRef string `json:"externalRef,omitempty"`
}

type ConfirmAppointmentParams struct {
	AppointmentID int    `json:"appointmentId"`
	ExternalRef   string `json:"externalRef,omitempty"`
}
