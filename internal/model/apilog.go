package model

import (
	"time"

	"github.com/google/uuid"
)

// APILog is one recorded gateway call for a client. Logs are an
// append-only audit trail; nothing reads them back into dispatch.
type APILog struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ClientID        uuid.UUID       `json:"clientId" db:"client_id"`
	IntegrationType IntegrationType `json:"integrationType,omitempty" db:"integration_type"`
	Operation       string          `json:"operation" db:"operation"`
	Method          string          `json:"method" db:"method"`
	Path            string          `json:"path" db:"path"`
	StatusCode      int             `json:"statusCode" db:"status_code"`
	DurationMs      int64           `json:"durationMs" db:"duration_ms"`
	Success         bool            `json:"success" db:"success"`
	ErrorKind       string          `json:"errorKind,omitempty" db:"error_kind"`
	RequestBody     string          `json:"requestBody,omitempty" db:"request_body"`
	ResponseBody    string          `json:"responseBody,omitempty" db:"response_body"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}

// APILogFilters narrows a log query.
type APILogFilters struct {
	Operation string
	Success   *bool
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
