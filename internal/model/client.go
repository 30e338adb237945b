package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Client is a tenant record: one clinic with zero or more enabled
// integrations. The flat apiKey/ghl* fields predate multi-integration
// support and are kept for clients created before it existed.
type Client struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Timezone    string    `json:"timezone" db:"timezone"`
	IsActive    bool      `json:"isActive" db:"is_active"`

	Integrations []*ClientIntegration `json:"integrations" db:"-"`

	// Legacy single-integration fields.
	APIKey         string `json:"apiKey,omitempty" db:"api_key"`
	GHLEnabled     bool   `json:"ghlEnabled" db:"ghl_enabled"`
	GHLAccessToken string `json:"ghlAccessToken,omitempty" db:"ghl_access_token"`
	GHLCalendarID  string `json:"ghlCalendarId,omitempty" db:"ghl_calendar_id"`
	GHLLocationID  string `json:"ghlLocationId,omitempty" db:"ghl_location_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Integration returns the enabled integration of the given type, nil
// when absent or disabled.
func (c *Client) Integration(t IntegrationType) *ClientIntegration {
	for _, i := range c.Integrations {
		if i.IntegrationType == t && i.IsEnabled {
			return i
		}
	}
	return nil
}

// HasIntegration reports whether the client has an enabled integration
// of the given type.
func (c *Client) HasIntegration(t IntegrationType) bool {
	return c.Integration(t) != nil
}

// EnabledIntegrations returns every enabled integration.
func (c *Client) EnabledIntegrations() []*ClientIntegration {
	var out []*ClientIntegration
	for _, i := range c.Integrations {
		if i.IsEnabled {
			out = append(out, i)
		}
	}
	return out
}

// IsLegacy reports whether the client predates multi-integration
// support: flat fields set, no integration rows.
func (c *Client) IsLegacy() bool {
	return len(c.Integrations) == 0 && c.APIKey != ""
}

// ClientIntegration is one enabled (type, role, config) tuple owned by
// a client. Unique per (client, type).
type ClientIntegration struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	ClientID        uuid.UUID         `json:"clientId" db:"client_id"`
	IntegrationType IntegrationType   `json:"integrationType" db:"integration_type"`
	IsEnabled       bool              `json:"isEnabled" db:"is_enabled"`
	Role            IntegrationRole   `json:"role" db:"role"`
	Config          IntegrationConfig `json:"config" db:"config"`
	LastSyncAt      *time.Time        `json:"lastSyncAt,omitempty" db:"last_sync_at"`
	LastSyncStatus  string            `json:"lastSyncStatus,omitempty" db:"last_sync_status"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" db:"updated_at"`
}

// Value implements driver.Valuer so configs persist as JSONB.
func (c IntegrationConfig) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *IntegrationConfig) Scan(src interface{}) error {
	if src == nil {
		*c = IntegrationConfig{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported config type %T", src)
	}
	return json.Unmarshal(data, c)
}

// CreateClientRequest is the admin payload for creating a client.
type CreateClientRequest struct {
	Name         string              `json:"name" binding:"required"`
	Description  string              `json:"description"`
	Timezone     string              `json:"timezone"`
	Integrations []*IntegrationInput `json:"integrations"`

	// Legacy fields still accepted on create.
	APIKey         string `json:"apiKey"`
	GHLEnabled     bool   `json:"ghlEnabled"`
	GHLAccessToken string `json:"ghlAccessToken"`
	GHLCalendarID  string `json:"ghlCalendarId"`
	GHLLocationID  string `json:"ghlLocationId"`
}

// UpdateClientRequest is the admin payload for updating a client. A
// non-nil Integrations slice replaces the whole integration set:
// present entries are upserted, missing ones deleted.
type UpdateClientRequest struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	Timezone     *string             `json:"timezone"`
	IsActive     *bool               `json:"isActive"`
	Integrations []*IntegrationInput `json:"integrations"`

	APIKey         *string `json:"apiKey"`
	GHLEnabled     *bool   `json:"ghlEnabled"`
	GHLAccessToken *string `json:"ghlAccessToken"`
	GHLCalendarID  *string `json:"ghlCalendarId"`
	GHLLocationID  *string `json:"ghlLocationId"`
}

// IntegrationInput is one integration entry in a create/update payload.
type IntegrationInput struct {
	Type      IntegrationType   `json:"type" binding:"required"`
	IsEnabled *bool             `json:"isEnabled"`
	Role      IntegrationRole   `json:"role"`
	Config    IntegrationConfig `json:"config"`
}
