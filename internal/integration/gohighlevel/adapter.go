package gohighlevel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultTimezone = "America/Santiago"
)

// Adapter implements availability, patients and appointments against a
// GoHighLevel calendar. Patients are GHL contacts, addressed by their
// contact id (externalRef); there is no clinic directory.
type Adapter struct {
	baseURL   string
	http      *http.Client
	meta      model.IntegrationMetadata
	endpoints []model.IntegrationEndpoint
}

type Option func(*Adapter)

func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = u }
}

func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.http.Timeout = d }
}

func New(opts ...Option) *Adapter {
	a := &Adapter{
		baseURL:   ghlBaseURL,
		http:      &http.Client{Timeout: defaultTimeout},
		meta:      metadata(),
		endpoints: endpoints(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Type() model.IntegrationType { return model.TypeGoHighLevel }

func (a *Adapter) Metadata() model.IntegrationMetadata { return a.meta }

func (a *Adapter) Endpoints() []model.IntegrationEndpoint { return a.endpoints }

// --- config ---

type ghlConfig struct {
	accessToken string
	calendarID  string
	locationID  string
	timezone    string
}

func parseConfig(config model.IntegrationConfig) (ghlConfig, error) {
	c := ghlConfig{
		accessToken: config.GetString("accessToken"),
		calendarID:  config.GetString("calendarId"),
		locationID:  config.GetString("locationId"),
		timezone:    config.GetString("timezone"),
	}
	if c.accessToken == "" {
		return c, errors.Configuration("gohighlevel integration is missing accessToken", nil)
	}
	if c.calendarID == "" {
		return c, errors.Configuration("gohighlevel integration is missing calendarId", nil)
	}
	if c.locationID == "" {
		return c, errors.Configuration("gohighlevel integration is missing locationId", nil)
	}
	if c.timezone == "" {
		c.timezone = defaultTimezone
	}
	return c, nil
}

// --- transport ---

func (a *Adapter) do(ctx context.Context, cfg ghlConfig, version, method, path string, q url.Values, body, out interface{}) error {
	u := a.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Internal(fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.Internal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+cfg.accessToken)
	req.Header.Set("Version", version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return errors.UpstreamUnavailable("gohighlevel", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.UpstreamUnavailable("gohighlevel", err)
	}
	if resp.StatusCode >= 400 {
		return mapStatus(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.UpstreamUnavailable("gohighlevel", fmt.Errorf("malformed json: %w", err))
	}
	return nil
}

func mapStatus(status int, raw []byte) error {
	msg := "request rejected"
	var e apiError
	if err := json.Unmarshal(raw, &e); err == nil && e.Message != nil {
		switch v := e.Message.(type) {
		case string:
			msg = v
		default:
			if buf, err := json.Marshal(v); err == nil {
				msg = string(buf)
			}
		}
	}
	switch {
	case status == http.StatusNotFound:
		return errors.New(errors.KindNotFound, "gohighlevel: "+msg, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Unauthorized(fmt.Errorf("gohighlevel rejected the credentials"))
	case status >= 500:
		return errors.UpstreamUnavailable("gohighlevel", nil)
	default:
		return errors.UpstreamRejected("gohighlevel: "+msg, nil)
	}
}

// --- connection ---

func (a *Adapter) TestConnection(ctx context.Context, config model.IntegrationConfig) (*model.ConnectionStatus, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	var resp calendarsResponse
	q := url.Values{"locationId": {cfg.locationID}}
	if err := a.do(ctx, cfg, versionContacts, http.MethodGet, "/calendars/", q, nil, &resp); err != nil {
		return &model.ConnectionStatus{Success: false, Message: err.Error()}, nil
	}
	return &model.ConnectionStatus{
		Success: true,
		Message: fmt.Sprintf("connected to gohighlevel, %d calendars visible", len(resp.Calendars)),
	}, nil
}

// --- availability ---

// SearchAvailability reads the calendar's free slots. GoHighLevel has
// no per-professional scheduling: every requested professional id gets
// the same calendar-level slot map.
func (a *Adapter) SearchAvailability(ctx context.Context, config model.IntegrationConfig, params model.SearchAvailabilityParams) (*model.AvailabilityResult, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.timezone)
	if err != nil {
		loc = time.UTC
	}

	dateFrom := params.StartDate
	if dateFrom == "" {
		dateFrom = time.Now().In(loc).Format("2006-01-02")
	}
	start, err := time.ParseInLocation("2006-01-02", dateFrom, loc)
	if err != nil {
		return nil, errors.UpstreamRejected(fmt.Sprintf("invalid start date %q", dateFrom), err)
	}
	end := start.AddDate(0, 0, 7)

	q := url.Values{
		"startDate": {strconv.FormatInt(start.UnixMilli(), 10)},
		"endDate":   {strconv.FormatInt(end.UnixMilli(), 10)},
		"timezone":  {cfg.timezone},
	}
	var resp freeSlotsResponse
	if err := a.do(ctx, cfg, versionContacts, http.MethodGet, "/calendars/"+cfg.calendarID+"/free-slots", q, nil, &resp); err != nil {
		return nil, err
	}

	dates := map[string][]string{}
	for date, day := range resp {
		if len(date) != 10 || len(day.Slots) == 0 {
			continue
		}
		hours := make([]string, 0, len(day.Slots))
		for _, slot := range day.Slots {
			if t, err := time.Parse(time.RFC3339, slot); err == nil {
				hours = append(hours, t.Format("15:04"))
			}
		}
		if len(hours) > 0 {
			dates[date] = hours
		}
	}

	requested := params.ProfessionalIDs
	if len(requested) == 0 {
		requested = []int{0}
	}
	result := &model.AvailabilityResult{
		DateFrom: dateFrom,
		DateTo:   start.AddDate(0, 0, 6).Format("2006-01-02"),
	}
	for _, id := range requested {
		result.Availability = append(result.Availability, model.ProfessionalAvailability{
			ProfessionalID:   id,
			ProfessionalName: "Calendar",
			Dates:            dates,
		})
	}
	return result, nil
}

// --- patients (contacts) ---

func (a *Adapter) SearchPatient(ctx context.Context, config model.IntegrationConfig, params model.SearchPatientParams) (*model.PatientResult, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	var env contactEnvelope
	if err := a.do(ctx, cfg, versionContacts, http.MethodGet, "/contacts/"+params.Identifier, nil, nil, &env); err != nil {
		return nil, err
	}
	res := normalizeContact(env.Contact)
	return &res, nil
}

func (a *Adapter) CreatePatient(ctx context.Context, config model.IntegrationConfig, params model.CreatePatientParams) (*model.PatientResult, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	payload := upsertContactPayload{
		LocationID:  cfg.locationID,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Email:       params.Email,
		Phone:       params.Phone,
		DateOfBirth: params.BirthDate,
	}
	var env contactEnvelope
	if err := a.do(ctx, cfg, versionContacts, http.MethodPost, "/contacts/", nil, payload, &env); err != nil {
		return nil, err
	}
	res := normalizeContact(env.Contact)
	return &res, nil
}

// --- appointments ---

func (a *Adapter) ScheduleAppointment(ctx context.Context, config model.IntegrationConfig, params model.ScheduleAppointmentParams) (*model.AppointmentResult, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	contactID := params.ExternalUserID
	if contactID == "" {
		contactID = params.PatientIdentifier
	}
	if contactID == "" {
		return nil, errors.UpstreamRejected("gohighlevel requires a contact id (externalUserId)", nil)
	}

	loc, err := time.LoadLocation(cfg.timezone)
	if err != nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", params.Date+" "+params.Time, loc)
	if err != nil {
		return nil, errors.UpstreamRejected(fmt.Sprintf("invalid date/time %q %q", params.Date, params.Time), err)
	}
	duration := params.Duration
	if duration == 0 {
		duration = 30
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	// Annotate the contact before booking, best effort.
	if params.Notes != "" {
		update := upsertContactPayload{CustomFields: []customField{{Key: "comentario", FieldValue: params.Notes}}}
		if err := a.do(ctx, cfg, versionContacts, http.MethodPut, "/contacts/"+contactID, nil, update, nil); err != nil {
			log.Warn().Err(err).Str("contact_id", contactID).Msg("contact annotation failed")
		}
	}

	assignedUserID, err := a.assignedUserID(ctx, cfg)
	if err != nil {
		return nil, err
	}

	payload := createAppointmentPayload{
		Title:                    "Cita Médica",
		AppointmentStatus:        "new",
		CalendarID:               cfg.calendarID,
		LocationID:               cfg.locationID,
		ContactID:                contactID,
		AssignedUserID:           assignedUserID,
		StartTime:                start.Format(time.RFC3339),
		EndTime:                  end.Format(time.RFC3339),
		OverrideLocationConfig:   true,
		IgnoreDateRange:          true,
		IgnoreFreeSlotValidation: true,
	}
	var appt wireAppointment
	if err := a.do(ctx, cfg, versionCalendars, http.MethodPost, "/calendars/events/appointments", nil, payload, &appt); err != nil {
		return nil, err
	}

	log.Info().Str("event_id", appt.ID).Str("contact_id", contactID).Msg("gohighlevel appointment created")
	return &model.AppointmentResult{
		ProfessionalID: params.ProfessionalID,
		BranchID:       params.BranchID,
		Date:           params.Date,
		Time:           params.Time,
		Duration:       duration,
		Status:         "scheduled",
		ExternalRef:    appt.ID,
	}, nil
}

// assignedUserID reads the calendar's first team member, which the
// appointment endpoint requires.
func (a *Adapter) assignedUserID(ctx context.Context, cfg ghlConfig) (string, error) {
	var resp calendarResponse
	if err := a.do(ctx, cfg, versionCalendars, http.MethodGet, "/calendars/"+cfg.calendarID, nil, nil, &resp); err != nil {
		return "", err
	}
	if len(resp.Calendar.TeamMembers) == 0 {
		return "", errors.Configuration("gohighlevel calendar has no team members", nil)
	}
	return resp.Calendar.TeamMembers[0].UserID, nil
}

func (a *Adapter) CancelAppointment(ctx context.Context, config model.IntegrationConfig, params model.CancelAppointmentParams) (*model.CancelAppointmentResult, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	if params.ExternalRef == "" {
		return nil, errors.UpstreamRejected("gohighlevel requires the event id (externalRef)", nil)
	}
	if err := a.do(ctx, cfg, versionCalendars, http.MethodDelete, "/calendars/events/"+params.ExternalRef, nil, nil, nil); err != nil {
		return nil, err
	}
	return &model.CancelAppointmentResult{
		Success:       true,
		Message:       "appointment deleted",
		AppointmentID: params.AppointmentID,
	}, nil
}

// --- normalization ---

func normalizeContact(c wireContact) model.PatientResult {
	full := c.Name
	if full == "" {
		full = c.FirstName
		if c.LastName != "" {
			full += " " + c.LastName
		}
	}
	return model.PatientResult{
		Identifier:  c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		FullName:    full,
		Phone:       c.Phone,
		Email:       c.Email,
		BirthDate:   c.DateOfBirth,
		ExternalRef: c.ID,
	}
}
