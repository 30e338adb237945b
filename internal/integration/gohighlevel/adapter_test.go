package gohighlevel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
)

func testConfig() model.IntegrationConfig {
	return model.IntegrationConfig{
		"accessToken": "tok",
		"calendarId":  "cal-1",
		"locationId":  "loc-1",
	}
}

func TestParseConfigRejectsMissingFields(t *testing.T) {
	adapter := New()

	_, err := adapter.SearchPatient(context.Background(), model.IntegrationConfig{"accessToken": "tok"}, model.SearchPatientParams{Identifier: "c-1"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	assert.Contains(t, err.Error(), "calendarId")
}

func TestSearchAvailabilityFreeSlots(t *testing.T) {
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/cal-1/free-slots", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("startDate"))
		assert.NotEmpty(t, r.URL.Query().Get("endDate"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			date:      map[string]interface{}{"slots": []string{date + "T09:00:00-04:00", date + "T09:30:00-04:00"}},
			"traceId": "abc",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := New(WithBaseURL(srv.URL))
	result, err := adapter.SearchAvailability(context.Background(), testConfig(), model.SearchAvailabilityParams{
		StartDate: date,
	})
	require.NoError(t, err)
	require.Len(t, result.Availability, 1)
	assert.Equal(t, []string{"09:00", "09:30"}, result.Availability[0].Dates[date])
}

func TestScheduleAppointment(t *testing.T) {
	var created createAppointmentPayload
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/cal-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, versionCalendars, r.Header.Get("Version"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"calendar": map[string]interface{}{
				"id":          "cal-1",
				"teamMembers": []map[string]interface{}{{"userId": "user-9"}},
			},
		})
	})
	mux.HandleFunc("/calendars/events/appointments", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "evt-1"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := New(WithBaseURL(srv.URL))
	result, err := adapter.ScheduleAppointment(context.Background(), testConfig(), model.ScheduleAppointmentParams{
		ExternalUserID: "contact-5",
		Date:           "2024-05-01",
		Time:           "09:00",
		Duration:       30,
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", result.ExternalRef)
	assert.Equal(t, "scheduled", result.Status)

	assert.Equal(t, "contact-5", created.ContactID)
	assert.Equal(t, "user-9", created.AssignedUserID)
	assert.Equal(t, "cal-1", created.CalendarID)
	assert.Equal(t, "loc-1", created.LocationID)
	assert.True(t, created.IgnoreFreeSlotValidation)
	assert.Equal(t, "new", created.AppointmentStatus)
	assert.Contains(t, created.StartTime, "2024-05-01T09:00:00")
}

func TestScheduleRequiresContact(t *testing.T) {
	adapter := New()
	_, err := adapter.ScheduleAppointment(context.Background(), testConfig(), model.ScheduleAppointmentParams{
		Date: "2024-05-01",
		Time: "09:00",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUpstreamRejected))
}

func TestScheduleFailsWithoutTeamMembers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/cal-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"calendar": map[string]interface{}{"id": "cal-1", "teamMembers": []interface{}{}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := New(WithBaseURL(srv.URL))
	_, err := adapter.ScheduleAppointment(context.Background(), testConfig(), model.ScheduleAppointmentParams{
		ExternalUserID: "contact-5",
		Date:           "2024-05-01",
		Time:           "09:00",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestCancelDeletesEvent(t *testing.T) {
	deleted := false
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/events/evt-1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = true
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"succeeded": true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := New(WithBaseURL(srv.URL))
	result, err := adapter.CancelAppointment(context.Background(), testConfig(), model.CancelAppointmentParams{
		AppointmentID: 3,
		ExternalRef:   "evt-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, deleted)
}

func TestSearchPatientNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/contacts/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Contact not found"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := New(WithBaseURL(srv.URL))
	_, err := adapter.SearchPatient(context.Background(), testConfig(), model.SearchPatientParams{Identifier: "missing"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}
