package healthatom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
)

var testConfig = model.IntegrationConfig{"apiKey": "test-key"}

func TestFormatRUT(t *testing.T) {
	cases := map[string]string{
		"12345678-9":   "12345678-9",
		"12.345.678-9": "12345678-9",
		"123456789":    "12345678-9",
		"12345678-k":   "12345678-K",
		" 12345678-9 ": "12345678-9",
		"012345678-9":  "12345678-9",
		"0012345678":   "1234567-8",
		"00-0":         "0-0",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatRUT(in), "input %q", in)
	}
}

func TestSearchAvailabilityOneEntryPerProfessional(t *testing.T) {
	date := time.Now().AddDate(0, 0, 2).Format("2006-01-02")

	mux := http.NewServeMux()
	mux.HandleFunc("/dentistas", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{
			{"id": 10, "nombre": "Ana", "apellidos": "Rojas", "intervalo": 15},
			{"id": 20, "nombre": "Luis", "apellidos": "Soto", "intervalo": 15},
		})
	})
	mux.HandleFunc("/horariosdisponibles", func(w http.ResponseWriter, r *http.Request) {
		var q availabilityQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, []int{10, 20}, q.IDsDentista)
		assert.Equal(t, 1, q.IDSucursal)

		// Professional 20 has no open slots at all.
		writeData(w, map[string]map[string][]map[string]interface{}{
			"10": {date: {
				{"hora_inicio": "09:00:00", "intervalo": 15},
				{"hora_inicio": "09:15:00", "intervalo": 15},
				{"hora_inicio": "11:00:00", "intervalo": 15},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewDentalink(WithBaseURL(srv.URL + "/"))
	result, err := adapter.SearchAvailability(context.Background(), testConfig, model.SearchAvailabilityParams{
		ProfessionalIDs:     []int{10, 20},
		BranchID:            1,
		StartDate:           date,
		AppointmentDuration: 30,
	})
	require.NoError(t, err)
	require.Len(t, result.Availability, 2)

	// Consecutive 15 minute blocks at 09:00 cover 30 minutes; the
	// lone 11:00 block does not.
	first := result.Availability[0]
	assert.Equal(t, 10, first.ProfessionalID)
	assert.Equal(t, "Ana Rojas", first.ProfessionalName)
	assert.Equal(t, []string{"09:00"}, first.Dates[date])

	second := result.Availability[1]
	assert.Equal(t, 20, second.ProfessionalID)
	assert.Empty(t, second.Dates)
	assert.NotNil(t, second.Dates)
}

func TestSearchAvailabilityDropsPastSlots(t *testing.T) {
	today := time.Now().Format("2006-01-02")

	mux := http.NewServeMux()
	mux.HandleFunc("/dentistas", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{{"id": 10, "nombre": "Ana", "apellidos": "Rojas"}})
	})
	mux.HandleFunc("/horariosdisponibles", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]map[string][]map[string]interface{}{
			"10": {today: {{"hora_inicio": "00:01:00", "intervalo": 15}}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewDentalink(WithBaseURL(srv.URL + "/"))
	result, err := adapter.SearchAvailability(context.Background(), testConfig, model.SearchAvailabilityParams{
		ProfessionalIDs: []int{10},
		BranchID:        1,
		StartDate:       today,
	})
	require.NoError(t, err)
	require.Len(t, result.Availability, 1)
	assert.Empty(t, result.Availability[0].Dates)
}

func TestMedilinkAvailabilityFiltersInQuery(t *testing.T) {
	date := time.Now().AddDate(0, 0, 2).Format("2006-01-02")

	mux := http.NewServeMux()
	mux.HandleFunc("/profesionales", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{
			{"id": 10, "nombre": "Ana", "apellido": "Rojas", "intervalo": 15},
		})
	})
	mux.HandleFunc("/horariosdisponibles", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body, "filters must travel as query parameters, not a body")

		q := r.URL.Query()
		assert.Equal(t, []string{"10", "20"}, q["ids_profesional[]"])
		assert.Equal(t, "1", q.Get("id_sucursal"))
		assert.Equal(t, date, q.Get("fecha_inicio"))

		writeData(w, map[string]map[string][]map[string]interface{}{
			"10": {date: {{"hora_inicio": "09:00:00", "intervalo": 15}}},
			"20": {},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewMedilink(
		WithBaseURL(srv.URL+"/"),
		WithProfessionalsURL(srv.URL+"/profesionales"),
	)
	result, err := adapter.SearchAvailability(context.Background(), testConfig, model.SearchAvailabilityParams{
		ProfessionalIDs: []int{10, 20},
		BranchID:        1,
		StartDate:       date,
	})
	require.NoError(t, err)
	require.Len(t, result.Availability, 2)
	assert.Equal(t, []string{"09:00"}, result.Availability[0].Dates[date])
	assert.Empty(t, result.Availability[1].Dates)
}

func TestScheduleAppointment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), "12345678-9")
		writeData(w, []map[string]interface{}{
			{"id": 55, "rut": "12345678-9", "nombre": "Maria", "apellidos": "Perez"},
		})
	})
	mux.HandleFunc("/citas/", func(w http.ResponseWriter, r *http.Request) {
		var payload scheduleAppointmentPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 10, payload.IDDentista)
		assert.Equal(t, 55, payload.IDPaciente)
		assert.Equal(t, "09:00:00", payload.HoraInicio)
		assert.Equal(t, 30, payload.Duracion)

		w.WriteHeader(http.StatusCreated)
		writeData(w, map[string]interface{}{"id": 777})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewDentalink(WithBaseURL(srv.URL + "/"))
	result, err := adapter.ScheduleAppointment(context.Background(), testConfig, model.ScheduleAppointmentParams{
		PatientIdentifier: "12345678-9",
		ProfessionalID:    10,
		BranchID:          1,
		Date:              "2024-05-01",
		Time:              "09:00",
		Duration:          30,
	})
	require.NoError(t, err)
	assert.Equal(t, 777, result.ID)
	assert.Equal(t, 55, result.PatientID)
	assert.Equal(t, 10, result.ProfessionalID)
	assert.Equal(t, 1, result.BranchID)
	assert.Equal(t, "2024-05-01", result.Date)
	assert.Equal(t, "09:00", result.Time)
	assert.Equal(t, 30, result.Duration)
	assert.Equal(t, "scheduled", result.Status)
}

func TestScheduleAppointmentUnknownPatient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewDentalink(WithBaseURL(srv.URL + "/"))
	_, err := adapter.ScheduleAppointment(context.Background(), testConfig, model.ScheduleAppointmentParams{
		PatientIdentifier: "11111111-1",
		ProfessionalID:    10,
		BranchID:          1,
		Date:              "2024-05-01",
		Time:              "09:00",
		Duration:          30,
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestCreatePatientReturnsExisting(t *testing.T) {
	created := false
	mux := http.NewServeMux()
	mux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeData(w, []map[string]interface{}{
				{"id": 42, "rut": "12345678-9", "nombre": "Maria", "apellidos": "Perez"},
			})
			return
		}
		created = true
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewDentalink(WithBaseURL(srv.URL + "/"))
	result, err := adapter.CreatePatient(context.Background(), testConfig, model.CreatePatientParams{
		FirstName:  "Maria",
		LastName:   "Perez",
		Identifier: "12.345.678-9",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result.ID)
	assert.False(t, created, "existing patient must not be recreated")
}

func TestCancelAppointment(t *testing.T) {
	var update updateAppointmentPayload
	mux := http.NewServeMux()
	mux.HandleFunc("/citas/9", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeData(w, map[string]interface{}{"id": 9, "id_paciente": 55})
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		writeData(w, map[string]interface{}{"id": 9})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewDentalink(WithBaseURL(srv.URL + "/"))
	result, err := adapter.CancelAppointment(context.Background(), testConfig, model.CancelAppointmentParams{AppointmentID: 9})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 9, result.AppointmentID)
	assert.Equal(t, stateCanceled, update.IDEstado)
	require.NotNil(t, update.FlagNotificar)
}

func TestTestConnection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sucursales", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))
		writeData(w, []map[string]interface{}{{"id": 1, "nombre": "Centro"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewDentalink(WithBaseURL(srv.URL + "/"))
	status, err := adapter.TestConnection(context.Background(), testConfig)
	require.NoError(t, err)
	assert.True(t, status.Success)

	_, err = adapter.TestConnection(context.Background(), model.IntegrationConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestDualFallsBackToMedilink(t *testing.T) {
	dentalinkMux := http.NewServeMux()
	dentalinkMux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{})
	})
	dentalinkSrv := httptest.NewServer(dentalinkMux)
	defer dentalinkSrv.Close()

	medilinkMux := http.NewServeMux()
	medilinkMux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{
			{"id": 88, "rut": "12345678-9", "nombre": "Jorge", "apellidos": "Diaz"},
		})
	})
	medilinkSrv := httptest.NewServer(medilinkMux)
	defer medilinkSrv.Close()

	dual := NewDual(
		NewDentalink(WithBaseURL(dentalinkSrv.URL+"/")),
		NewMedilink(WithBaseURL(medilinkSrv.URL+"/")),
	)
	result, err := dual.SearchPatient(context.Background(), testConfig, model.SearchPatientParams{Identifier: "12345678-9"})
	require.NoError(t, err)
	assert.Equal(t, 88, result.ID)
}

func TestDualStopsOnBusinessRejection(t *testing.T) {
	dentalinkMux := http.NewServeMux()
	dentalinkMux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{{"id": 55, "rut": "12345678-9", "nombre": "Maria"}})
	})
	dentalinkMux.HandleFunc("/citas/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Horario no disponible"}}`)
	})
	dentalinkSrv := httptest.NewServer(dentalinkMux)
	defer dentalinkSrv.Close()

	medilinkCalled := false
	medilinkMux := http.NewServeMux()
	medilinkMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		medilinkCalled = true
		writeData(w, []map[string]interface{}{})
	})
	medilinkSrv := httptest.NewServer(medilinkMux)
	defer medilinkSrv.Close()

	dual := NewDual(
		NewDentalink(WithBaseURL(dentalinkSrv.URL+"/")),
		NewMedilink(WithBaseURL(medilinkSrv.URL+"/")),
	)
	_, err := dual.ScheduleAppointment(context.Background(), testConfig, model.ScheduleAppointmentParams{
		PatientIdentifier: "12345678-9",
		ProfessionalID:    10,
		BranchID:          1,
		Date:              "2024-05-01",
		Time:              "09:00",
		Duration:          30,
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUpstreamRejected))
	assert.Contains(t, err.Error(), "Horario no disponible")
	assert.False(t, medilinkCalled, "a business rejection must not be retried on the sibling api")
}

func TestDualContinuesOnBranchPrecondition(t *testing.T) {
	dentalinkMux := http.NewServeMux()
	dentalinkMux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{{"id": 55, "rut": "12345678-9", "nombre": "Maria"}})
	})
	dentalinkMux.HandleFunc("/citas/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
		fmt.Fprint(w, `{"message":"Sucursal no habilitada"}`)
	})
	dentalinkSrv := httptest.NewServer(dentalinkMux)
	defer dentalinkSrv.Close()

	medilinkMux := http.NewServeMux()
	medilinkMux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{{"id": 55, "rut": "12345678-9", "nombre": "Maria"}})
	})
	medilinkMux.HandleFunc("/citas/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeData(w, map[string]interface{}{"id": 900})
	})
	medilinkSrv := httptest.NewServer(medilinkMux)
	defer medilinkSrv.Close()

	dual := NewDual(
		NewDentalink(WithBaseURL(dentalinkSrv.URL+"/")),
		NewMedilink(WithBaseURL(medilinkSrv.URL+"/")),
	)
	result, err := dual.ScheduleAppointment(context.Background(), testConfig, model.ScheduleAppointmentParams{
		PatientIdentifier: "12345678-9",
		ProfessionalID:    10,
		BranchID:          1,
		Date:              "2024-05-01",
		Time:              "09:00",
		Duration:          30,
	})
	require.NoError(t, err)
	assert.Equal(t, 900, result.ID)
}

func TestDualMergesBranches(t *testing.T) {
	dentalinkMux := http.NewServeMux()
	dentalinkMux.HandleFunc("/sucursales", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{{"id": 1, "nombre": "Centro"}})
	})
	dentalinkSrv := httptest.NewServer(dentalinkMux)
	defer dentalinkSrv.Close()

	medilinkMux := http.NewServeMux()
	medilinkMux.HandleFunc("/sucursales", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{{"id": 1, "nombre": "Centro"}, {"id": 2, "nombre": "Norte"}})
	})
	medilinkSrv := httptest.NewServer(medilinkMux)
	defer medilinkSrv.Close()

	dual := NewDual(
		NewDentalink(WithBaseURL(dentalinkSrv.URL+"/")),
		NewMedilink(WithBaseURL(medilinkSrv.URL+"/")),
	)
	branches, err := dual.GetBranches(context.Background(), testConfig)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "Centro", branches[0].Name)
	assert.Equal(t, "Norte", branches[1].Name)
}

func writeData(w http.ResponseWriter, data interface{}) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}
