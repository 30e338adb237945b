package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendalink/gateway/internal/dispatch"
	"github.com/agendalink/gateway/internal/integration"
	"github.com/agendalink/gateway/internal/integration/healthatom"
	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/errors"
	"github.com/agendalink/gateway/pkg/logger"
)

// staticClients serves a single fixed client, standing in for the
// Postgres-backed service.
type staticClients struct {
	client *model.Client
}

func (s *staticClients) Create(ctx context.Context, req *model.CreateClientRequest) (*model.Client, error) {
	return nil, errors.Internal(nil)
}
func (s *staticClients) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	if s.client != nil && s.client.ID == id {
		return s.client, nil
	}
	return nil, errors.NotFound("client", nil)
}
func (s *staticClients) List(ctx context.Context) ([]*model.Client, error) {
	return []*model.Client{s.client}, nil
}
func (s *staticClients) Update(ctx context.Context, id uuid.UUID, req *model.UpdateClientRequest) (*model.Client, error) {
	return nil, errors.Internal(nil)
}
func (s *staticClients) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.Internal(nil)
}
func (s *staticClients) TestConnection(ctx context.Context, id uuid.UUID, integrationType model.IntegrationType) (*model.ConnectionStatus, error) {
	return nil, errors.Internal(nil)
}

func newGatewayRouter(t *testing.T, upstreamURL string) (*gin.Engine, *model.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dentalink := healthatom.NewDentalink(healthatom.WithBaseURL(upstreamURL + "/"))
	registry, err := integration.NewRegistry(dentalink)
	require.NoError(t, err)

	client := &model.Client{
		ID:       uuid.New(),
		Name:     "clinica central",
		IsActive: true,
		Integrations: []*model.ClientIntegration{
			{
				ID:              uuid.New(),
				IntegrationType: model.TypeDentalink,
				IsEnabled:       true,
				Role:            model.RolePrimary,
				Config:          model.IntegrationConfig{"apiKey": "test-key"},
			},
		},
	}

	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	dispatcher := dispatch.NewDispatcher(dispatch.NewResolver(registry, nil), nil, nil, nil, nil, log)
	h := NewHandler(&staticClients{client: client}, dispatcher)

	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine, client
}

func writeData(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func TestScheduleAppointmentEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{
			{"id": 55, "rut": "12345678-9", "nombre": "Maria", "apellidos": "Perez"},
		})
	})
	mux.HandleFunc("/citas/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeData(w, map[string]interface{}{"id": 777})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine, client := newGatewayRouter(t, srv.URL)

	body := `{"patientIdentifier":"12345678-9","professionalId":10,"branchId":1,"date":"2024-05-01","time":"09:00","duration":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients/"+client.ID.String()+"/appointments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Appointment model.AppointmentResult `json:"appointment"`
			SyncWarning string                  `json:"syncWarning"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 777, resp.Data.Appointment.ID)
	assert.Equal(t, 55, resp.Data.Appointment.PatientID)
	assert.Equal(t, 10, resp.Data.Appointment.ProfessionalID)
	assert.Equal(t, 1, resp.Data.Appointment.BranchID)
	assert.Equal(t, "2024-05-01", resp.Data.Appointment.Date)
	assert.Equal(t, "09:00", resp.Data.Appointment.Time)
	assert.Equal(t, 30, resp.Data.Appointment.Duration)
	assert.Equal(t, "scheduled", resp.Data.Appointment.Status)
	assert.Empty(t, resp.Data.SyncWarning)
}

func TestScheduleRejectionMapsTo400(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]interface{}{
			{"id": 55, "rut": "12345678-9", "nombre": "Maria", "apellidos": "Perez"},
		})
	})
	mux.HandleFunc("/citas/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "Horario no disponible"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine, client := newGatewayRouter(t, srv.URL)

	body := `{"patientIdentifier":"12345678-9","professionalId":10,"branchId":1,"date":"2024-05-01","time":"09:00","duration":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients/"+client.ID.String()+"/appointments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Horario no disponible")
}

func TestUnknownClientMapsTo404(t *testing.T) {
	engine, _ := newGatewayRouter(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/"+uuid.NewString()+"/clinic/branches", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMisconfiguredClientMapsTo422(t *testing.T) {
	engine, client := newGatewayRouter(t, "http://127.0.0.1:0")
	client.Integrations[0].Config = model.IntegrationConfig{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/"+client.ID.String()+"/clinic/branches", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSearchPatientRequiresIdentifier(t *testing.T) {
	engine, client := newGatewayRouter(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/"+client.ID.String()+"/patients/search", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
