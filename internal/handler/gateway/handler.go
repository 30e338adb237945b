package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agendalink/gateway/internal/dispatch"
	"github.com/agendalink/gateway/internal/handler"
	"github.com/agendalink/gateway/internal/middleware"
	"github.com/agendalink/gateway/internal/model"
	clientService "github.com/agendalink/gateway/internal/service/client"
	"github.com/agendalink/gateway/pkg/errors"
)

// Handler is the client-facing gateway surface: every route is scoped
// to a client id and fans out to that client's integrations through
// the dispatcher.
type Handler struct {
	clients    clientService.Servicer
	dispatcher *dispatch.Dispatcher
}

func NewHandler(clients clientService.Servicer, dispatcher *dispatch.Dispatcher) *Handler {
	return &Handler{clients: clients, dispatcher: dispatcher}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clients := r.Group("/clients/:id")
	{
		clients.POST("/availability/search", middleware.Operation("availability.search"), h.SearchAvailability)
		clients.GET("/patients/search", middleware.Operation("patients.search"), h.SearchPatient)
		clients.POST("/patients", middleware.Operation("patients.create"), h.CreatePatient)
		clients.GET("/treatments", middleware.Operation("treatments.list"), h.GetPatientTreatments)
		clients.POST("/appointments", middleware.Operation("appointments.schedule"), h.ScheduleAppointment)
		clients.POST("/appointments/:appointmentId/cancel", middleware.Operation("appointments.cancel"), h.CancelAppointment)
		clients.POST("/appointments/:appointmentId/confirm", middleware.Operation("appointments.confirm"), h.ConfirmAppointment)
		clients.GET("/clinic/branches", middleware.Operation("clinic.branches"), h.GetBranches)
		clients.GET("/clinic/professionals", middleware.Operation("clinic.professionals"), h.GetProfessionals)
	}
}

// loadClient resolves the :id path param into an active client and
// stashes it on the context for the request-log middleware.
func (h *Handler) loadClient(c *gin.Context) (*model.Client, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid client ID"))
		return nil, false
	}

	client, err := h.clients.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return nil, false
	}
	if !client.IsActive {
		handler.Error(c, errors.NotFound("client", nil))
		return nil, false
	}
	middleware.SetClient(c, client)
	return client, true
}

func (h *Handler) SearchAvailability(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	var params model.SearchAvailabilityParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.dispatcher.SearchAvailability(c.Request.Context(), client, params)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) SearchPatient(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	identifier := c.Query("identifier")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("identifier is required"))
		return
	}

	result, err := h.dispatcher.SearchPatient(c.Request.Context(), client, model.SearchPatientParams{Identifier: identifier})
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) CreatePatient(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	var params model.CreatePatientParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.dispatcher.CreatePatient(c.Request.Context(), client, params)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) GetPatientTreatments(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	identifier := c.Query("patientIdentifier")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("patientIdentifier is required"))
		return
	}

	result, err := h.dispatcher.GetPatientTreatments(c.Request.Context(), client, model.GetTreatmentsParams{PatientIdentifier: identifier})
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ScheduleAppointment(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	var params model.ScheduleAppointmentParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	outcome, err := h.dispatcher.ScheduleAppointment(c.Request.Context(), client, params)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(outcome))
}

type cancelRequest struct {
	ExternalRef string `json:"externalRef"`
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	appointmentID, err := strconv.Atoi(c.Param("appointmentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	result, err := h.dispatcher.CancelAppointment(c.Request.Context(), client, model.CancelAppointmentParams{
		AppointmentID: appointmentID,
		ExternalRef:   req.ExternalRef,
	})
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	appointmentID, err := strconv.Atoi(c.Param("appointmentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	result, err := h.dispatcher.ConfirmAppointment(c.Request.Context(), client, model.ConfirmAppointmentParams{
		AppointmentID: appointmentID,
		ExternalRef:   req.ExternalRef,
	})
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) GetBranches(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	branches, err := h.dispatcher.GetBranches(c.Request.Context(), client)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(branches))
}

func (h *Handler) GetProfessionals(c *gin.Context) {
	client, ok := h.loadClient(c)
	if !ok {
		return
	}

	if v := c.Query("branchId"); v != "" {
		branchID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid branch ID"))
			return
		}
		professionals, err := h.dispatcher.GetProfessionalsByBranch(c.Request.Context(), client, branchID)
		if err != nil {
			handler.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(professionals))
		return
	}

	professionals, err := h.dispatcher.GetProfessionals(c.Request.Context(), client)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(professionals))
}
