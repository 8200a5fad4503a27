package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/DevanshVerma21/SafeNow/internal/broadcast"
	"github.com/DevanshVerma21/SafeNow/internal/config"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/DevanshVerma21/SafeNow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	alertService     service.AlertService
	responderService service.ResponderService
	hub              *broadcast.Hub
	logger           *logrus.Logger
	validate         *validator.Validate
	cfg              *config.Config
	upgrader         websocket.Upgrader
}

func NewHandler(
	alertService service.AlertService,
	responderService service.ResponderService,
	hub *broadcast.Hub,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		alertService:     alertService,
		responderService: responderService,
		hub:              hub,
		logger:           logger,
		validate:         validator.New(),
		cfg:              cfg,
		upgrader:         newUpgrader(cfg.WSAllowedOrigins),
	}
}

// @Summary Create a new alert
// @Description Raise an emergency alert. It starts in pending and is auto-assigned to the nearest available responder.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param alert body CreateAlertRequest true "Alert creation request"
// @Success 201 {object} AlertResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Router /alerts [post]
func (h *Handler) createAlert(c *gin.Context) {
	var input CreateAlertRequest
	log := h.logger.WithField("method", "createAlert")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.alertService.CreateAlert(c.Request.Context(), actorFrom(c), DTOToNewAlert(input))
	if err != nil {
		log.WithError(err).Error("Failed to create alert in service")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ModelToAlertResponse(alert))
}

// @Summary List alerts
// @Description List alerts newest first. "open" returns alerts that are not finished yet, "all" returns everything. Alerts past their auto-delete deadline are never listed.
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param status query string false "open, all or a concrete status" default(open)
// @Param limit query int false "Maximum number of alerts"
// @Success 200 {array} AlertResponse
// @Failure 400 {object} map[string]string "Unknown status filter"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Router /alerts [get]
func (h *Handler) listAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "listAlerts")

	filter, err := parseAlertFilter(c.DefaultQuery("status", "open"), c.Query("limit"))
	if err != nil {
		log.WithError(err).Warn("Invalid list filter")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alerts, err := h.alertService.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to list alerts from service")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelsToAlertResponses(alerts))
}

// @Summary Get an alert by ID
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} AlertResponse
// @Failure 400 {object} map[string]string "Invalid alert ID"
// @Failure 404 {object} map[string]string "Alert not found"
// @Router /alerts/{id} [get]
func (h *Handler) getAlert(c *gin.Context) {
	id, ok := h.alertID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getAlert").WithField("id", id)

	alert, err := h.alertService.GetAlert(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get alert from service")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelToAlertResponse(alert))
}

// @Summary Change alert status
// @Description Request a lifecycle transition. Moving an unassigned alert to assigned or in_progress needs responder_id.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Param status body UpdateStatusRequest true "Requested status"
// @Success 200 {object} AlertResponse
// @Failure 400 {object} map[string]string "Invalid request, unknown status or missing responder"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 409 {object} TransitionErrorResponse "Transition not allowed or status changed concurrently"
// @Failure 503 {object} map[string]string "Storage unavailable"
// @Router /alerts/{id}/status [put]
func (h *Handler) updateAlertStatus(c *gin.Context) {
	id, ok := h.alertID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateAlertStatus").WithField("id", id)

	var input UpdateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.ParseAlertStatus(input.Status)
	if !status.Known() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + input.Status})
		return
	}

	alert, err := h.alertService.Transition(c.Request.Context(), actorFrom(c), models.TransitionCommand{
		AlertID:     id,
		Status:      status,
		Note:        input.Note,
		ResponderID: input.ResponderID,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to transition alert in service")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelToAlertResponse(alert))
}

// @Summary Mark an alert as done
// @Description Finish the alert. It disappears from listings after a short delay.
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} AlertResponse
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 409 {object} TransitionErrorResponse "Alert is already finished"
// @Router /alerts/{id}/mark-done [put]
func (h *Handler) markAlertDone(c *gin.Context) {
	id, ok := h.alertID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "markAlertDone").WithField("id", id)

	alert, err := h.alertService.MarkDone(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		log.WithError(err).Warn("Failed to mark alert done in service")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelToAlertResponse(alert))
}

// @Summary Delete an alert
// @Description Remove the alert immediately and notify subscribers.
// @Tags Alerts
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Alert not found"
// @Router /alerts/{id} [delete]
func (h *Handler) deleteAlert(c *gin.Context) {
	id, ok := h.alertID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteAlert").WithField("id", id)

	if err := h.alertService.DeleteAlert(c.Request.Context(), actorFrom(c), id); err != nil {
		log.WithError(err).Warn("Failed to delete alert in service")
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Responder heartbeat
// @Description Record responder presence and location. Repeating the call updates the same responder.
// @Tags Responders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param heartbeat body HeartbeatRequest true "Heartbeat"
// @Success 200 {object} ResponderResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 403 {object} map[string]string "Responder belongs to another user"
// @Failure 409 {object} map[string]string "User already has a different responder record"
// @Router /responders/heartbeat [post]
func (h *Handler) heartbeat(c *gin.Context) {
	var input HeartbeatRequest
	log := h.logger.WithField("method", "heartbeat")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	responder, err := h.responderService.RecordHeartbeat(c.Request.Context(), actorFrom(c), DTOToHeartbeat(input))
	if err != nil {
		log.WithError(err).Error("Failed to record heartbeat in service")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelToResponderResponse(responder))
}

// @Summary Get a responder by ID
// @Tags Responders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Responder ID"
// @Success 200 {object} ResponderResponse
// @Failure 404 {object} map[string]string "Responder not found"
// @Router /responders/{id} [get]
func (h *Handler) getResponder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid responder ID"})
		return
	}

	responder, err := h.responderService.GetResponder(c.Request.Context(), id)
	if err != nil {
		h.logger.WithField("method", "getResponder").WithError(err).Warn("Failed to get responder from service")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelToResponderResponse(responder))
}

// @Summary Accept an assignment
// @Tags Responders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Responder ID"
// @Param decision body DecisionRequest true "Assigned alert"
// @Success 200 {object} AlertResponse
// @Failure 403 {object} map[string]string "Caller does not own the responder or the alert is assigned to another responder"
// @Failure 409 {object} TransitionErrorResponse "Alert is not awaiting a decision"
// @Router /responders/{id}/accept [post]
func (h *Handler) acceptAssignment(c *gin.Context) {
	h.respond(c, models.DecisionAccept)
}

// @Summary Decline an assignment
// @Description The alert returns to pending and auto-assignment is retried shortly.
// @Tags Responders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Responder ID"
// @Param decision body DecisionRequest true "Assigned alert"
// @Success 200 {object} AlertResponse
// @Failure 403 {object} map[string]string "Caller does not own the responder or the alert is assigned to another responder"
// @Failure 409 {object} TransitionErrorResponse "Alert is not awaiting a decision"
// @Router /responders/{id}/decline [post]
func (h *Handler) declineAssignment(c *gin.Context) {
	h.respond(c, models.DecisionDecline)
}

func (h *Handler) respond(c *gin.Context, decision models.AssignmentDecision) {
	log := h.logger.WithFields(logrus.Fields{"method": "respond", "decision": decision})

	responderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid responder ID"})
		return
	}

	var input DecisionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.alertService.RespondToAssignment(c.Request.Context(), actorFrom(c), responderID, input.AlertID, decision)
	if err != nil {
		log.WithError(err).Warn("Failed to apply responder decision")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModelToAlertResponse(alert))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} map[string]any "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"instance_id": h.cfg.InstanceID,
		"ws_clients":  h.hub.Count(),
	})
}

func (h *Handler) alertID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError сопоставляет ошибки сервиса с HTTP статусами
func (h *Handler) writeError(c *gin.Context, err error) {
	var transitionErr *models.InvalidTransitionError
	switch {
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, TransitionErrorResponse{
			Error:     "invalid status transition",
			Current:   string(transitionErr.From),
			Requested: string(transitionErr.To),
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "alert status changed concurrently, retry"})
	case errors.Is(err, models.ErrNotAssignee):
		c.JSON(http.StatusForbidden, gin.H{"error": "alert is not assigned to this responder"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "responder belongs to another user"})
	case errors.Is(err, models.ErrResponderConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "user already has a responder record"})
	case errors.Is(err, models.ErrResponderRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "responder_id is required for this transition"})
	case errors.Is(err, models.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// parseAlertFilter разбирает параметры выборки: open, all или конкретный статус
func parseAlertFilter(status, limit string) (models.AlertFilter, error) {
	var filter models.AlertFilter
	switch status {
	case "open":
		filter.Statuses = models.ActiveStatuses()
	case "all", "":
	default:
		st := models.ParseAlertStatus(status)
		if !st.Known() || st == models.StatusDeclined {
			return filter, errors.New("unknown status filter: " + status)
		}
		filter.Statuses = []models.AlertStatus{st}
	}

	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
