package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/broadcast"
	"github.com/DevanshVerma21/SafeNow/internal/config"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/DevanshVerma21/SafeNow/internal/service/mocks"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSecret = "test-secret"

var testActor = models.Actor{ID: "user-1", Role: "citizen"}

type testEnv struct {
	alerts     *mocks.MockAlertService
	responders *mocks.MockResponderService
	hub        *broadcast.Hub
	router     *gin.Engine
}

// newTestEnv создает Handler с мокированными сервисами
func newTestEnv(t *testing.T) *testEnv {
	ctrl := gomock.NewController(t)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{JWTSecret: testSecret, InstanceID: "instance-a"}
	env := &testEnv{
		alerts:     mocks.NewMockAlertService(ctrl),
		responders: mocks.NewMockResponderService(ctrl),
		hub:        broadcast.NewHub(logger, nil),
	}
	t.Cleanup(env.hub.Close)

	handler := NewHandler(env.alerts, env.responders, env.hub, logger, cfg)

	gin.SetMode(gin.TestMode)
	env.router = gin.New()
	handler.RegisterRoutes(env.router.Group("/api/v1"))
	return env
}

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	claims := Claims{
		Role: "citizen",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// do выполняет запрос с валидным токеном
func (e *testEnv) do(t *testing.T, method, url string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, testActor.ID, time.Hour))

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sampleAlert() *models.Alert {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Alert{
		ID:        uuid.New(),
		UserID:    testActor.ID,
		Type:      models.AlertTypeMedical,
		Location:  models.Location{Latitude: 12.9716, Longitude: 77.5946},
		Severity:  3,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestAuth_RejectsMissingAndInvalidTokens(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Token abc"},
		{"wrong secret", "Bearer " + signToken(t, "other", "u", time.Hour)},
		{"expired", "Bearer " + signToken(t, testSecret, "u", -time.Minute)},
		{"no subject", "Bearer " + signToken(t, testSecret, "", time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestCreateAlert_Success(t *testing.T) {
	env := newTestEnv(t)
	created := sampleAlert()

	env.alerts.EXPECT().CreateAlert(gomock.Any(), testActor, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Actor, in models.NewAlert) (*models.Alert, error) {
			assert.Equal(t, models.AlertTypeMedical, in.Type)
			assert.Equal(t, 12.9716, in.Location.Latitude)
			assert.Equal(t, "help", in.Note)
			return created, nil
		})

	w := env.do(t, http.MethodPost, "/api/v1/alerts", CreateAlertRequest{
		Type:     "medical",
		Note:     "help",
		Location: LocationDTO{Lat: floatPtr(12.9716), Lng: floatPtr(77.5946)},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Nil(t, resp.AssignedTo)
	assert.Equal(t, []string{}, resp.Attachments)
}

func TestCreateAlert_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body CreateAlertRequest
	}{
		{"unknown type", CreateAlertRequest{Type: "party", Location: LocationDTO{Lat: floatPtr(1), Lng: floatPtr(1)}}},
		{"missing location", CreateAlertRequest{Type: "fire"}},
		{"latitude out of range", CreateAlertRequest{Type: "fire", Location: LocationDTO{Lat: floatPtr(91), Lng: floatPtr(1)}}},
		{"severity out of range", CreateAlertRequest{Type: "fire", Severity: 9, Location: LocationDTO{Lat: floatPtr(1), Lng: floatPtr(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/alerts", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateAlert_StorageUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.alerts.EXPECT().CreateAlert(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("service: %w", models.ErrStorageUnavailable))

	w := env.do(t, http.MethodPost, "/api/v1/alerts", CreateAlertRequest{
		Type:     "fire",
		Location: LocationDTO{Lat: floatPtr(0), Lng: floatPtr(0)},
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListAlerts_Filters(t *testing.T) {
	tests := []struct {
		query    string
		statuses []models.AlertStatus
		limit    int
	}{
		{"", models.ActiveStatuses(), 0},
		{"?status=open", models.ActiveStatuses(), 0},
		{"?status=all&limit=5", nil, 5},
		{"?status=resolved", []models.AlertStatus{models.StatusResolved}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := newTestEnv(t)
			env.alerts.EXPECT().ListAlerts(gomock.Any(), models.AlertFilter{Statuses: tt.statuses, Limit: tt.limit}).
				Return([]*models.Alert{sampleAlert()}, nil)

			w := env.do(t, http.MethodGet, "/api/v1/alerts"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			var resp []AlertResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp, 1)
		})
	}
}

func TestListAlerts_BadFilter(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/alerts?status=bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/alerts?limit=-1", nil).Code)
}

func TestGetAlert(t *testing.T) {
	env := newTestEnv(t)
	alert := sampleAlert()
	missing := uuid.New()

	env.alerts.EXPECT().GetAlert(gomock.Any(), alert.ID).Return(alert, nil)
	env.alerts.EXPECT().GetAlert(gomock.Any(), missing).Return(nil, fmt.Errorf("service: %w", models.ErrNotFound))

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/alerts/"+alert.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/alerts/"+missing.String(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/alerts/not-a-uuid", nil).Code)
}

func TestUpdateAlertStatus_Success(t *testing.T) {
	env := newTestEnv(t)
	alert := sampleAlert()
	responderID := uuid.New()
	alert.Status = models.StatusInProgress
	alert.AssignedTo = &responderID

	env.alerts.EXPECT().Transition(gomock.Any(), testActor, models.TransitionCommand{
		AlertID:     alert.ID,
		Status:      models.StatusInProgress,
		ResponderID: &responderID,
	}).Return(alert, nil)

	w := env.do(t, http.MethodPut, "/api/v1/alerts/"+alert.ID.String()+"/status", UpdateStatusRequest{
		Status:      "in_progress",
		ResponderID: &responderID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "in_progress", resp.Status)
	assert.Equal(t, &responderID, resp.AssignedTo)
}

func TestUpdateAlertStatus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"conflict", models.ErrStatusConflict, http.StatusConflict},
		{"responder required", models.ErrResponderRequired, http.StatusBadRequest},
		{"storage", models.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.alerts.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(nil, fmt.Errorf("service: could not transition alert: %w", tt.err))

			w := env.do(t, http.MethodPut, "/api/v1/alerts/"+uuid.NewString()+"/status", UpdateStatusRequest{Status: "assigned"})
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestUpdateAlertStatus_InvalidTransitionBody(t *testing.T) {
	env := newTestEnv(t)
	env.alerts.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil,
		fmt.Errorf("service: %w", &models.InvalidTransitionError{From: models.StatusResolved, To: models.StatusPending}))

	w := env.do(t, http.MethodPut, "/api/v1/alerts/"+uuid.NewString()+"/status", UpdateStatusRequest{Status: "open"})

	require.Equal(t, http.StatusConflict, w.Code)
	var resp TransitionErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "resolved", resp.Current)
	assert.Equal(t, "pending", resp.Requested)
}

func TestUpdateAlertStatus_UnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPut, "/api/v1/alerts/"+uuid.NewString()+"/status", UpdateStatusRequest{Status: "sleeping"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkDoneAndDelete(t *testing.T) {
	env := newTestEnv(t)
	alert := sampleAlert()
	alert.Status = models.StatusDone

	env.alerts.EXPECT().MarkDone(gomock.Any(), testActor, alert.ID).Return(alert, nil)
	env.alerts.EXPECT().DeleteAlert(gomock.Any(), testActor, alert.ID).Return(nil)

	w := env.do(t, http.MethodPut, "/api/v1/alerts/"+alert.ID.String()+"/mark-done", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"done"`)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/v1/alerts/"+alert.ID.String(), nil).Code)
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	responder := &models.Responder{
		ID:           uuid.New(),
		UserID:       testActor.ID,
		Type:         models.ResponderMedical,
		Status:       models.ResponderAvailable,
		LastLocation: &models.Location{Latitude: 1, Longitude: 2},
	}

	env.responders.EXPECT().RecordHeartbeat(gomock.Any(), testActor, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Actor, hb models.Heartbeat) (*models.Responder, error) {
			assert.Equal(t, models.ResponderMedical, hb.Type)
			require.NotNil(t, hb.Location)
			assert.Equal(t, 2.0, hb.Location.Longitude)
			return responder, nil
		})

	w := env.do(t, http.MethodPost, "/api/v1/responders/heartbeat", HeartbeatRequest{
		Type:     "medical",
		Status:   "available",
		Location: &LocationDTO{Lat: floatPtr(1), Lng: floatPtr(2)},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp ResponderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, responder.ID, resp.ID)
	require.NotNil(t, resp.LastLocation)

	bad := env.do(t, http.MethodPost, "/api/v1/responders/heartbeat", HeartbeatRequest{Status: "sleeping"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHeartbeat_OwnershipErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"foreign responder id", models.ErrForbidden, http.StatusForbidden},
		{"second record for user", models.ErrResponderConflict, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			id := uuid.New()
			env.responders.EXPECT().RecordHeartbeat(gomock.Any(), testActor, gomock.Any()).
				Return(nil, fmt.Errorf("service: could not record heartbeat: %w", tt.err))

			w := env.do(t, http.MethodPost, "/api/v1/responders/heartbeat", HeartbeatRequest{ResponderID: &id})
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestCreateAlert_OpaqueAttachments(t *testing.T) {
	env := newTestEnv(t)
	env.alerts.EXPECT().CreateAlert(gomock.Any(), testActor, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Actor, in models.NewAlert) (*models.Alert, error) {
			assert.Equal(t, []string{"media-7f3a", "https://cdn.example.com/a.jpg"}, in.Attachments)
			return sampleAlert(), nil
		})

	w := env.do(t, http.MethodPost, "/api/v1/alerts", CreateAlertRequest{
		Type:        "fire",
		Location:    LocationDTO{Lat: floatPtr(1), Lng: floatPtr(2)},
		Attachments: []string{"media-7f3a", "https://cdn.example.com/a.jpg"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	empty := env.do(t, http.MethodPost, "/api/v1/alerts", CreateAlertRequest{
		Type:        "fire",
		Location:    LocationDTO{Lat: floatPtr(1), Lng: floatPtr(2)},
		Attachments: []string{""},
	})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestGetResponder(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	env.responders.EXPECT().GetResponder(gomock.Any(), id).Return(nil, models.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/responders/"+id.String(), nil).Code)
}

func TestRespondToAssignment(t *testing.T) {
	responderID := uuid.New()
	alert := sampleAlert()

	t.Run("accept", func(t *testing.T) {
		env := newTestEnv(t)
		accepted := sampleAlert()
		accepted.Status = models.StatusAccepted
		env.alerts.EXPECT().RespondToAssignment(gomock.Any(), testActor, responderID, alert.ID, models.DecisionAccept).Return(accepted, nil)

		w := env.do(t, http.MethodPost, "/api/v1/responders/"+responderID.String()+"/accept", DecisionRequest{AlertID: alert.ID})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"accepted"`)
	})

	t.Run("decline by someone else", func(t *testing.T) {
		env := newTestEnv(t)
		env.alerts.EXPECT().RespondToAssignment(gomock.Any(), testActor, responderID, alert.ID, models.DecisionDecline).
			Return(nil, fmt.Errorf("service: %w", models.ErrNotAssignee))

		w := env.do(t, http.MethodPost, "/api/v1/responders/"+responderID.String()+"/decline", DecisionRequest{AlertID: alert.ID})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("caller does not own the responder", func(t *testing.T) {
		env := newTestEnv(t)
		env.alerts.EXPECT().RespondToAssignment(gomock.Any(), testActor, responderID, alert.ID, models.DecisionAccept).
			Return(nil, fmt.Errorf("service: %w", models.ErrForbidden))

		w := env.do(t, http.MethodPost, "/api/v1/responders/"+responderID.String()+"/accept", DecisionRequest{AlertID: alert.ID})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing alert id", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(t, http.MethodPost, "/api/v1/responders/"+responderID.String()+"/accept", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthCheck_NoAuth(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"instance_id":"instance-a"`)
}

func TestStreamAlerts(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/alerts"

	t.Run("rejects missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(base, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects invalid token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(base+"?token=garbage", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("receives delivered events", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+signToken(t, testSecret, "viewer", time.Hour), nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return env.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

		payload := []byte(`{"type":"alert_update","action":"created"}`)
		assert.Equal(t, 1, env.hub.Deliver(payload))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, payload, msg)
	})
}
