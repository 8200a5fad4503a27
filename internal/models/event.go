package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventAlertUpdate  = "alert_update"
	EventAlertDeleted = "alert_deleted"
)

const (
	ActionCreated       = "created"
	ActionStatusUpdated = "status_updated"
	ActionAssigned      = "assigned"
	ActionAccepted      = "accepted"
	ActionDeclined      = "declined"
	ActionMarkedDone    = "marked_done"
	ActionDeleted       = "deleted"
	ActionAutoDeleted   = "auto_deleted"
)

// AlertEvent сообщение потока событий для клиентов и соседних инстансов
type AlertEvent struct {
	Type                string     `json:"type"`
	Action              string     `json:"action"`
	AlertID             uuid.UUID  `json:"alert_id"`
	Alert               *Alert     `json:"alert,omitempty"`
	ETASeconds          *int       `json:"eta_seconds,omitempty"`
	NearestResponderETA *int       `json:"nearest_responder_eta,omitempty"`
	NearestResponderID  *uuid.UUID `json:"nearest_responder_id,omitempty"`
	Origin              string     `json:"origin,omitempty"`
	OccurredAt          time.Time  `json:"occurred_at"`
}

func NewAlertEvent(action string, alert *Alert, now time.Time) *AlertEvent {
	return &AlertEvent{
		Type:       EventAlertUpdate,
		Action:     action,
		AlertID:    alert.ID,
		Alert:      alert.Clone(),
		OccurredAt: now.UTC(),
	}
}

func NewDeletedEvent(action string, alertID uuid.UUID, now time.Time) *AlertEvent {
	return &AlertEvent{
		Type:       EventAlertDeleted,
		Action:     action,
		AlertID:    alertID,
		OccurredAt: now.UTC(),
	}
}
