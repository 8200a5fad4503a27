package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertType категория экстренного вызова
type AlertType string

const (
	AlertTypeMedical  AlertType = "medical"
	AlertTypeDisaster AlertType = "disaster"
	AlertTypeSafety   AlertType = "safety"
	AlertTypeFire     AlertType = "fire"
	AlertTypeAccident AlertType = "accident"
	AlertTypeCrime    AlertType = "crime"
)

const DefaultSeverity = 3

// Location географическая точка с необязательной точностью и адресом
type Location struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   string   `json:"address,omitempty"`
}

type Alert struct {
	ID           uuid.UUID   `json:"id"`
	UserID       string      `json:"user_id"`
	Type         AlertType   `json:"type"`
	Note         string      `json:"note,omitempty"`
	Location     Location    `json:"location"`
	Severity     int         `json:"severity"`
	Attachments  []string    `json:"attachments,omitempty"`
	Status       AlertStatus `json:"status"`
	AssignedTo   *uuid.UUID  `json:"assigned_to"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	ResolvedAt   *time.Time  `json:"resolved_at,omitempty"`
	MarkedDoneAt *time.Time  `json:"marked_done_at,omitempty"`
	AutoDeleteAt *time.Time  `json:"auto_delete_at,omitempty"`
}

// Clone возвращает копию алерта, не разделяющую указатели с оригиналом
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	c := *a
	if a.Location.Accuracy != nil {
		acc := *a.Location.Accuracy
		c.Location.Accuracy = &acc
	}
	if a.Attachments != nil {
		c.Attachments = append([]string(nil), a.Attachments...)
	}
	c.AssignedTo = cloneUUID(a.AssignedTo)
	c.ResolvedAt = cloneTime(a.ResolvedAt)
	c.MarkedDoneAt = cloneTime(a.MarkedDoneAt)
	c.AutoDeleteAt = cloneTime(a.AutoDeleteAt)
	return &c
}

// Expired сообщает, наступил ли срок автоудаления
func (a *Alert) Expired(now time.Time) bool {
	return a.AutoDeleteAt != nil && !a.AutoDeleteAt.After(now)
}

// NewAlert входные данные для создания алерта
type NewAlert struct {
	Type        AlertType
	Note        string
	Location    Location
	Severity    int
	Attachments []string
}

// AlertFilter фильтр для выборки алертов. Пустой Statuses означает все статусы.
type AlertFilter struct {
	Statuses []AlertStatus
	Limit    int
}

// TransitionCommand запрос на смену статуса алерта
type TransitionCommand struct {
	AlertID uuid.UUID
	Status  AlertStatus
	Note    *string
	// ResponderID нужен, когда алерт без исполнителя сразу переводится в работу
	ResponderID *uuid.UUID
}

// Actor проверенная личность, выполняющая действие
type Actor struct {
	ID   string
	Role string
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
