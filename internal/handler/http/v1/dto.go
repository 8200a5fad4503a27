package v1

import (
	"time"

	"github.com/google/uuid"
)

// LocationDTO координаты с необязательной точностью и адресом
// @Description Географическая точка
type LocationDTO struct {
	Lat      *float64 `json:"lat" validate:"required,latitude"`
	Lng      *float64 `json:"lng" validate:"required,longitude"`
	Accuracy *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	Address  string   `json:"address,omitempty" validate:"max=500"`
}

// CreateAlertRequest DTO для создания алерта
// @Description DTO для создания алерта
type CreateAlertRequest struct {
	Type        string      `json:"type" validate:"required,oneof=medical disaster safety fire accident crime"`
	Location    LocationDTO `json:"location"`
	Note        string      `json:"note,omitempty" validate:"max=2000"`
	Severity    int         `json:"severity,omitempty" validate:"omitempty,min=1,max=5"`
	Attachments []string    `json:"attachments,omitempty" validate:"max=10,dive,required,max=2048"`
}

// UpdateStatusRequest DTO для смены статуса
// @Description DTO для смены статуса алерта
type UpdateStatusRequest struct {
	Status      string     `json:"status" validate:"required"`
	Note        *string    `json:"note,omitempty" validate:"omitempty,max=2000"`
	ResponderID *uuid.UUID `json:"responder_id,omitempty"`
}

// HeartbeatRequest DTO сигнала присутствия исполнителя
// @Description DTO сигнала присутствия исполнителя
type HeartbeatRequest struct {
	ResponderID *uuid.UUID   `json:"responder_id,omitempty"`
	Type        string       `json:"responder_type,omitempty" validate:"omitempty,oneof=volunteer professional police fire medical"`
	Status      string       `json:"status,omitempty" validate:"omitempty,oneof=available busy offline"`
	Location    *LocationDTO `json:"location,omitempty"`
}

// DecisionRequest DTO ответа исполнителя на назначение
// @Description DTO ответа исполнителя на назначение
type DecisionRequest struct {
	AlertID uuid.UUID `json:"alert_id" validate:"required"`
}

// AlertResponse DTO для ответа с информацией об алерте
// @Description DTO для ответа с информацией об алерте
type AlertResponse struct {
	ID           uuid.UUID   `json:"id"`
	UserID       string      `json:"user_id"`
	Type         string      `json:"type"`
	Note         string      `json:"note,omitempty"`
	Location     LocationDTO `json:"location"`
	Severity     int         `json:"severity"`
	Attachments  []string    `json:"attachments"`
	Status       string      `json:"status"`
	AssignedTo   *uuid.UUID  `json:"assigned_to"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	ResolvedAt   *time.Time  `json:"resolved_at,omitempty"`
	MarkedDoneAt *time.Time  `json:"marked_done_at,omitempty"`
	AutoDeleteAt *time.Time  `json:"auto_delete_at,omitempty"`
}

// ResponderResponse DTO для ответа с информацией об исполнителе
// @Description DTO для ответа с информацией об исполнителе
type ResponderResponse struct {
	ID            uuid.UUID    `json:"id"`
	UserID        string       `json:"user_id"`
	Type          string       `json:"responder_type"`
	Status        string       `json:"status"`
	LastLocation  *LocationDTO `json:"last_location,omitempty"`
	LastHeartbeat time.Time    `json:"last_heartbeat"`
}

// TransitionErrorResponse тело ответа 409 при запрещенном переходе
// @Description Ошибка запрещенного перехода
type TransitionErrorResponse struct {
	Error     string `json:"error"`
	Current   string `json:"current"`
	Requested string `json:"requested"`
}
