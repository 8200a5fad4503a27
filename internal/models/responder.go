package models

import (
	"time"

	"github.com/google/uuid"
)

type ResponderType string

const (
	ResponderVolunteer    ResponderType = "volunteer"
	ResponderProfessional ResponderType = "professional"
	ResponderPolice       ResponderType = "police"
	ResponderFire         ResponderType = "fire"
	ResponderMedical      ResponderType = "medical"
)

type ResponderStatus string

const (
	ResponderAvailable ResponderStatus = "available"
	ResponderBusy      ResponderStatus = "busy"
	ResponderOffline   ResponderStatus = "offline"
)

// Responder исполнитель, которого можно направить на алерт
type Responder struct {
	ID            uuid.UUID       `json:"id"`
	UserID        string          `json:"user_id"`
	Type          ResponderType   `json:"responder_type"`
	Status        ResponderStatus `json:"status"`
	LastLocation  *Location       `json:"last_location,omitempty"`
	LastHeartbeat time.Time       `json:"last_heartbeat"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (r *Responder) Clone() *Responder {
	if r == nil {
		return nil
	}
	c := *r
	if r.LastLocation != nil {
		loc := *r.LastLocation
		c.LastLocation = &loc
	}
	return &c
}

// Heartbeat сигнал присутствия от исполнителя
type Heartbeat struct {
	ResponderID *uuid.UUID
	UserID      string
	Type        ResponderType
	Status      ResponderStatus
	Location    *Location
}

type AssignmentDecision string

const (
	DecisionAccept  AssignmentDecision = "accept"
	DecisionDecline AssignmentDecision = "decline"
)
