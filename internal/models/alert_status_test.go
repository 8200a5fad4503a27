package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Table(t *testing.T) {
	allowed := map[AlertStatus]map[AlertStatus]bool{
		StatusPending:    {StatusAssigned: true, StatusInProgress: true, StatusResolved: true, StatusCancelled: true, StatusDone: true},
		StatusAssigned:   {StatusAccepted: true, StatusInProgress: true, StatusResolved: true, StatusCancelled: true, StatusDeclined: true, StatusDone: true},
		StatusAccepted:   {StatusInProgress: true, StatusResolved: true, StatusCancelled: true, StatusDone: true},
		StatusInProgress: {StatusResolved: true, StatusCancelled: true, StatusDone: true},
	}
	requested := append(AllStatuses(), StatusDeclined, AlertStatus("unknown"))

	for _, from := range AllStatuses() {
		for _, to := range requested {
			assert.Equalf(t, allowed[from][to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_LegacyOpenAlias(t *testing.T) {
	assert.True(t, CanTransition(StatusOpen, StatusAssigned))
	assert.False(t, CanTransition(StatusPending, StatusOpen))
	assert.Equal(t, StatusPending, ParseAlertStatus(" OPEN "))
}

func TestAlertStatus_Predicates(t *testing.T) {
	for _, s := range []AlertStatus{StatusResolved, StatusCancelled, StatusDone} {
		assert.True(t, s.Terminal(), s)
		assert.False(t, s.Active(), s)
	}
	assert.True(t, StatusAssigned.HasAssignee())
	assert.True(t, StatusAccepted.HasAssignee())
	assert.True(t, StatusInProgress.HasAssignee())
	assert.False(t, StatusPending.HasAssignee())
	assert.Equal(t, StatusPending, StatusDeclined.Resolve())
	assert.False(t, AlertStatus("bogus").Known())
}

func TestInvalidTransitionError_Is(t *testing.T) {
	err := error(&InvalidTransitionError{From: StatusResolved, To: StatusPending})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), `"resolved"`)
}

func TestAlert_CloneDoesNotShare(t *testing.T) {
	responder := uuid.New()
	deadline := time.Now().Add(time.Minute)
	a := &Alert{ID: uuid.New(), AssignedTo: &responder, AutoDeleteAt: &deadline, Attachments: []string{"a"}}

	c := a.Clone()
	*c.AssignedTo = uuid.New()
	c.Attachments[0] = "b"

	assert.Equal(t, responder, *a.AssignedTo)
	assert.Equal(t, "a", a.Attachments[0])
	assert.True(t, a.Expired(deadline))
	assert.False(t, a.Expired(deadline.Add(-time.Second)))
}
