package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSlotBounds(t *testing.T) {
	day, err := ParseDate("2025-03-10")
	require.NoError(t, err)

	start, end, err := Slot8To10.Bounds(day, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), end)

	start, end, err = Slot23To1.Bounds(day, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC), end)

	_, _, err = TimeSlot("bogus").Bounds(day, time.UTC)
	assert.Error(t, err)
}

func TestTimeSlotValid(t *testing.T) {
	assert.Len(t, TimeSlots, 10)
	assert.True(t, TimeSlot("15-17").Valid())
	assert.False(t, TimeSlot("14-16").Valid())
}

func TestReservationStatusTransitions(t *testing.T) {
	assert.True(t, ReservationPending.CanTransitionTo(ReservationConfirmed))
	assert.True(t, ReservationConfirmed.CanTransitionTo(ReservationCompleted))
	assert.True(t, ReservationConfirmed.CanTransitionTo(ReservationCancelled))
	assert.False(t, ReservationCompleted.CanTransitionTo(ReservationPending))
	assert.False(t, ReservationCancelled.CanTransitionTo(ReservationConfirmed))
}

func TestReservationValidate(t *testing.T) {
	code := "SAVE10"
	valid := func() *Reservation {
		return &Reservation{
			SessionNumber:   1,
			ReservationType: ReservationStandard,
			Status:          ReservationPending,
			TotalPrice:      100,
			FinalAmount:     90,
		}
	}

	assert.NoError(t, valid().Validate())

	r := valid()
	r.SessionNumber = 0
	assert.Error(t, r.Validate())

	r = valid()
	r.FinalAmount = 120
	assert.Error(t, r.Validate())

	r = valid()
	r.UsedDiscountCode = true
	assert.Error(t, r.Validate())
	r.DiscountCode = &code
	assert.NoError(t, r.Validate())

	req := time.Now()
	before := req.Add(-time.Minute)
	r = valid()
	r.RequestTimestamp = &req
	r.ReservationTimestamp = &before
	assert.Error(t, r.Validate())
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-07-01"}`), &payload))
	assert.Equal(t, "2025-07-01", payload.Date.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-07-01"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"07/01/2025"}`), &payload))
}

func TestCancellationPeriodValidate(t *testing.T) {
	now := time.Now()
	p := &CancellationPeriod{StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)}
	assert.NoError(t, p.Validate(now))
	assert.True(t, p.Covers(now.Add(90*time.Minute)))
	assert.False(t, p.Covers(now))

	p.EndTime = p.StartTime
	assert.Error(t, p.Validate(now))

	p = &CancellationPeriod{StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}
	assert.Error(t, p.Validate(now))
}
