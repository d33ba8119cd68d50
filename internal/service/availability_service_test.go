package service

import (
	"io"
	"testing"
	"time"

	"clinic-slot-booking/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *AvailabilityService {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewAvailabilityService(nil, log, config.DefaultScheduleConfig(), nil, nil)
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 9, 7, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical windows", at(10, 0), at(10, 30), at(10, 0), at(10, 30), true},
		{"b inside a", at(10, 0), at(11, 0), at(10, 15), at(10, 45), true},
		{"a inside b", at(10, 15), at(10, 45), at(10, 0), at(11, 0), true},
		{"partial overlap left", at(10, 0), at(10, 30), at(10, 15), at(10, 45), true},
		{"partial overlap right", at(10, 15), at(10, 45), at(10, 0), at(10, 30), true},
		{"a ends where b starts", at(10, 0), at(10, 30), at(10, 30), at(11, 0), false},
		{"b ends where a starts", at(10, 30), at(11, 0), at(10, 0), at(10, 30), false},
		{"disjoint", at(9, 0), at(9, 30), at(10, 0), at(10, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestGenerateWeekdaySlots_FullWeek(t *testing.T) {
	svc := newTestService()

	// 2026-09-07 is a Monday
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	windows := svc.GenerateWeekdaySlots(monday, 7)

	// 5 weekdays, 16 half-hour slots per 09:00-17:00 day
	require.Len(t, windows, 80)

	first := windows[0]
	assert.Equal(t, at(9, 0), first.StartAt)
	assert.Equal(t, at(9, 30), first.EndAt)

	last := windows[len(windows)-1]
	assert.Equal(t, time.Date(2026, 9, 11, 16, 30, 0, 0, time.UTC), last.StartAt)
	assert.Equal(t, time.Date(2026, 9, 11, 17, 0, 0, 0, time.UTC), last.EndAt)

	for _, w := range windows {
		wd := w.StartAt.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		assert.Equal(t, 30*time.Minute, w.EndAt.Sub(w.StartAt))
	}
}

func TestGenerateWeekdaySlots_WeekendStart(t *testing.T) {
	svc := newTestService()

	// 2026-09-05 is a Saturday
	saturday := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, svc.GenerateWeekdaySlots(saturday, 2))

	// Extending the range one more day reaches Monday
	windows := svc.GenerateWeekdaySlots(saturday, 3)
	require.Len(t, windows, 16)
	assert.Equal(t, at(9, 0), windows[0].StartAt)

	// A full week starting Saturday still yields only the 5 weekdays
	week := svc.GenerateWeekdaySlots(saturday, 7)
	require.Len(t, week, 80)
	assert.Equal(t, at(9, 0), week[0].StartAt)
}

func TestGenerateWeekdaySlots_IgnoresTimeOfDay(t *testing.T) {
	svc := newTestService()

	// Generation anchors on the calendar day, not the current instant
	lateMonday := time.Date(2026, 9, 7, 23, 45, 0, 0, time.UTC)
	windows := svc.GenerateWeekdaySlots(lateMonday, 1)
	require.Len(t, windows, 16)
	assert.Equal(t, at(9, 0), windows[0].StartAt)
}

func TestGenerateWeekdaySlots_UnevenClosingHour(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := config.ScheduleConfig{
		DayStartHour: 9,
		DayEndHour:   17,
		SlotMinutes:  45,
	}
	svc := NewAvailabilityService(nil, log, cfg, nil, nil)

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	windows := svc.GenerateWeekdaySlots(monday, 1)

	// 8 working hours fit ten 45-minute slots; the 30-minute remainder
	// past 16:30 is not emitted as a short slot.
	require.Len(t, windows, 10)
	last := windows[len(windows)-1]
	assert.Equal(t, at(15, 45), last.StartAt)
	assert.Equal(t, at(16, 30), last.EndAt)
}
