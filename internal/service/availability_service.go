package service

import (
	"context"
	"errors"
	"time"

	"clinic-slot-booking/config"
	"clinic-slot-booking/internal/domain/entity"
	"clinic-slot-booking/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrMissingDates      = errors.New("both from and to dates are required")
	ErrInvalidDateFormat = errors.New("invalid date format, use YYYY-MM-DD")
	ErrPastDate          = errors.New("from date cannot be in the past")
	ErrDateRangeTooLarge = errors.New("date range exceeds the allowed window")
)

const dateLayout = "2006-01-02"

// SlotWindow is a candidate (startAt, endAt) pair produced by weekday
// generation, before any store lookup.
type SlotWindow struct {
	StartAt time.Time
	EndAt   time.Time
}

// AvailabilityService computes free/booked slots over date ranges and
// detects time-window collisions against a patient's confirmed
// bookings. All instants are on the server clock in UTC; there is no
// per-user timezone handling.
type AvailabilityService struct {
	db          *gorm.DB
	log         *logrus.Logger
	cfg         config.ScheduleConfig
	slotRepo    repository.SlotRepository
	bookingRepo repository.BookingRepository
}

func NewAvailabilityService(
	db *gorm.DB,
	log *logrus.Logger,
	cfg config.ScheduleConfig,
	slotRepo repository.SlotRepository,
	bookingRepo repository.BookingRepository,
) *AvailabilityService {
	return &AvailabilityService{
		db:          db,
		log:         log,
		cfg:         cfg,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
	}
}

// ListSlots returns slots between two calendar dates, grouped by date
// and ordered by start time within each day. The window spans
// [from 00:00:00, to 23:59:59] UTC.
//
// publicView applies the patient-facing restrictions: from must not
// resolve to before the current day and the range is capped.
func (s *AvailabilityService) ListSlots(ctx context.Context, fromStr, toStr string, includeBooked, publicView bool) (map[string][]entity.Slot, error) {
	if fromStr == "" || toStr == "" {
		return nil, ErrMissingDates
	}

	from, err := time.ParseInLocation(dateLayout, fromStr, time.UTC)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	to, err := time.ParseInLocation(dateLayout, toStr, time.UTC)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	if publicView {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if from.Before(today) {
			return nil, ErrPastDate
		}
		if to.Sub(from) > time.Duration(s.cfg.MaxPublicRangeDays)*24*time.Hour {
			return nil, ErrDateRangeTooLarge
		}
	}

	windowStart := from
	windowEnd := to.Add(24*time.Hour - time.Second)

	slots, err := s.slotRepo.FindInRange(s.db.WithContext(ctx), windowStart, windowEnd, includeBooked)
	if err != nil {
		s.log.Warnf("Failed to find slots in range %s..%s: %+v", fromStr, toStr, err)
		return nil, err
	}

	grouped := make(map[string][]entity.Slot)
	for _, slot := range slots {
		day := slot.StartAt.UTC().Format(dateLayout)
		grouped[day] = append(grouped[day], slot)
	}
	return grouped, nil
}

// HasOverlap reports whether the user holds any confirmed booking whose
// slot window intersects the candidate slot's window.
func (s *AvailabilityService) HasOverlap(ctx context.Context, userID uuid.UUID, candidate *entity.Slot) (bool, error) {
	bookings, err := s.bookingRepo.FindConfirmedByUserID(s.db.WithContext(ctx), userID)
	if err != nil {
		s.log.Warnf("Failed to load confirmed bookings for user %s: %+v", userID, err)
		return false, err
	}

	for _, booking := range bookings {
		if booking.SlotID == candidate.ID {
			continue
		}
		if Overlaps(booking.Slot.StartAt, booking.Slot.EndAt, candidate.StartAt, candidate.EndAt) {
			return true, nil
		}
	}
	return false, nil
}

// Overlaps applies half-open interval semantics: [aStart, aEnd) and
// [bStart, bEnd) intersect iff aStart < bEnd && bStart < aEnd, so
// touching endpoints do not collide.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// GenerateWeekdaySlots produces the candidate windows for each weekday
// in [startDate, startDate+days): fixed-length slots covering the
// clinic's working hours, Saturdays and Sundays skipped. Callers are
// responsible for skipping windows that already exist in the store.
func (s *AvailabilityService) GenerateWeekdaySlots(startDate time.Time, days int) []SlotWindow {
	slotLen := time.Duration(s.cfg.SlotMinutes) * time.Minute
	day := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)

	var windows []SlotWindow
	for i := 0; i < days; i++ {
		current := day.AddDate(0, 0, i)
		if wd := current.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		open := current.Add(time.Duration(s.cfg.DayStartHour) * time.Hour)
		closing := current.Add(time.Duration(s.cfg.DayEndHour) * time.Hour)
		for start := open; !start.Add(slotLen).After(closing); start = start.Add(slotLen) {
			windows = append(windows, SlotWindow{StartAt: start, EndAt: start.Add(slotLen)})
		}
	}
	return windows
}
