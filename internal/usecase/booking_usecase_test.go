package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"clinic-slot-booking/config"
	"clinic-slot-booking/internal/domain/entity"
	repoimpl "clinic-slot-booking/internal/repository"
	"clinic-slot-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory database with the same schema and the
// same partial unique index the migrations create, so booking races are
// arbitrated exactly as they are in production.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Slot{},
		&entity.Booking{},
		&entity.AuditLog{},
	))
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_slot_confirmed ON bookings(slot_id) WHERE status = 'confirmed'",
	).Error)

	require.NoError(t, db.Create(&entity.Role{ID: entity.RoleIDAdmin, RoleName: entity.RoleAdmin}).Error)
	require.NoError(t, db.Create(&entity.Role{ID: entity.RoleIDPatient, RoleName: entity.RolePatient}).Error)

	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type testEnv struct {
	db       *gorm.DB
	bookings BookingUsecase
	slots    SlotUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	log := newTestLogger()
	cfg := config.DefaultScheduleConfig()

	slotRepo := repoimpl.NewSlotRepository()
	bookingRepo := repoimpl.NewBookingRepository()
	auditRepo := repoimpl.NewAuditLogRepository()

	availability := service.NewAvailabilityService(db, log, cfg, slotRepo, bookingRepo)
	audit := service.NewAuditService(db, log, auditRepo)

	return &testEnv{
		db:       db,
		bookings: NewBookingUsecase(db, log, slotRepo, bookingRepo, availability, audit),
		slots:    NewSlotUsecase(db, log, cfg.MaxGenerateDays, slotRepo, availability, audit),
	}
}

func (e *testEnv) createUser(t *testing.T, roleID int) *entity.User {
	t.Helper()
	user := &entity.User{
		RoleID:   roleID,
		Email:    fmt.Sprintf("%s@clinic.test", uuid.NewString()),
		Password: "hashed",
		FullName: "Test User",
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createSlot(t *testing.T, startAt, endAt time.Time) *entity.Slot {
	t.Helper()
	slot := &entity.Slot{StartAt: startAt, EndAt: endAt}
	require.NoError(t, e.db.Create(slot).Error)
	return slot
}

// slotDaysFromNow returns daysAhead days from now at the given UTC hour/minute
func slotDaysFromNow(daysAhead, hour, minute int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func TestBookSlot_Success(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(1, 10, 0), slotDaysFromNow(1, 10, 30))

	res, err := env.bookings.BookSlot(context.Background(), patient.ID, slot.ID.String())
	require.NoError(t, err)
	require.Equal(t, string(entity.BookingStatusConfirmed), res.Status)
	require.Equal(t, slot.ID, res.SlotID)
	require.Equal(t, patient.ID, res.UserID)

	var stored entity.Slot
	require.NoError(t, env.db.First(&stored, "id = ?", slot.ID).Error)
	require.True(t, stored.IsBooked)

	var auditCount int64
	require.NoError(t, env.db.Model(&entity.AuditLog{}).
		Where("action = ?", entity.AuditActionBookingCreate).
		Count(&auditCount).Error)
	require.EqualValues(t, 1, auditCount)
}

func TestBookSlot_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)

	_, err := env.bookings.BookSlot(context.Background(), patient.ID, "")
	require.ErrorIs(t, err, ErrMissingSlotID)

	_, err = env.bookings.BookSlot(context.Background(), patient.ID, "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidSlotID)

	_, err = env.bookings.BookSlot(context.Background(), patient.ID, uuid.NewString())
	require.ErrorIs(t, err, ErrSlotNotFound)
}

func TestBookSlot_AlreadyBooked(t *testing.T) {
	env := newTestEnv(t)
	first := env.createUser(t, entity.RoleIDPatient)
	second := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(1, 11, 0), slotDaysFromNow(1, 11, 30))

	_, err := env.bookings.BookSlot(context.Background(), first.ID, slot.ID.String())
	require.NoError(t, err)

	_, err = env.bookings.BookSlot(context.Background(), second.ID, slot.ID.String())
	require.ErrorIs(t, err, ErrSlotAlreadyBooked)
}

func TestBookSlot_PastSlot(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(-1, 10, 0), slotDaysFromNow(-1, 10, 30))

	_, err := env.bookings.BookSlot(context.Background(), patient.ID, slot.ID.String())
	require.ErrorIs(t, err, ErrPastSlot)
}

func TestBookSlot_OverlappingBooking(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)

	booked := env.createSlot(t, slotDaysFromNow(1, 10, 0), slotDaysFromNow(1, 10, 30))
	overlapping := env.createSlot(t, slotDaysFromNow(1, 10, 15), slotDaysFromNow(1, 10, 45))
	touching := env.createSlot(t, slotDaysFromNow(1, 10, 30), slotDaysFromNow(1, 11, 0))

	_, err := env.bookings.BookSlot(context.Background(), patient.ID, booked.ID.String())
	require.NoError(t, err)

	_, err = env.bookings.BookSlot(context.Background(), patient.ID, overlapping.ID.String())
	require.ErrorIs(t, err, ErrOverlappingBooking)

	// Half-open windows: a slot starting exactly where another ends is fine
	_, err = env.bookings.BookSlot(context.Background(), patient.ID, touching.ID.String())
	require.NoError(t, err)
}

func TestBookSlot_OverlapDoesNotBlockOtherPatients(t *testing.T) {
	env := newTestEnv(t)
	first := env.createUser(t, entity.RoleIDPatient)
	second := env.createUser(t, entity.RoleIDPatient)

	slotA := env.createSlot(t, slotDaysFromNow(1, 9, 0), slotDaysFromNow(1, 9, 30))
	slotB := env.createSlot(t, slotDaysFromNow(1, 9, 15), slotDaysFromNow(1, 9, 45))

	_, err := env.bookings.BookSlot(context.Background(), first.ID, slotA.ID.String())
	require.NoError(t, err)

	// The overlap rule is per patient, not global
	_, err = env.bookings.BookSlot(context.Background(), second.ID, slotB.ID.String())
	require.NoError(t, err)
}

func TestBookSlot_ConcurrentRequestsSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	slot := env.createSlot(t, slotDaysFromNow(1, 14, 0), slotDaysFromNow(1, 14, 30))

	const workers = 8
	users := make([]*entity.User, workers)
	for i := range users {
		users[i] = env.createUser(t, entity.RoleIDPatient)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.bookings.BookSlot(context.Background(), users[i].ID, slot.ID.String())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrSlotAlreadyBooked)
	}
	require.Equal(t, 1, succeeded)

	var confirmed int64
	require.NoError(t, env.db.Model(&entity.Booking{}).
		Where("slot_id = ? AND status = ?", slot.ID, entity.BookingStatusConfirmed).
		Count(&confirmed).Error)
	require.EqualValues(t, 1, confirmed)

	var stored entity.Slot
	require.NoError(t, env.db.First(&stored, "id = ?", slot.ID).Error)
	require.True(t, stored.IsBooked)
}

func TestCancelBooking_ReleasesSlotForRebooking(t *testing.T) {
	env := newTestEnv(t)
	first := env.createUser(t, entity.RoleIDPatient)
	second := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(2, 10, 0), slotDaysFromNow(2, 10, 30))

	booked, err := env.bookings.BookSlot(context.Background(), first.ID, slot.ID.String())
	require.NoError(t, err)

	cancelled, err := env.bookings.CancelBooking(context.Background(), first.ID, entity.RoleIDPatient, booked.ID.String())
	require.NoError(t, err)
	require.Equal(t, string(entity.BookingStatusCancelled), cancelled.Status)

	var stored entity.Slot
	require.NoError(t, env.db.First(&stored, "id = ?", slot.ID).Error)
	require.False(t, stored.IsBooked)

	// A released slot is bookable again, the cancelled row notwithstanding
	rebooked, err := env.bookings.BookSlot(context.Background(), second.ID, slot.ID.String())
	require.NoError(t, err)
	require.Equal(t, second.ID, rebooked.UserID)
}

func TestBookingLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.createUser(t, entity.RoleIDPatient)
	p2 := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(5, 9, 0), slotDaysFromNow(5, 9, 30))
	ctx := context.Background()

	booked, err := env.bookings.BookSlot(ctx, p1.ID, slot.ID.String())
	require.NoError(t, err)
	require.Equal(t, string(entity.BookingStatusConfirmed), booked.Status)

	_, err = env.bookings.BookSlot(ctx, p2.ID, slot.ID.String())
	require.ErrorIs(t, err, ErrSlotAlreadyBooked)

	cancelled, err := env.bookings.CancelBooking(ctx, p1.ID, entity.RoleIDPatient, booked.ID.String())
	require.NoError(t, err)
	require.Equal(t, string(entity.BookingStatusCancelled), cancelled.Status)

	rebooked, err := env.bookings.BookSlot(ctx, p2.ID, slot.ID.String())
	require.NoError(t, err)
	require.Equal(t, p2.ID, rebooked.UserID)
	require.Equal(t, string(entity.BookingStatusConfirmed), rebooked.Status)
}

func TestCancelBooking_Permissions(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, entity.RoleIDPatient)
	stranger := env.createUser(t, entity.RoleIDPatient)
	admin := env.createUser(t, entity.RoleIDAdmin)
	slot := env.createSlot(t, slotDaysFromNow(2, 11, 0), slotDaysFromNow(2, 11, 30))

	booked, err := env.bookings.BookSlot(context.Background(), owner.ID, slot.ID.String())
	require.NoError(t, err)

	_, err = env.bookings.CancelBooking(context.Background(), stranger.ID, entity.RoleIDPatient, booked.ID.String())
	require.ErrorIs(t, err, ErrInsufficientPermissions)

	// Admins may cancel on behalf of any patient
	cancelled, err := env.bookings.CancelBooking(context.Background(), admin.ID, entity.RoleIDAdmin, booked.ID.String())
	require.NoError(t, err)
	require.Equal(t, string(entity.BookingStatusCancelled), cancelled.Status)
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(2, 12, 0), slotDaysFromNow(2, 12, 30))

	booked, err := env.bookings.BookSlot(context.Background(), patient.ID, slot.ID.String())
	require.NoError(t, err)

	_, err = env.bookings.CancelBooking(context.Background(), patient.ID, entity.RoleIDPatient, booked.ID.String())
	require.NoError(t, err)

	_, err = env.bookings.CancelBooking(context.Background(), patient.ID, entity.RoleIDPatient, booked.ID.String())
	require.ErrorIs(t, err, ErrBookingAlreadyCancelled)
}

func TestCancelBooking_PastAppointment(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(-1, 10, 0), slotDaysFromNow(-1, 10, 30))

	booking := &entity.Booking{
		UserID: patient.ID,
		SlotID: slot.ID,
		Status: entity.BookingStatusConfirmed,
	}
	require.NoError(t, env.db.Create(booking).Error)

	_, err := env.bookings.CancelBooking(context.Background(), patient.ID, entity.RoleIDPatient, booking.ID.String())
	require.ErrorIs(t, err, ErrPastBooking)
}

func TestCancelBooking_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)

	_, err := env.bookings.CancelBooking(context.Background(), patient.ID, entity.RoleIDPatient, "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidBookingID)

	_, err = env.bookings.CancelBooking(context.Background(), patient.ID, entity.RoleIDPatient, uuid.NewString())
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetMyBookings_ScopedToUser(t *testing.T) {
	env := newTestEnv(t)
	first := env.createUser(t, entity.RoleIDPatient)
	second := env.createUser(t, entity.RoleIDPatient)

	slotA := env.createSlot(t, slotDaysFromNow(1, 13, 0), slotDaysFromNow(1, 13, 30))
	slotB := env.createSlot(t, slotDaysFromNow(1, 15, 0), slotDaysFromNow(1, 15, 30))

	_, err := env.bookings.BookSlot(context.Background(), first.ID, slotA.ID.String())
	require.NoError(t, err)
	_, err = env.bookings.BookSlot(context.Background(), second.ID, slotB.ID.String())
	require.NoError(t, err)

	mine, err := env.bookings.GetMyBookings(context.Background(), first.ID)
	require.NoError(t, err)
	require.Equal(t, 1, mine.Total)
	require.Equal(t, slotA.ID, mine.Bookings[0].SlotID)
	require.NotNil(t, mine.Bookings[0].Slot)

	all, err := env.bookings.GetAllBookings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, all.Total)
}

func TestBookSlot_FailedClaimLeavesSlotFree(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)
	other := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(3, 10, 0), slotDaysFromNow(3, 10, 30))

	// Plant a confirmed booking directly so the insert hits the partial
	// unique index while the flag still reads free.
	planted := &entity.Booking{
		UserID: other.ID,
		SlotID: slot.ID,
		Status: entity.BookingStatusConfirmed,
	}
	require.NoError(t, env.db.Create(planted).Error)

	_, err := env.bookings.BookSlot(context.Background(), patient.ID, slot.ID.String())
	require.ErrorIs(t, err, ErrSlotAlreadyBooked)

	// The failed claim must not have flipped the flag or left rows behind
	var stored entity.Slot
	require.NoError(t, env.db.First(&stored, "id = ?", slot.ID).Error)
	require.False(t, stored.IsBooked)

	var count int64
	require.NoError(t, env.db.Model(&entity.Booking{}).
		Where("slot_id = ?", slot.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestBookSlot_DuplicateCheckIgnoresCancelledRows(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)
	other := env.createUser(t, entity.RoleIDPatient)
	slot := env.createSlot(t, slotDaysFromNow(3, 11, 0), slotDaysFromNow(3, 11, 30))

	cancelledRow := &entity.Booking{
		UserID: other.ID,
		SlotID: slot.ID,
		Status: entity.BookingStatusCancelled,
	}
	require.NoError(t, env.db.Create(cancelledRow).Error)

	_, err := env.bookings.BookSlot(context.Background(), patient.ID, slot.ID.String())
	require.NoError(t, err)

	var history []entity.Booking
	require.NoError(t, env.db.Where("slot_id = ?", slot.ID).Find(&history).Error)
	require.Len(t, history, 2)
}

func TestBookSlot_CancelledOverlapDoesNotBlock(t *testing.T) {
	env := newTestEnv(t)
	patient := env.createUser(t, entity.RoleIDPatient)

	slotA := env.createSlot(t, slotDaysFromNow(4, 10, 0), slotDaysFromNow(4, 10, 30))
	slotB := env.createSlot(t, slotDaysFromNow(4, 10, 15), slotDaysFromNow(4, 10, 45))

	booked, err := env.bookings.BookSlot(context.Background(), patient.ID, slotA.ID.String())
	require.NoError(t, err)
	_, err = env.bookings.CancelBooking(context.Background(), patient.ID, entity.RoleIDPatient, booked.ID.String())
	require.NoError(t, err)

	// Only confirmed bookings participate in overlap checks
	_, err = env.bookings.BookSlot(context.Background(), patient.ID, slotB.ID.String())
	require.NoError(t, err)
}
