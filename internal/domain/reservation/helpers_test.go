package reservation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"roombooking/internal/clock"
	"roombooking/internal/database"
	"roombooking/internal/domain/catalog"
	"roombooking/internal/pkg/result"
)

var ict = time.FixedZone("ICT", 7*3600)

func at(day, hour, min int) time.Time {
	return time.Date(2026, time.March, day, hour, min, 0, 0, ict)
}

type MockGate struct {
	mock.Mock
}

func (m *MockGate) Check(ctx context.Context, userID, roomTypeID int64, partySize int) (result.Result, error) {
	args := m.Called(ctx, userID, roomTypeID, partySize)
	return args.Get(0).(result.Result), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyReservationCreated(ctx context.Context, userID, reservationID int64, roomID *int64, start time.Time) error {
	return m.Called(ctx, userID, reservationID, roomID, start).Error(0)
}

func (m *MockNotifier) NotifyReservationApproved(ctx context.Context, userID, reservationID int64) error {
	return m.Called(ctx, userID, reservationID).Error(0)
}

func (m *MockNotifier) NotifyReservationRejected(ctx context.Context, userID, reservationID int64, reason string) error {
	return m.Called(ctx, userID, reservationID, reason).Error(0)
}

func (m *MockNotifier) NotifyReservationCancelled(ctx context.Context, userID, reservationID int64, reason string) error {
	return m.Called(ctx, userID, reservationID, reason).Error(0)
}

func (m *MockNotifier) NotifyReservationCompleted(ctx context.Context, userID, reservationID int64) error {
	return m.Called(ctx, userID, reservationID).Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendReviewLink(ctx context.Context, userID, reservationID int64) error {
	return m.Called(ctx, userID, reservationID).Error(0)
}

type fixture struct {
	db       *gorm.DB
	store    *Store
	engine   *Engine
	clock    *clock.Fake
	gate     *MockGate
	notifier *MockNotifier
	mailer   *MockMailer

	groupType catalog.RoomType
	roomA     catalog.Room
	roomB     catalog.Room
}

const (
	alice int64 = 101
	bob   int64 = 102
)

var staff = Actor{UserID: 900, Staff: true}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:reservation_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalog.RoomType{}, &catalog.Room{}, &catalog.ScheduleBlock{},
		&Reservation{}, &UsageRecord{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		db:       db,
		store:    NewStore(db),
		clock:    clock.NewFake(at(2, 6, 0)),
		gate:     new(MockGate),
		notifier: new(MockNotifier),
		mailer:   new(MockMailer),
	}

	f.groupType = catalog.RoomType{Name: "Group study room", Capacity: 7, MinOccupancy: 5}
	require.NoError(t, db.Create(&f.groupType).Error)
	f.roomA = catalog.Room{RoomTypeID: f.groupType.ID, Name: "G-101", IsActive: true}
	f.roomB = catalog.Room{RoomTypeID: f.groupType.ID, Name: "G-102", IsActive: true}
	require.NoError(t, db.Create(&f.roomA).Error)
	require.NoError(t, db.Create(&f.roomB).Error)

	f.gate.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(result.OK(""), nil).Maybe()
	for _, m := range []string{
		"NotifyReservationApproved", "NotifyReservationCompleted",
	} {
		f.notifier.On(m, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	}
	for _, m := range []string{
		"NotifyReservationRejected", "NotifyReservationCancelled",
	} {
		f.notifier.On(m, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	}
	f.notifier.On("NotifyReservationCreated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.mailer.On("SendReviewLink", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	f.engine = NewEngine(f.store, f.gate, f.notifier, f.mailer, f.clock, DefaultPolicy(), nil)
	return f
}

// book creates a reservation on a specific room and fails the test unless it succeeds.
func (f *fixture) book(t *testing.T, user int64, roomID int64, start, end time.Time) int64 {
	t.Helper()
	res, err := f.engine.Create(context.Background(), user, CreateInput{
		RoomTypeID: f.groupType.ID,
		RoomID:     &roomID,
		Start:      start,
		End:        &end,
		PartySize:  5,
	})
	require.NoError(t, err)
	require.True(t, res.OK(), res.Message)
	require.NotZero(t, res.ID)
	return res.ID
}

// approved books and approves a reservation while the clock is still early.
func (f *fixture) approved(t *testing.T, user int64, roomID int64, start, end time.Time) int64 {
	t.Helper()
	id := f.book(t, user, roomID, start, end)
	res, err := f.engine.Approve(context.Background(), staff, id)
	require.NoError(t, err)
	require.True(t, res.OK(), res.Message)
	return id
}

// inUse books, approves and checks in at the start time, then restores the clock.
func (f *fixture) inUse(t *testing.T, user int64, roomID int64, start, end time.Time) int64 {
	t.Helper()
	id := f.approved(t, user, roomID, start, end)
	saved := f.clock.Now()
	f.clock.Set(start)
	res, err := f.engine.CheckIn(context.Background(), Actor{UserID: user}, id)
	require.NoError(t, err)
	require.True(t, res.OK(), res.Message)
	f.clock.Set(saved)
	return id
}

func (f *fixture) reload(t *testing.T, id int64) *Reservation {
	t.Helper()
	r, err := f.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return r
}
