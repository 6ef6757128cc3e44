package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roombooking/internal/clock"
	"roombooking/internal/database"
)

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Join(userID int64, group string)  { m.Called(userID, group) }
func (m *MockRegistry) Leave(userID int64, group string) { m.Called(userID, group) }

func (m *MockRegistry) SendToUser(_ context.Context, userID int64, event *Event) bool {
	return m.Called(userID, event).Bool(0)
}

func (m *MockRegistry) SendToGroup(_ context.Context, group string, event *Event) int {
	return m.Called(group, event).Int(0)
}

var ict = time.FixedZone("ICT", 7*3600)

func setupService(t *testing.T, registry Registry, now time.Time) (*Service, *Repository) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Connect(fmt.Sprintf("file:notification_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Notification{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := NewRepository(db)
	return NewService(repo, registry, clock.NewFake(now), 7*24*time.Hour, nil), repo
}

func TestNotifyReservationCreated_PushesToUserAndStaff(t *testing.T) {
	reg := new(MockRegistry)
	reg.On("SendToUser", int64(7), mock.MatchedBy(func(e *Event) bool {
		return e.Type == EventNotification
	})).Return(true).Once()
	reg.On("SendToGroup", GroupStaff, mock.MatchedBy(func(e *Event) bool {
		return e.Type == string(TypeReservationSubmitted)
	})).Return(1).Once()

	svc, repo := setupService(t, reg, time.Date(2026, time.March, 1, 8, 0, 0, 0, ict))
	ctx := context.Background()
	roomID := int64(3)
	start := time.Date(2026, time.March, 2, 2, 0, 0, 0, time.UTC)

	require.NoError(t, svc.NotifyReservationCreated(ctx, 7, 42, &roomID, start))
	reg.AssertExpectations(t)

	list, total, err := repo.ListByUser(ctx, 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, TypeReservationCreated, list[0].Type)
	assert.Contains(t, list[0].Body, "02/03/2026 09:00")

	data := list[0].GetData()
	assert.Equal(t, int64(42), data.ReservationID)
	require.NotNil(t, data.RoomID)
	assert.Equal(t, roomID, *data.RoomID)
}

func TestNotify_WithoutRegistryOnlyStores(t *testing.T) {
	svc, _ := setupService(t, nil, time.Now())
	ctx := context.Background()

	require.NoError(t, svc.NotifyReservationRejected(ctx, 7, 1, "Room closed for exams"))
	require.NoError(t, svc.NotifyReservationCompleted(ctx, 7, 2))

	list, unread, total, err := svc.List(ctx, 7, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)

	var rejected *Notification
	for i := range list {
		if list[i].Type == TypeReservationRejected {
			rejected = &list[i]
		}
	}
	require.NotNil(t, rejected)
	assert.Contains(t, rejected.Body, "Room closed for exams")
	require.NotNil(t, rejected.GetData().Reason)
}

func TestNotifyReservationCompleted_QuotesRatingWindow(t *testing.T) {
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, ict)
	_, repo := setupService(t, nil, now)
	svc := NewService(repo, nil, clock.NewFake(now), 72*time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, svc.NotifyReservationCompleted(ctx, 7, 2))

	list, _, err := repo.ListByUser(ctx, 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Body, "within the next 3 days")
	assert.NotContains(t, list[0].Body, "7 days")
}

func TestMarkAsRead(t *testing.T) {
	svc, _ := setupService(t, nil, time.Now())
	ctx := context.Background()

	n, err := svc.Create(ctx, 7, TypeReservationApproved, "Reservation approved", "", &Data{ReservationID: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 7, TypeReservationCancelled, "Reservation cancelled", "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkAsRead(ctx, n.ID, 8), ErrNotFound)
	require.NoError(t, svc.MarkAsRead(ctx, n.ID, 7))

	count, err := svc.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkAllAsRead(ctx, 7))
	count, err = svc.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPurgeRead_KeepsUnread(t *testing.T) {
	svc, repo := setupService(t, nil, time.Now().Add(31*24*time.Hour))
	ctx := context.Background()

	read, err := svc.Create(ctx, 7, TypeReservationApproved, "a", "", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 7, TypeReservationApproved, "b", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.MarkAsRead(ctx, read.ID, 7))

	n, err := svc.PurgeRead(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, total, err := repo.ListByUser(ctx, 7, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "b", list[0].Title)
}

func TestEventPayloadEncodesNotification(t *testing.T) {
	n := &Notification{ID: 5, UserID: 7, Type: TypeReservationApproved, Title: "ok"}
	b, err := json.Marshal(&Event{Type: EventNotification, Payload: n})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification","payload":{"id":5,"user_id":7,"type":"reservation_approved","title":"ok","is_read":false,"created_at":"0001-01-01T00:00:00Z"}}`, string(b))
}
