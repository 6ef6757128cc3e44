package reservation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombooking/internal/domain/catalog"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(f *fixture, userID int64, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	})
	NewHandler(f.engine).RegisterRoutes(api)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHandler_CreateAndConflict(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f, alice, "user")

	body := gin.H{
		"room_type_id": f.groupType.ID,
		"room_id":      f.roomA.ID,
		"start_time":   at(2, 10, 0),
		"end_time":     at(2, 12, 0),
		"party_size":   5,
	}
	w, env := do(t, r, http.MethodPost, "/api/v1/reservations", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var data struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotZero(t, data.ID)

	w, env = do(t, r, http.MethodPost, "/api/v1/reservations", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)
}

func TestHandler_CreateRejectsBadBody(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f, alice, "user")

	w, env := do(t, r, http.MethodPost, "/api/v1/reservations", gin.H{"party_size": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestHandler_CancelRequiresReason(t *testing.T) {
	f := newFixture(t)
	id := f.book(t, alice, f.roomA.ID, at(2, 10, 0), at(2, 12, 0))
	r := newRouter(f, alice, "user")

	w, _ := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/cancel", id), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/cancel", id), gin.H{"reason": "conflict with lecture"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, StatusCancelled, f.reload(t, id).Status)
}

func TestHandler_ApproveIsStaffOnly(t *testing.T) {
	f := newFixture(t)
	id := f.book(t, alice, f.roomA.ID, at(2, 10, 0), at(2, 12, 0))
	path := fmt.Sprintf("/api/v1/reservations/%d/approve", id)

	w, env := do(t, newRouter(f, alice, "user"), http.MethodPost, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	w, env = do(t, newRouter(f, staff.UserID, "staff"), http.MethodPost, path, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)
}

func TestHandler_GetNotFound(t *testing.T) {
	f := newFixture(t)
	w, env := do(t, newRouter(f, alice, "user"), http.MethodGet, "/api/v1/reservations/424242", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = do(t, newRouter(f, alice, "user"), http.MethodGet, "/api/v1/reservations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListMine(t *testing.T) {
	f := newFixture(t)
	f.book(t, alice, f.roomA.ID, at(2, 10, 0), at(2, 12, 0))
	f.book(t, bob, f.roomB.ID, at(2, 10, 0), at(2, 12, 0))

	w, env := do(t, newRouter(f, alice, "user"), http.MethodGet, "/api/v1/reservations/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Reservations []Reservation `json:"reservations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Reservations, 1)
	assert.Equal(t, alice, data.Reservations[0].UserID)
}

func TestHandler_Availability(t *testing.T) {
	f := newFixture(t)
	f.book(t, alice, f.roomA.ID, at(2, 10, 0), at(2, 12, 0))
	require.NoError(t, f.db.Create(&catalog.ScheduleBlock{
		RoomID: f.roomA.ID, Date: "2026-03-02", StartTime: "14:00", EndTime: "15:00",
	}).Error)

	w, env := do(t, newRouter(f, alice, "user"), http.MethodGet,
		fmt.Sprintf("/api/v1/rooms/%d/availability?date=2026-03-02", f.roomA.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var day DayAvailability
	require.NoError(t, json.Unmarshal(env.Data, &day))
	require.Len(t, day.Free, 3)
	assert.True(t, day.Free[0].Start.Equal(at(2, 7, 0)))
	assert.True(t, day.Free[0].End.Equal(at(2, 10, 0)))
	assert.True(t, day.Free[1].Start.Equal(at(2, 12, 0)))
	assert.True(t, day.Free[1].End.Equal(at(2, 14, 0)))
	assert.True(t, day.Free[2].Start.Equal(at(2, 15, 0)))
	assert.True(t, day.Free[2].End.Equal(at(2, 21, 0)))

	w, _ = do(t, newRouter(f, alice, "user"), http.MethodGet,
		fmt.Sprintf("/api/v1/rooms/%d/availability?date=02-03-2026", f.roomA.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubtractBusy(t *testing.T) {
	open, closeAt := at(2, 7, 0), at(2, 21, 0)

	free := subtractBusy(open, closeAt, nil)
	require.Len(t, free, 1)

	free = subtractBusy(open, closeAt, []Interval{
		{Start: at(2, 9, 0), End: at(2, 11, 0)},
		{Start: at(2, 6, 0), End: at(2, 8, 0)},
		{Start: at(2, 10, 0), End: at(2, 12, 0)},
		{Start: at(2, 20, 0), End: at(2, 23, 0)},
	})
	require.Len(t, free, 2)
	assert.True(t, free[0].Start.Equal(at(2, 8, 0)))
	assert.True(t, free[0].End.Equal(at(2, 9, 0)))
	assert.True(t, free[1].Start.Equal(at(2, 12, 0)))
	assert.True(t, free[1].End.Equal(at(2, 20, 0)))
}
