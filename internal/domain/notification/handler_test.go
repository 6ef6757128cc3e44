package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombooking/internal/pkg/jwt"
)

func setupHandler(t *testing.T) (*gin.Engine, *Service, *Hub, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(nil)
	svc, _ := setupService(t, hub, time.Now())
	tokens := jwt.New("test_secret_key_32_characters_min", time.Hour)
	h := NewHandler(svc, hub, tokens, nil, nil)

	r := gin.New()
	h.RegisterWS(r)
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("user_id", int64(7))
		c.Next()
	})
	h.RegisterRoutes(api)
	return r, svc, hub, tokens
}

func TestServeWS_RejectsBadToken(t *testing.T) {
	r, _, _, _ := setupHandler(t)

	for _, path := range []string{"/ws", "/ws?token=garbage"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestServeWS_StaffReceivesSubmissions(t *testing.T) {
	r, svc, hub, tokens := setupHandler(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token, err := tokens.GenerateToken(900, jwt.RoleStaff)
	require.NoError(t, err)
	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+token)
	require.Eventually(t, func() bool { return hub.IsOnline(900) }, 2*time.Second, 10*time.Millisecond)

	roomID := int64(3)
	require.NoError(t, svc.NotifyReservationCreated(context.Background(), 7, 42, &roomID, time.Now().Add(time.Hour)))

	ev := readEvent(t, conn)
	assert.Equal(t, string(TypeReservationSubmitted), ev["type"])
	assert.Equal(t, float64(42), ev["payload"].(map[string]any)["reservation_id"])
}

func TestListAndMarkRead(t *testing.T) {
	r, svc, _, _ := setupHandler(t)
	n, err := svc.Create(context.Background(), 7, TypeReservationApproved, "Reservation approved", "", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			UnreadCount int64 `json:"unread_count"`
			Total       int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Data.UnreadCount)
	assert.Equal(t, int64(1), body.Data.Total)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/999/read", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/"+strconv.FormatInt(n.ID, 10)+"/read", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
