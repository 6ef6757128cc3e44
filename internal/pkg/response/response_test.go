package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombooking/internal/pkg/result"
)

func render(res result.Result, err error) (*httptest.ResponseRecorder, map[string]any) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromResult(c, http.StatusCreated, res, err)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestFromResult_StatusMapping(t *testing.T) {
	tests := []struct {
		res    result.Result
		status int
		code   string
	}{
		{result.NotFound("missing"), http.StatusNotFound, "NOT_FOUND"},
		{result.Forbidden("no"), http.StatusForbidden, "FORBIDDEN"},
		{result.Conflict("taken"), http.StatusConflict, "CONFLICT"},
		{result.Invalid("bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w, body := render(tt.res, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			errBody := body["error"].(map[string]any)
			assert.Equal(t, tt.code, errBody["code"])
			assert.Equal(t, tt.res.Message, errBody["message"])
		})
	}
}

func TestFromResult_OKCarriesID(t *testing.T) {
	w, body := render(result.Created(42, "created"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(42), data["id"])
	assert.Equal(t, "created", data["message"])
}

func TestFromResult_InfraHidesCause(t *testing.T) {
	w, body := render(result.Result{}, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, result.PublicMessage, errBody["message"])
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
