package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"roombooking/internal/pkg/result"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// Unavailable answers an infrastructure failure without leaking its text.
func Unavailable(c *gin.Context, err error) {
	_ = c.Error(err)
	Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", result.PublicMessage)
}

// FromResult translates a core operation outcome into the JSON envelope.
// okStatus is used for KindOK (201 for creations, 200 otherwise).
func FromResult(c *gin.Context, okStatus int, res result.Result, err error) {
	if err != nil {
		var ie *result.InfraError
		if !errors.As(err, &ie) {
			err = result.Infra("handler", err)
		}
		Unavailable(c, err)
		return
	}

	switch res.Kind {
	case result.KindOK:
		data := gin.H{"message": res.Message}
		if res.ID != 0 {
			data["id"] = res.ID
		}
		Success(c, okStatus, data)
	case result.KindNotFound:
		Error(c, http.StatusNotFound, "NOT_FOUND", res.Message)
	case result.KindForbidden:
		Error(c, http.StatusForbidden, "FORBIDDEN", res.Message)
	case result.KindConflict:
		Error(c, http.StatusConflict, "CONFLICT", res.Message)
	default:
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", res.Message)
	}
}
