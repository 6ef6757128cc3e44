package rating

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roombooking/internal/pkg/response"
	"roombooking/internal/pkg/validator"
)

type CreateRatingRequest struct {
	RoomID        int64  `json:"room_id" validate:"required,gt=0"`
	ReservationID int64  `json:"reservation_id" validate:"required,gt=0"`
	Score         int    `json:"score" validate:"required,min=1,max=5"`
	Comment       string `json:"comment" validate:"max=2000"`
}

type EditRatingRequest struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ratings", h.Create)
	rg.PATCH("/ratings/:id", h.Edit)
	rg.GET("/rooms/:id/ratings", h.ListByRoom)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	res, err := h.service.Create(c.Request.Context(), c.GetInt64("user_id"), req.RoomID, req.ReservationID, req.Score, req.Comment)
	response.FromResult(c, http.StatusCreated, res, err)
}

func (h *Handler) Edit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid rating id")
		return
	}

	var req EditRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	res, err := h.service.Edit(c.Request.Context(), c.GetInt64("user_id"), id, req.Score, req.Comment)
	response.FromResult(c, http.StatusOK, res, err)
}

func (h *Handler) ListByRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || roomID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid room id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	summary, err := h.service.ListByRoom(c.Request.Context(), roomID, limit)
	if err != nil {
		response.Unavailable(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}
