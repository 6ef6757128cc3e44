package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roombooking/internal/middleware"
	"roombooking/internal/pkg/response"
	"roombooking/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/room-types", h.ListRoomTypes)
	rg.GET("/rooms/:id/blocks", h.ListBlocks)

	staff := rg.Group("", middleware.StaffOnly())
	staff.POST("/room-types", h.CreateRoomType)
	staff.POST("/rooms", h.CreateRoom)
	staff.POST("/rooms/:id/blocks", h.CreateBlock)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return false
	}
	return true
}

func roomID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid room id")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListRoomTypes(c *gin.Context) {
	out, err := h.service.ListRoomTypes(c.Request.Context())
	if err != nil {
		response.Unavailable(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room_types": out})
}

func (h *Handler) CreateRoomType(c *gin.Context) {
	var req CreateRoomTypeRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.CreateRoomType(c.Request.Context(), req)
	response.FromResult(c, http.StatusCreated, res, err)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.CreateRoom(c.Request.Context(), req)
	response.FromResult(c, http.StatusCreated, res, err)
}

func (h *Handler) CreateBlock(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	var req CreateBlockRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.CreateBlock(c.Request.Context(), c.GetInt64("user_id"), id, req)
	response.FromResult(c, http.StatusCreated, res, err)
}

func (h *Handler) ListBlocks(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	blocks, res, err := h.service.ListBlocks(c.Request.Context(), id, c.Query("date"))
	if err != nil || !res.OK() {
		response.FromResult(c, http.StatusOK, res, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"blocks": blocks})
}
