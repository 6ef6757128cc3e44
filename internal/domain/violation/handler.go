package violation

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

type LodgeRequest struct {
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=2000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open confirmed dismissed"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/me/standing", h.MyStanding)
	rg.GET("/violation-categories", h.ListCategories)

	staff := rg.Group("", middleware.StaffOnly())
	staff.POST("/usages/:id/violations", h.Lodge)
	staff.GET("/usages/:id/violations", h.ListByUsage)
	staff.PATCH("/violations/:id", h.SetStatus)
}

func (h *Handler) MyStanding(c *gin.Context) {
	st, err := h.service.Standing(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Unavailable(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) ListCategories(c *gin.Context) {
	out, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		response.Unavailable(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": out})
}

func (h *Handler) Lodge(c *gin.Context) {
	usageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || usageID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid usage record id")
		return
	}

	var req LodgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	res, err := h.service.Lodge(c.Request.Context(), c.GetInt64("user_id"), usageID, req.CategoryID, req.Description)
	response.FromResult(c, http.StatusCreated, res, err)
}

func (h *Handler) ListByUsage(c *gin.Context) {
	usageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || usageID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid usage record id")
		return
	}
	out, err := h.service.ListByUsage(c.Request.Context(), usageID)
	if err != nil {
		response.Unavailable(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"violations": out})
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid violation id")
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	res, err := h.service.SetStatus(c.Request.Context(), id, ProcessingStatus(req.Status))
	response.FromResult(c, http.StatusOK, res, err)
}
