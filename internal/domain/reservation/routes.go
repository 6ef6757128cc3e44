package reservation

import (
	"github.com/gin-gonic/gin"

	"roombooking/internal/middleware"
)

// RegisterRoutes mounts reservation routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	r := rg.Group("/reservations")
	{
		r.POST("", h.Create)
		r.GET("/me", h.ListMine)
		r.GET("/:id", h.Get)

		r.POST("/:id/check-in", h.CheckIn)
		r.POST("/:id/extend", h.Extend)
		r.POST("/:id/complete", h.Complete)
		r.POST("/:id/cancel", h.Cancel)

		staff := r.Group("", middleware.StaffOnly())
		staff.POST("/:id/approve", h.Approve)
		staff.POST("/:id/reject", h.Reject)
		staff.PATCH("/:id/usage", h.UpdateUsage)
	}

	rg.GET("/rooms/:id/availability", h.Availability)
}
