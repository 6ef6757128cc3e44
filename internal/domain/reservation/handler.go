package reservation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roombooking/internal/middleware"
	"roombooking/internal/pkg/response"
	"roombooking/internal/pkg/result"
	"roombooking/internal/pkg/validator"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetInt64("user_id"),
		Staff:  middleware.IsStaff(c.GetString("role")),
	}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+name)
		return 0, false
	}
	return id, true
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

func (h *Handler) Create(c *gin.Context) {
	var req CreateReservationRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.engine.Create(c.Request.Context(), c.GetInt64("user_id"), CreateInput{
		RoomTypeID: req.RoomTypeID,
		RoomID:     req.RoomID,
		Start:      req.StartTime,
		End:        req.EndTime,
		PartySize:  req.PartySize,
		Reason:     req.Reason,
		Note:       req.Note,
	})
	response.FromResult(c, http.StatusCreated, res, err)
}

func (h *Handler) ListMine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	out, err := h.engine.ListMine(c.Request.Context(), c.GetInt64("user_id"), limit, offset)
	if err != nil {
		response.Unavailable(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": out})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	r, usage, res, err := h.engine.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil || !res.OK() {
		response.FromResult(c, http.StatusOK, res, err)
		return
	}
	response.Success(c, http.StatusOK, ReservationResponse{Reservation: *r, Usage: usage})
}

func (h *Handler) CheckIn(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.engine.CheckIn(c.Request.Context(), actorFrom(c), id)
	response.FromResult(c, http.StatusOK, withID(res, id), err)
}

func (h *Handler) Extend(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ExtendRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.engine.Extend(c.Request.Context(), actorFrom(c), id, req.NewEndTime)
	response.FromResult(c, http.StatusOK, withID(res, id), err)
}

func (h *Handler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.engine.Complete(c.Request.Context(), actorFrom(c), id)
	response.FromResult(c, http.StatusOK, withID(res, id), err)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CancelRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.engine.Cancel(c.Request.Context(), actorFrom(c), id, req.Reason, req.Note)
	response.FromResult(c, http.StatusOK, withID(res, id), err)
}

func (h *Handler) Approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.engine.Approve(c.Request.Context(), actorFrom(c), id)
	response.FromResult(c, http.StatusOK, withID(res, id), err)
}

func (h *Handler) Reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.engine.Reject(c.Request.Context(), actorFrom(c), id, req.Reason)
	response.FromResult(c, http.StatusOK, withID(res, id), err)
}

func (h *Handler) UpdateUsage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateUsageRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.engine.UpdateUsage(c.Request.Context(), actorFrom(c), id, req.Condition, req.Notes)
	response.FromResult(c, http.StatusOK, withID(res, id), err)
}

func (h *Handler) Availability(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		date = h.engine.clock.Now().Format("2006-01-02")
	}

	day, res, err := h.engine.Availability(c.Request.Context(), roomID, date)
	if err != nil || !res.OK() {
		response.FromResult(c, http.StatusOK, res, err)
		return
	}
	response.Success(c, http.StatusOK, day)
}

func withID(res result.Result, id int64) result.Result {
	if res.OK() && res.ID == 0 {
		res.ID = id
	}
	return res
}
