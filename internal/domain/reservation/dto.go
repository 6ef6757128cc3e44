package reservation

import "time"

type CreateReservationRequest struct {
	RoomTypeID int64      `json:"room_type_id" validate:"required,gt=0"`
	RoomID     *int64     `json:"room_id" validate:"omitempty,gt=0"`
	StartTime  time.Time  `json:"start_time" validate:"required"`
	EndTime    *time.Time `json:"end_time"`
	PartySize  int        `json:"party_size" validate:"required,gt=0"`
	Reason     string     `json:"reason" validate:"max=1000"`
	Note       string     `json:"note" validate:"max=1000"`
}

type ExtendRequest struct {
	NewEndTime time.Time `json:"new_end_time" validate:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
	Note   string `json:"note" validate:"max=1000"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type UpdateUsageRequest struct {
	Condition string `json:"condition" validate:"required,max=255"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type ReservationResponse struct {
	Reservation
	Usage *UsageRecord `json:"usage,omitempty"`
}
