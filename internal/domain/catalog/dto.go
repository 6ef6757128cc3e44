package catalog

type CreateRoomTypeRequest struct {
	Name         string `json:"name" validate:"required,max=128"`
	Description  string `json:"description" validate:"max=2000"`
	Capacity     int    `json:"capacity" validate:"required,gt=0"`
	MinOccupancy int    `json:"min_occupancy" validate:"gte=0"`
}

type CreateRoomRequest struct {
	RoomTypeID int64  `json:"room_type_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,max=128"`
	Location   string `json:"location" validate:"max=255"`
}

type CreateBlockRequest struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}
