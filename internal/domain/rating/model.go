package rating

import "time"

// Rating is one user's score for a room after a completed reservation.
type Rating struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	UserID        int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_rating_user_reservation_room"`
	ReservationID int64     `json:"reservation_id" gorm:"not null;uniqueIndex:idx_rating_user_reservation_room"`
	RoomID        int64     `json:"room_id" gorm:"not null;uniqueIndex:idx_rating_user_reservation_room;index"`
	Score         int       `json:"score" gorm:"not null"`
	Comment       string    `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Rating) TableName() string { return "ratings" }

type RoomSummary struct {
	RoomID  int64    `json:"room_id"`
	Count   int64    `json:"count"`
	Average float64  `json:"average"`
	Ratings []Rating `json:"ratings"`
}

const (
	MinScore = 1
	MaxScore = 5
)
