package reservation

import "time"

// Reservation is a user's request for, and later grant of, a room over [StartTime, EndTime).
type Reservation struct {
	ID                 int64      `json:"id" gorm:"primaryKey"`
	UserID             int64      `json:"user_id" gorm:"not null;index"`
	RoomTypeID         int64      `json:"room_type_id" gorm:"not null;index"`
	RoomID             *int64     `json:"room_id,omitempty" gorm:"index:idx_reservation_room_window"`
	StartTime          time.Time  `json:"start_time" gorm:"not null;index:idx_reservation_room_window"`
	EndTime            time.Time  `json:"end_time" gorm:"not null"`
	PartySize          int        `json:"party_size" gorm:"not null"`
	Reason             string     `json:"reason,omitempty" gorm:"type:text"`
	Notes              string     `json:"notes,omitempty" gorm:"type:text"`
	Status             Status     `json:"status" gorm:"type:varchar(16);not null;index"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`
	RejectionReason    string     `json:"rejection_reason,omitempty" gorm:"type:text"`
	Version            int64      `json:"-" gorm:"not null"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Reservation) TableName() string { return "reservations" }

// UsageRecord is the physical occupancy of a reservation, created at check-in.
type UsageRecord struct {
	ID            int64      `json:"id" gorm:"primaryKey"`
	ReservationID int64      `json:"reservation_id" gorm:"not null;uniqueIndex"`
	CheckedInAt   time.Time  `json:"checked_in_at" gorm:"not null"`
	CheckedOutAt  *time.Time `json:"checked_out_at,omitempty"`
	Condition     string     `json:"condition,omitempty"`
	Notes         string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (UsageRecord) TableName() string { return "usage_records" }

func (r *Reservation) IsOwnedBy(userID int64) bool {
	return r.UserID == userID
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
