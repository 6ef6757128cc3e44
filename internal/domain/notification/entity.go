package notification

import (
	"encoding/json"
	"time"
)

type Type string

const (
	TypeReservationCreated   Type = "reservation_created"
	TypeReservationSubmitted Type = "reservation_submitted"
	TypeReservationApproved  Type = "reservation_approved"
	TypeReservationRejected  Type = "reservation_rejected"
	TypeReservationCancelled Type = "reservation_cancelled"
	TypeReservationCompleted Type = "reservation_completed"
)

type Notification struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	UserID    int64           `json:"user_id" gorm:"not null;index:idx_notifications_user_unread"`
	Type      Type            `json:"type" gorm:"type:varchar(32);not null"`
	Title     string          `json:"title" gorm:"not null"`
	Body      string          `json:"body,omitempty" gorm:"type:text"`
	Data      json.RawMessage `json:"data,omitempty" gorm:"type:text"`
	IsRead    bool            `json:"is_read" gorm:"not null;default:false;index:idx_notifications_user_unread"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
}

func (Notification) TableName() string { return "notifications" }

// Data links a notification to the reservation it is about.
type Data struct {
	ReservationID int64   `json:"reservation_id"`
	RoomID        *int64  `json:"room_id,omitempty"`
	StartTime     *string `json:"start_time,omitempty"`
	Reason        *string `json:"reason,omitempty"`
}

func (n *Notification) SetData(d *Data) error {
	if d == nil {
		return nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	n.Data = b
	return nil
}

func (n *Notification) GetData() *Data {
	if len(n.Data) == 0 {
		return &Data{}
	}
	var d Data
	_ = json.Unmarshal(n.Data, &d)
	return &d
}

// Event is the envelope pushed to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const EventNotification = "notification"
