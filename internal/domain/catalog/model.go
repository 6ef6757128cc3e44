package catalog

import (
	"fmt"
	"math"
	"time"
)

// RoomType is a pool of interchangeable rooms sharing one capacity band.
type RoomType struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:128;not null;uniqueIndex"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	Capacity    int    `json:"capacity" gorm:"not null"`
	// MinOccupancy of 0 falls back to the configured ratio of Capacity.
	MinOccupancy int       `json:"min_occupancy"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (RoomType) TableName() string { return "room_types" }

// Band returns the inclusive [min, max] party size accepted for this type.
func (t RoomType) Band(minRatio float64) (int, int) {
	min := t.MinOccupancy
	if min <= 0 {
		min = int(math.Ceil(minRatio * float64(t.Capacity)))
	}
	if min < 1 {
		min = 1
	}
	return min, t.Capacity
}

type Room struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	RoomTypeID int64     `json:"room_type_id" gorm:"not null;index"`
	Name       string    `json:"name" gorm:"size:128;not null"`
	Location   string    `json:"location,omitempty"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
)

// ScheduleBlock closes a room for part of one calendar day (maintenance, events).
type ScheduleBlock struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	RoomID    int64     `json:"room_id" gorm:"not null;index:idx_block_room_date"`
	Date      string    `json:"date" gorm:"size:10;not null;index:idx_block_room_date"`
	StartTime string    `json:"start_time" gorm:"size:5;not null"`
	EndTime   string    `json:"end_time" gorm:"size:5;not null"`
	Reason    string    `json:"reason,omitempty"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (ScheduleBlock) TableName() string { return "room_schedule_blocks" }

// Interval resolves the block to absolute times in loc. An end of "00:00"
// (or any end not after the start) runs to the following midnight.
func (b ScheduleBlock) Interval(loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, b.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("block %d: invalid date %q: %w", b.ID, b.Date, err)
	}
	st, err := time.Parse(TimeOfDayLayout, b.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("block %d: invalid start %q: %w", b.ID, b.StartTime, err)
	}
	et, err := time.Parse(TimeOfDayLayout, b.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("block %d: invalid end %q: %w", b.ID, b.EndTime, err)
	}

	start := atTimeOfDay(day, st)
	end := atTimeOfDay(day, et)
	if !end.After(start) {
		end = day.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func atTimeOfDay(day, tod time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, day.Location())
}
