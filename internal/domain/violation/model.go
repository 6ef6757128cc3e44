package violation

import "time"

type ProcessingStatus string

const (
	StatusOpen      ProcessingStatus = "open"
	StatusConfirmed ProcessingStatus = "confirmed"
	StatusDismissed ProcessingStatus = "dismissed"
)

func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusConfirmed, StatusDismissed:
		return true
	}
	return false
}

type Category struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:128;not null;uniqueIndex"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string { return "violation_categories" }

// Violation is a misuse citation against one usage record.
// Dismissed violations do not count against the user.
type Violation struct {
	ID               int64            `json:"id" gorm:"primaryKey"`
	UsageRecordID    int64            `json:"usage_record_id" gorm:"not null;index"`
	CategoryID       int64            `json:"category_id" gorm:"not null;index"`
	LodgedAt         time.Time        `json:"lodged_at" gorm:"not null;index"`
	LodgedBy         int64            `json:"lodged_by"`
	ProcessingStatus ProcessingStatus `json:"processing_status" gorm:"type:varchar(16);not null"`
	Description      string           `json:"description,omitempty" gorm:"type:text"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (Violation) TableName() string { return "violations" }

type Standing struct {
	UserID       int64 `json:"user_id"`
	Count        int64 `json:"recent_violations"`
	WindowMonths int   `json:"window_months"`
	Threshold    int   `json:"threshold"`
	CanBook      bool  `json:"can_book"`
}
