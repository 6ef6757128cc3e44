package schema

import (
	"gorm.io/gorm"

	"roombooking/internal/domain/catalog"
	"roombooking/internal/domain/notification"
	"roombooking/internal/domain/rating"
	"roombooking/internal/domain/reservation"
	"roombooking/internal/domain/violation"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&catalog.RoomType{},
		&catalog.Room{},
		&catalog.ScheduleBlock{},
		&reservation.Reservation{},
		&reservation.UsageRecord{},
		&violation.Category{},
		&violation.Violation{},
		&rating.Rating{},
		&notification.Notification{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
