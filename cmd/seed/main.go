package main

import (
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roombooking/internal/config"
	"roombooking/internal/database"
	"roombooking/internal/domain/catalog"
	"roombooking/internal/domain/violation"
	"roombooking/internal/schema"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := schema.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	for _, table := range []string{
		"notifications", "ratings", "violations", "usage_records", "reservations",
		"room_schedule_blocks", "rooms", "room_types", "violation_categories",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("clean %s: %v", table, err)
		}
	}

	log.Println("Creating room types and rooms...")
	types := []struct {
		typ   catalog.RoomType
		rooms []string
	}{
		{catalog.RoomType{Name: "Individual", Description: "Quiet single-seat study pod", Capacity: 1}, []string{"P-101", "P-102", "P-103", "P-104"}},
		{catalog.RoomType{Name: "Group study", Description: "Table, whiteboard and screen", Capacity: 7, MinOccupancy: 5}, []string{"G-201", "G-202", "G-203"}},
		{catalog.RoomType{Name: "Seminar hall", Description: "Projector and tiered seating", Capacity: 40, MinOccupancy: 20}, []string{"H-301"}},
	}

	var firstGroupRoom int64
	for _, t := range types {
		rt := t.typ
		mustCreate(db, &rt)
		min, max := rt.Band(cfg.Policy.MinOccupancyRatio)
		log.Printf("  %s: party size %d-%d", rt.Name, min, max)

		for i, name := range t.rooms {
			room := catalog.Room{RoomTypeID: rt.ID, Name: name, Location: "Library, floor " + name[2:3], IsActive: true}
			mustCreate(db, &room)
			if rt.Name == "Group study" && i == 0 {
				firstGroupRoom = room.ID
			}
		}
	}

	log.Println("Creating violation categories...")
	for _, c := range []violation.Category{
		{Name: "No-show", Description: "Reservation approved but never checked in"},
		{Name: "Late checkout", Description: "Room occupied past the reserved end time"},
		{Name: "Damage", Description: "Furniture or equipment damaged"},
		{Name: "Left untidy", Description: "Rubbish or food left behind"},
		{Name: "Noise", Description: "Disturbing neighbouring rooms"},
	} {
		c := c
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
			log.Fatal("create category:", err)
		}
	}

	log.Println("Creating a sample maintenance block...")
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("timezone:", err)
	}
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1).Format(catalog.DateLayout)
	mustCreate(db, &catalog.ScheduleBlock{
		RoomID:    firstGroupRoom,
		Date:      tomorrow,
		StartTime: "12:00",
		EndTime:   "14:00",
		Reason:    "Screen maintenance",
	})

	log.Println("Seed completed")
}

func mustCreate(db *gorm.DB, v any) {
	if err := db.Create(v).Error; err != nil {
		log.Fatalf("create %T: %v", v, err)
	}
}
