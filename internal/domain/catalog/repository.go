package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetRoomType(ctx context.Context, id int64) (*RoomType, error) {
	var t RoomType
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListRoomTypes(ctx context.Context) ([]RoomType, error) {
	var out []RoomType
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) GetRoom(ctx context.Context, id int64) (*Room, error) {
	var room Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *Repository) ListRoomsByType(ctx context.Context, typeID int64) ([]Room, error) {
	var out []Room
	err := r.db.WithContext(ctx).
		Where("room_type_id = ? AND is_active = ?", typeID, true).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CreateBlock(ctx context.Context, b *ScheduleBlock) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repository) BlocksOn(ctx context.Context, roomID int64, date string) ([]ScheduleBlock, error) {
	var out []ScheduleBlock
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND date = ?", roomID, date).
		Order("start_time").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CreateRoomType(ctx context.Context, t *RoomType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repository) CreateRoom(ctx context.Context, room *Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}
