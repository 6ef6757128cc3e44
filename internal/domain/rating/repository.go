package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"roombooking/internal/domain/reservation"
)

var (
	ErrNotFound  = errors.New("not_found")
	ErrDuplicate = errors.New("rating already exists")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CheckoutFor returns the usage record of the user's reservation on roomID.
func (r *Repository) CheckoutFor(ctx context.Context, userID, reservationID, roomID int64) (*reservation.UsageRecord, error) {
	var u reservation.UsageRecord
	err := r.db.WithContext(ctx).
		Joins("JOIN reservations ON reservations.id = usage_records.reservation_id").
		Where("usage_records.reservation_id = ?", reservationID).
		Where("reservations.user_id = ? AND reservations.room_id = ?", userID, roomID).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Create(ctx context.Context, rt *Rating) error {
	err := r.db.WithContext(ctx).Create(rt).Error
	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Rating, error) {
	var rt Rating
	if err := r.db.WithContext(ctx).First(&rt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rt, nil
}

func (r *Repository) Update(ctx context.Context, rt *Rating) error {
	return r.db.WithContext(ctx).
		Model(&Rating{}).
		Where("id = ?", rt.ID).
		Updates(map[string]any{
			"score":      rt.Score,
			"comment":    rt.Comment,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *Repository) ListByRoom(ctx context.Context, roomID int64, limit int) ([]Rating, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []Rating
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) RoomStats(ctx context.Context, roomID int64) (int64, float64, error) {
	var row struct {
		Count   int64
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&Rating{}).
		Select("COUNT(*) AS count, COALESCE(AVG(score), 0) AS average").
		Where("room_id = ?", roomID).
		Scan(&row).Error
	return row.Count, row.Average, err
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
