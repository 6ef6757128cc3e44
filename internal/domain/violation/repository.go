package violation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountRecent counts the user's non-dismissed violations lodged at or after
// since, joined through usage_records to reservations.
func (r *Repository) CountRecent(ctx context.Context, userID int64, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("violations v").
		Joins("JOIN usage_records u ON u.id = v.usage_record_id").
		Joins("JOIN reservations r ON r.id = u.reservation_id").
		Where("r.user_id = ?", userID).
		Where("v.lodged_at >= ?", since.UTC()).
		Where("v.processing_status <> ?", string(StatusDismissed)).
		Count(&n).Error
	return n, err
}

func (r *Repository) UsageRecordExists(ctx context.Context, usageRecordID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("usage_records").
		Where("id = ?", usageRecordID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, v *Violation) error {
	v.LodgedAt = v.LodgedAt.UTC()
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Violation, error) {
	var v Violation
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status ProcessingStatus) error {
	return r.db.WithContext(ctx).
		Model(&Violation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processing_status": string(status),
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *Repository) ListByUsage(ctx context.Context, usageRecordID int64) ([]Violation, error) {
	var out []Violation
	err := r.db.WithContext(ctx).
		Where("usage_record_id = ?", usageRecordID).
		Order("lodged_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
