package reservation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roombooking/internal/domain/catalog"
)

// Store persists reservations and usage records. A Store obtained inside
// Transaction is bound to that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// LockRoom takes a row lock on the room so concurrent creates for it serialise.
func (s *Store) LockRoom(ctx context.Context, roomID int64) (*catalog.Room, error) {
	var room catalog.Room
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// LockRoomsOfType locks every active room in the pool, in id order.
func (s *Store) LockRoomsOfType(ctx context.Context, typeID int64) ([]catalog.Room, error) {
	var rooms []catalog.Room
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_type_id = ? AND is_active = ?", typeID, true).
		Order("id").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Store) Create(ctx context.Context, r *Reservation) error {
	r.StartTime = r.StartTime.UTC()
	r.EndTime = r.EndTime.UTC()
	if r.Version == 0 {
		r.Version = 1
	}
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Reservation, error) {
	var r Reservation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Save writes the mutable columns guarded by the version the caller read.
// ErrStaleReservation means another transition committed first.
func (s *Store) Save(ctx context.Context, r *Reservation) error {
	tx := s.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ? AND version = ?", r.ID, r.Version).
		Updates(map[string]any{
			"room_id":             r.RoomID,
			"end_time":            r.EndTime.UTC(),
			"notes":               r.Notes,
			"status":              string(r.Status),
			"approved_at":         utcPtr(r.ApprovedAt),
			"cancelled_at":        utcPtr(r.CancelledAt),
			"cancellation_reason": r.CancellationReason,
			"rejection_reason":    r.RejectionReason,
			"version":             r.Version + 1,
			"updated_at":          time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrStaleReservation
	}
	r.Version++
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var out []Reservation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPendingStartedBefore returns pending reservations whose start is before t.
func (s *Store) ListPendingStartedBefore(ctx context.Context, t time.Time) ([]Reservation, error) {
	var out []Reservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND start_time < ?", string(StatusPending), t.UTC()).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetUsage returns nil, nil when the reservation has not been checked in.
func (s *Store) GetUsage(ctx context.Context, reservationID int64) (*UsageRecord, error) {
	var u UsageRecord
	err := s.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUsage(ctx context.Context, u *UsageRecord) error {
	u.CheckedInAt = u.CheckedInAt.UTC()
	u.CheckedOutAt = utcPtr(u.CheckedOutAt)
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) SaveUsage(ctx context.Context, u *UsageRecord) error {
	return s.db.WithContext(ctx).
		Model(&UsageRecord{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"checked_out_at": utcPtr(u.CheckedOutAt),
			"condition":      u.Condition,
			"notes":          u.Notes,
			"updated_at":     time.Now().UTC(),
		}).Error
}

// HasOverlappingReservation applies the half-open overlap predicate in SQL:
// NOT (candidateEnd <= existingStart OR candidateStart >= existingEnd).
func (s *Store) HasOverlappingReservation(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error) {
	q := s.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("room_id = ?", roomID).
		Where("status NOT IN ?", releasedStatuses).
		Where("NOT (? <= start_time OR ? >= end_time)", end.UTC(), start.UTC())
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var id int64
	err := q.Select("id").Limit(1).Scan(&id).Error
	if err != nil {
		return false, err
	}
	return id > 0, nil
}

func (s *Store) BlocksOn(ctx context.Context, roomID int64, date string) ([]catalog.ScheduleBlock, error) {
	var out []catalog.ScheduleBlock
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND date = ?", roomID, date).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OccupiedIntervals lists occupying reservations on the room that touch [from, to).
func (s *Store) OccupiedIntervals(ctx context.Context, roomID int64, from, to time.Time) ([]Interval, error) {
	var rows []Reservation
	err := s.db.WithContext(ctx).
		Select("start_time", "end_time").
		Where("room_id = ?", roomID).
		Where("status NOT IN ?", releasedStatuses).
		Where("NOT (? <= start_time OR ? >= end_time)", to.UTC(), from.UTC()).
		Order("start_time").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Interval, 0, len(rows))
	for _, r := range rows {
		out = append(out, Interval{Start: r.StartTime, End: r.EndTime})
	}
	return out, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func (s *Store) GetRoom(ctx context.Context, roomID int64) (*catalog.Room, error) {
	var room catalog.Room
	if err := s.db.WithContext(ctx).First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}
