package reservation

import (
	"context"
	"time"

	"roombooking/internal/domain/catalog"
)

// Interval is a half-open [Start, End) span.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps is the single overlap predicate used for reservations and blocks alike.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(aEnd.Compare(bStart) <= 0 || aStart.Compare(bEnd) >= 0)
}

// ConflictSource is the read side the detector needs. *Store satisfies it,
// so checks run inside whatever transaction the Store is bound to.
type ConflictSource interface {
	HasOverlappingReservation(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error)
	BlocksOn(ctx context.Context, roomID int64, date string) ([]catalog.ScheduleBlock, error)
}

type Detector struct {
	loc *time.Location
}

func NewDetector(loc *time.Location) *Detector {
	if loc == nil {
		loc = time.UTC
	}
	return &Detector{loc: loc}
}

// HasConflict reports whether [start, end) on roomID collides with an occupying
// reservation (other than excludeID) or a maintenance block. Blocks are stored
// per calendar day, so every local date the candidate touches is checked.
func (d *Detector) HasConflict(ctx context.Context, src ConflictSource, roomID int64, start, end time.Time, excludeID int64) (bool, error) {
	busy, err := src.HasOverlappingReservation(ctx, roomID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	if busy {
		return true, nil
	}

	for _, day := range d.datesTouched(start, end) {
		blocks, err := src.BlocksOn(ctx, roomID, day)
		if err != nil {
			return false, err
		}
		for _, b := range blocks {
			bs, be, err := b.Interval(d.loc)
			if err != nil {
				return false, err
			}
			if Overlaps(start, end, bs, be) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (d *Detector) datesTouched(start, end time.Time) []string {
	s := start.In(d.loc)
	e := end.In(d.loc)
	day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, d.loc)

	var out []string
	for day.Before(e) {
		out = append(out, day.Format(catalog.DateLayout))
		day = day.AddDate(0, 0, 1)
	}
	return out
}
