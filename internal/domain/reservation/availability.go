package reservation

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"roombooking/internal/domain/catalog"
	"roombooking/internal/pkg/result"
)

type DayAvailability struct {
	RoomID int64      `json:"room_id"`
	Date   string     `json:"date"`
	Open   time.Time  `json:"open"`
	Close  time.Time  `json:"close"`
	Busy   []Interval `json:"busy"`
	Free   []Interval `json:"free"`
}

// Availability lists the busy and free spans of a room for one local date,
// within opening hours. Busy spans are occupying reservations and blocks.
func (e *Engine) Availability(ctx context.Context, roomID int64, date string) (*DayAvailability, result.Result, error) {
	loc := e.clock.Location()
	day, err := time.ParseInLocation(catalog.DateLayout, date, loc)
	if err != nil {
		return nil, result.Invalid("Date must use the YYYY-MM-DD format"), nil
	}
	open, err := atClock(day, e.policy.OpenTime)
	if err != nil {
		return nil, result.Result{}, e.infra("reservation.availability.open_time", err)
	}
	closeAt, err := atClock(day, e.policy.CloseTime)
	if err != nil {
		return nil, result.Result{}, e.infra("reservation.availability.close_time", err)
	}

	if _, err := e.store.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, result.NotFound("Room not found"), nil
		}
		return nil, result.Result{}, e.infra("reservation.availability.room", err, zap.Int64("room_id", roomID))
	}

	busy, err := e.store.OccupiedIntervals(ctx, roomID, open, closeAt)
	if err != nil {
		return nil, result.Result{}, e.infra("reservation.availability.busy", err, zap.Int64("room_id", roomID))
	}
	blocks, err := e.store.BlocksOn(ctx, roomID, date)
	if err != nil {
		return nil, result.Result{}, e.infra("reservation.availability.blocks", err, zap.Int64("room_id", roomID))
	}
	for _, b := range blocks {
		bs, be, err := b.Interval(loc)
		if err != nil {
			e.log.Warn("skipping malformed schedule block", zap.Int64("block_id", b.ID), zap.Error(err))
			continue
		}
		busy = append(busy, Interval{Start: bs, End: be})
	}
	for i := range busy {
		busy[i].Start = busy[i].Start.In(loc)
		busy[i].End = busy[i].End.In(loc)
	}

	return &DayAvailability{
		RoomID: roomID,
		Date:   date,
		Open:   open,
		Close:  closeAt,
		Busy:   busy,
		Free:   subtractBusy(open, closeAt, busy),
	}, result.OK(""), nil
}

func atClock(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse(catalog.TimeOfDayLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// subtractBusy returns the gaps of [open, close) not covered by busy.
func subtractBusy(open, close time.Time, busy []Interval) []Interval {
	if len(busy) == 0 {
		return []Interval{{Start: open, End: close}}
	}

	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := make([]Interval, 0, len(sorted))
	for _, s := range sorted {
		if !s.End.After(open) || !s.Start.Before(close) {
			continue
		}
		if s.Start.Before(open) {
			s.Start = open
		}
		if s.End.After(close) {
			s.End = close
		}

		if len(merged) == 0 {
			merged = append(merged, s)
			continue
		}
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
		} else {
			merged = append(merged, s)
		}
	}

	cur := open
	out := make([]Interval, 0, len(merged)+1)
	for _, b := range merged {
		if b.Start.After(cur) {
			out = append(out, Interval{Start: cur, End: b.Start})
		}
		if b.End.After(cur) {
			cur = b.End
		}
	}
	if cur.Before(close) {
		out = append(out, Interval{Start: cur, End: close})
	}
	return out
}
