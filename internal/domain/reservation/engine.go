package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"roombooking/internal/clock"
	"roombooking/internal/pkg/result"
)

const (
	msgNotFound       = "Reservation not found"
	msgNotOwner       = "You can only manage your own reservations"
	msgStaffOnly      = "Only staff can perform this action"
	msgRoomTaken      = "The room is already booked or blocked for the requested time"
	msgNoRoomFree     = "No room of this type is free for the requested time"
	msgAlreadyChecked = "This reservation has already been checked in"
)

// Engine owns every reservation status transition. Each transition runs in a
// single transaction and is retried when a concurrent writer wins the race.
type Engine struct {
	store    *Store
	gate     EligibilityGate
	notifier Notifier
	mailer   Mailer
	detector *Detector
	clock    clock.Clock
	policy   Policy
	log      *zap.Logger
}

func NewEngine(
	store *Store,
	gate EligibilityGate,
	notifier Notifier,
	mailer Mailer,
	clk clock.Clock,
	policy Policy,
	log *zap.Logger,
) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if policy.TxMaxAttempts < 1 {
		policy.TxMaxAttempts = 1
	}
	return &Engine{
		store:    store,
		gate:     gate,
		notifier: notifier,
		mailer:   mailer,
		detector: NewDetector(clk.Location()),
		clock:    clk,
		policy:   policy,
		log:      log,
	}
}

type CreateInput struct {
	RoomTypeID int64
	RoomID     *int64
	Start      time.Time
	End        *time.Time
	PartySize  int
	Reason     string
	Note       string
}

// Create runs the eligibility gate, then checks conflicts and inserts the
// reservation as Pending inside one transaction holding the room row locks.
func (e *Engine) Create(ctx context.Context, userID int64, in CreateInput) (result.Result, error) {
	now := e.clock.Now()

	if in.RoomTypeID <= 0 {
		return result.Invalid("Room type is required"), nil
	}
	if in.PartySize <= 0 {
		return result.Invalid("Party size must be at least 1"), nil
	}
	start := in.Start
	end := start.Add(e.policy.DefaultSession)
	if in.End != nil {
		end = *in.End
	}
	if !end.After(start) {
		return result.Invalid("End time must be after start time"), nil
	}
	if !start.After(now) {
		return result.Invalid("Start time must be in the future"), nil
	}
	if e.policy.MaxSession > 0 && end.Sub(start) > e.policy.MaxSession {
		return result.Invalidf("A reservation cannot be longer than %s", clock.FormatDuration(e.policy.MaxSession)), nil
	}

	res, err := e.gate.Check(ctx, userID, in.RoomTypeID, in.PartySize)
	if err != nil {
		return result.Result{}, e.infra("reservation.create.eligibility", err, zap.Int64("user_id", userID))
	}
	if !res.OK() {
		return res, nil
	}

	var created *Reservation
	res, err = e.run(ctx, "reservation.create", func(tx *Store) (result.Result, error) {
		roomID, res, err := e.pickRoom(ctx, tx, in.RoomTypeID, in.RoomID, start, end, 0)
		if err != nil || !res.OK() {
			return res, err
		}

		r := &Reservation{
			UserID:     userID,
			RoomTypeID: in.RoomTypeID,
			RoomID:     &roomID,
			StartTime:  start,
			EndTime:    end,
			PartySize:  in.PartySize,
			Reason:     strings.TrimSpace(in.Reason),
			Notes:      strings.TrimSpace(in.Note),
			Status:     StatusPending,
		}
		if err := tx.Create(ctx, r); err != nil {
			return result.Result{}, err
		}
		created = r
		return result.Created(r.ID, "Reservation created and waiting for approval"), nil
	})
	if err != nil || !res.OK() {
		return res, err
	}

	e.notify("created", created.ID, func(ctx context.Context) error {
		return e.notifier.NotifyReservationCreated(ctx, created.UserID, created.ID, created.RoomID, created.StartTime)
	})
	return res, nil
}

// pickRoom locks and validates the requested room, or walks the type's pool in
// id order and returns the first room without a conflict.
func (e *Engine) pickRoom(ctx context.Context, tx *Store, typeID int64, requested *int64, start, end time.Time, excludeID int64) (int64, result.Result, error) {
	if requested != nil {
		room, err := tx.LockRoom(ctx, *requested)
		if errors.Is(err, ErrNotFound) {
			return 0, result.NotFound("Room not found"), nil
		}
		if err != nil {
			return 0, result.Result{}, err
		}
		if room.RoomTypeID != typeID || !room.IsActive {
			return 0, result.Invalid("The requested room is not available for this room type"), nil
		}
		busy, err := e.detector.HasConflict(ctx, tx, room.ID, start, end, excludeID)
		if err != nil {
			return 0, result.Result{}, err
		}
		if busy {
			return 0, result.Conflict(msgRoomTaken), nil
		}
		return room.ID, result.OK(""), nil
	}

	rooms, err := tx.LockRoomsOfType(ctx, typeID)
	if err != nil {
		return 0, result.Result{}, err
	}
	if len(rooms) == 0 {
		return 0, result.Conflict("This room type has no rooms in service"), nil
	}
	for _, room := range rooms {
		busy, err := e.detector.HasConflict(ctx, tx, room.ID, start, end, excludeID)
		if err != nil {
			return 0, result.Result{}, err
		}
		if !busy {
			return room.ID, result.OK(""), nil
		}
	}
	return 0, result.Conflict(msgNoRoomFree), nil
}

// Approve moves a Pending reservation to Approved after re-checking its room.
func (e *Engine) Approve(ctx context.Context, actor Actor, id int64) (result.Result, error) {
	if !actor.Staff {
		return result.Forbidden(msgStaffOnly), nil
	}

	var approved *Reservation
	res, err := e.run(ctx, "reservation.approve", func(tx *Store) (result.Result, error) {
		r, res, err := e.load(ctx, tx, actor, id)
		if err != nil || !res.OK() {
			return res, err
		}
		if !r.Status.CanTransitionTo(StatusApproved) {
			return illegal(r.Status, "approved"), nil
		}
		now := e.clock.Now()
		if !now.Before(r.EndTime) {
			return result.Invalid("The reservation window has already passed"), nil
		}

		roomID, res, err := e.pickRoom(ctx, tx, r.RoomTypeID, r.RoomID, r.StartTime, r.EndTime, r.ID)
		if err != nil || !res.OK() {
			return res, err
		}

		r.RoomID = &roomID
		r.Status = StatusApproved
		r.ApprovedAt = &now
		if err := tx.Save(ctx, r); err != nil {
			return result.Result{}, err
		}
		approved = r
		return result.OK("Reservation approved"), nil
	})
	if err != nil || !res.OK() {
		return res, err
	}

	e.notify("approved", approved.ID, func(ctx context.Context) error {
		return e.notifier.NotifyReservationApproved(ctx, approved.UserID, approved.ID)
	})
	return res, nil
}

// Reject closes a Pending reservation. The room is released immediately.
func (e *Engine) Reject(ctx context.Context, actor Actor, id int64, reason string) (result.Result, error) {
	if !actor.Staff {
		return result.Forbidden(msgStaffOnly), nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return result.Invalid("A rejection reason is required"), nil
	}

	var rejected *Reservation
	res, err := e.run(ctx, "reservation.reject", func(tx *Store) (result.Result, error) {
		r, res, err := e.load(ctx, tx, actor, id)
		if err != nil || !res.OK() {
			return res, err
		}
		if !r.Status.CanTransitionTo(StatusRejected) {
			return illegal(r.Status, "rejected"), nil
		}

		r.Status = StatusRejected
		r.RejectionReason = reason
		if err := tx.Save(ctx, r); err != nil {
			return result.Result{}, err
		}
		rejected = r
		return result.OK("Reservation rejected"), nil
	})
	if err != nil || !res.OK() {
		return res, err
	}

	e.notify("rejected", rejected.ID, func(ctx context.Context) error {
		return e.notifier.NotifyReservationRejected(ctx, rejected.UserID, rejected.ID, reason)
	})
	return res, nil
}

// CheckIn opens the usage record. Allowed from CheckInEarly before the start
// until CheckInLate after it, both ends inclusive.
func (e *Engine) CheckIn(ctx context.Context, actor Actor, id int64) (result.Result, error) {
	return e.run(ctx, "reservation.check_in", func(tx *Store) (result.Result, error) {
		r, res, err := e.loadOwned(ctx, tx, actor, id)
		if err != nil || !res.OK() {
			return res, err
		}
		if !r.Status.CanTransitionTo(StatusInUse) {
			return illegal(r.Status, "checked in"), nil
		}

		now := e.clock.Now()
		opens := r.StartTime.Add(-e.policy.CheckInEarly)
		closes := r.StartTime.Add(e.policy.CheckInLate)
		if now.Before(opens) {
			return result.Invalidf("Check-in opens %s before the start time", clock.FormatDuration(e.policy.CheckInEarly)), nil
		}
		if now.After(closes) {
			return result.Invalidf("Check-in closed %s after the start time", clock.FormatDuration(e.policy.CheckInLate)), nil
		}

		usage, err := tx.GetUsage(ctx, r.ID)
		if err != nil {
			return result.Result{}, err
		}
		if usage != nil {
			return result.Conflict(msgAlreadyChecked), nil
		}

		r.Status = StatusInUse
		if err := tx.Save(ctx, r); err != nil {
			return result.Result{}, err
		}
		if err := tx.CreateUsage(ctx, &UsageRecord{ReservationID: r.ID, CheckedInAt: now}); err != nil {
			if isUniqueConstraintError(err) {
				return result.Conflict(msgAlreadyChecked), nil
			}
			return result.Result{}, err
		}
		return result.OK("Checked in"), nil
	})
}

// Extend moves the end of an in-use reservation later. One call may add at
// most ExtendMax and only while at least ExtendMinRemaining of the session is left.
func (e *Engine) Extend(ctx context.Context, actor Actor, id int64, newEnd time.Time) (result.Result, error) {
	return e.run(ctx, "reservation.extend", func(tx *Store) (result.Result, error) {
		r, res, err := e.loadOwned(ctx, tx, actor, id)
		if err != nil || !res.OK() {
			return res, err
		}
		if r.Status != StatusInUse {
			return result.Invalidf("Only a reservation in use can be extended (current status: %s)", r.Status), nil
		}

		now := e.clock.Now()
		if now.Before(r.StartTime) || now.After(r.EndTime) {
			return result.Invalid("The reservation can only be extended during its session"), nil
		}
		if r.EndTime.Sub(now) < e.policy.ExtendMinRemaining {
			return result.Invalidf("Extensions must be requested at least %s before the end time", clock.FormatDuration(e.policy.ExtendMinRemaining)), nil
		}
		if !newEnd.After(r.EndTime) {
			return result.Invalid("The new end time must be after the current end time"), nil
		}
		if newEnd.Sub(r.EndTime) > e.policy.ExtendMax {
			return result.Invalidf("A reservation can be extended by at most %s at a time", clock.FormatDuration(e.policy.ExtendMax)), nil
		}
		if r.RoomID == nil {
			return result.Invalid("The reservation has no room assigned"), nil
		}

		if _, err := tx.LockRoom(ctx, *r.RoomID); err != nil {
			return result.Result{}, err
		}
		busy, err := e.detector.HasConflict(ctx, tx, *r.RoomID, r.EndTime, newEnd, r.ID)
		if err != nil {
			return result.Result{}, err
		}
		if busy {
			return result.Conflict("The room is not free for the extended time"), nil
		}

		r.EndTime = newEnd
		r.ApprovedAt = &now
		if err := tx.Save(ctx, r); err != nil {
			return result.Result{}, err
		}
		return result.OK("Reservation extended"), nil
	})
}

// Complete checks the reservation out. A missing usage record is synthesized
// from the scheduled start so the transition never fails on it.
func (e *Engine) Complete(ctx context.Context, actor Actor, id int64) (result.Result, error) {
	var (
		completed   *Reservation
		synthesized bool
	)
	res, err := e.run(ctx, "reservation.complete", func(tx *Store) (result.Result, error) {
		synthesized = false
		r, res, err := e.load(ctx, tx, actor, id)
		if err != nil || !res.OK() {
			return res, err
		}
		if !r.Status.CanTransitionTo(StatusCompleted) {
			return illegal(r.Status, "completed"), nil
		}

		now := e.clock.Now()
		r.Status = StatusCompleted
		if err := tx.Save(ctx, r); err != nil {
			return result.Result{}, err
		}

		usage, err := tx.GetUsage(ctx, r.ID)
		if err != nil {
			return result.Result{}, err
		}
		if usage == nil {
			synthesized = true
			usage = &UsageRecord{ReservationID: r.ID, CheckedInAt: r.StartTime, CheckedOutAt: &now}
			if err := tx.CreateUsage(ctx, usage); err != nil {
				return result.Result{}, err
			}
		} else {
			usage.CheckedOutAt = &now
			if err := tx.SaveUsage(ctx, usage); err != nil {
				return result.Result{}, err
			}
		}
		completed = r
		return result.OK("Checked out, thank you"), nil
	})
	if err != nil || !res.OK() {
		return res, err
	}

	if synthesized {
		e.log.Warn("usage record missing at checkout, synthesized from scheduled start",
			zap.Int64("reservation_id", completed.ID),
			zap.Int64("user_id", completed.UserID),
			zap.Time("scheduled_start", completed.StartTime),
		)
	}
	e.notify("completed", completed.ID, func(ctx context.Context) error {
		return e.notifier.NotifyReservationCompleted(ctx, completed.UserID, completed.ID)
	})
	if e.mailer != nil {
		if err := e.mailer.SendReviewLink(context.WithoutCancel(ctx), completed.UserID, completed.ID); err != nil {
			e.log.Warn("review link email failed", zap.Int64("reservation_id", completed.ID), zap.Error(err))
		}
	}
	return res, nil
}

// Cancel is allowed from Pending or Approved up to CancelCutoff before the start.
func (e *Engine) Cancel(ctx context.Context, actor Actor, id int64, reason, note string) (result.Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return result.Invalid("A cancellation reason is required"), nil
	}

	var cancelled *Reservation
	res, err := e.run(ctx, "reservation.cancel", func(tx *Store) (result.Result, error) {
		r, res, err := e.load(ctx, tx, actor, id)
		if err != nil || !res.OK() {
			return res, err
		}
		if !r.Status.CanTransitionTo(StatusCancelled) {
			return illegal(r.Status, "cancelled"), nil
		}

		now := e.clock.Now()
		if now.After(r.StartTime.Add(-e.policy.CancelCutoff)) {
			return result.Invalidf("Reservations cannot be cancelled within %s of the start time", clock.FormatDuration(e.policy.CancelCutoff)), nil
		}

		r.Status = StatusCancelled
		r.CancelledAt = &now
		r.CancellationReason = reason
		r.Notes = appendNote(r.Notes, "Cancelled: "+reason)
		if note = strings.TrimSpace(note); note != "" {
			r.Notes = appendNote(r.Notes, note)
		}
		if err := tx.Save(ctx, r); err != nil {
			return result.Result{}, err
		}
		cancelled = r
		return result.OK("Reservation cancelled"), nil
	})
	if err != nil || !res.OK() {
		return res, err
	}

	e.notify("cancelled", cancelled.ID, func(ctx context.Context) error {
		return e.notifier.NotifyReservationCancelled(ctx, cancelled.UserID, cancelled.ID, reason)
	})
	return res, nil
}

// UpdateUsage records the post-use room condition. Staff only.
func (e *Engine) UpdateUsage(ctx context.Context, actor Actor, id int64, condition, notes string) (result.Result, error) {
	if !actor.Staff {
		return result.Forbidden(msgStaffOnly), nil
	}
	return e.run(ctx, "reservation.update_usage", func(tx *Store) (result.Result, error) {
		r, res, err := e.load(ctx, tx, actor, id)
		if err != nil || !res.OK() {
			return res, err
		}
		usage, err := tx.GetUsage(ctx, r.ID)
		if err != nil {
			return result.Result{}, err
		}
		if usage == nil {
			return result.NotFound("This reservation has not been checked in"), nil
		}

		usage.Condition = strings.TrimSpace(condition)
		if notes = strings.TrimSpace(notes); notes != "" {
			usage.Notes = appendNote(usage.Notes, notes)
		}
		if err := tx.SaveUsage(ctx, usage); err != nil {
			return result.Result{}, err
		}
		return result.OK("Usage record updated"), nil
	})
}

// Get returns the reservation and its usage record, if any.
func (e *Engine) Get(ctx context.Context, actor Actor, id int64) (*Reservation, *UsageRecord, result.Result, error) {
	r, res, err := e.load(ctx, e.store, actor, id)
	if err != nil {
		return nil, nil, result.Result{}, e.infra("reservation.get", err, zap.Int64("reservation_id", id))
	}
	if !res.OK() {
		return nil, nil, res, nil
	}
	usage, err := e.store.GetUsage(ctx, r.ID)
	if err != nil {
		return nil, nil, result.Result{}, e.infra("reservation.get.usage", err, zap.Int64("reservation_id", id))
	}
	return r, usage, result.OK(""), nil
}

func (e *Engine) ListMine(ctx context.Context, userID int64, limit, offset int) ([]Reservation, error) {
	out, err := e.store.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, e.infra("reservation.list", err, zap.Int64("user_id", userID))
	}
	return out, nil
}

// SweepStalePending rejects Pending reservations whose start has passed.
// It returns how many were rejected.
func (e *Engine) SweepStalePending(ctx context.Context) (int, error) {
	stale, err := e.store.ListPendingStartedBefore(ctx, e.clock.Now())
	if err != nil {
		return 0, e.infra("reservation.sweep", err)
	}

	n := 0
	for _, r := range stale {
		res, err := e.Reject(ctx, SystemActor, r.ID, "Not approved before the start time")
		if err != nil {
			e.log.Warn("sweep reject failed", zap.Int64("reservation_id", r.ID), zap.Error(err))
			continue
		}
		if res.OK() {
			n++
		}
	}
	return n, nil
}

// run executes fn in a transaction. A non-OK result rolls back and is returned
// as is; retryable failures start a fresh attempt; anything else is infra.
func (e *Engine) run(ctx context.Context, op string, fn func(tx *Store) (result.Result, error)) (result.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= e.policy.TxMaxAttempts; attempt++ {
		var res result.Result
		err := e.store.Transaction(ctx, func(tx *Store) error {
			r, err := fn(tx)
			if err != nil {
				return err
			}
			res = r
			if !r.OK() {
				return errRollback
			}
			return nil
		})
		if err == nil || errors.Is(err, errRollback) {
			return res, nil
		}
		if !isRetryable(err) || ctx.Err() != nil {
			return result.Result{}, e.infra(op, err, zap.Int("attempt", attempt))
		}
		lastErr = err
		e.log.Debug("transaction retry", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
	}
	return result.Result{}, e.infra(op, fmt.Errorf("gave up after %d attempts: %w", e.policy.TxMaxAttempts, lastErr))
}

func (e *Engine) load(ctx context.Context, s *Store, actor Actor, id int64) (*Reservation, result.Result, error) {
	r, err := s.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound(msgNotFound), nil
	}
	if err != nil {
		return nil, result.Result{}, err
	}
	if !actor.canAccess(r) {
		return nil, result.Forbidden(msgNotOwner), nil
	}
	return r, result.OK(""), nil
}

// loadOwned is load for transitions only the reservation holder may trigger.
func (e *Engine) loadOwned(ctx context.Context, s *Store, actor Actor, id int64) (*Reservation, result.Result, error) {
	r, res, err := e.load(ctx, s, actor, id)
	if err != nil || !res.OK() {
		return r, res, err
	}
	if !r.IsOwnedBy(actor.UserID) {
		return nil, result.Forbidden(msgNotOwner), nil
	}
	return r, res, nil
}

func (e *Engine) notify(event string, reservationID int64, send func(ctx context.Context) error) {
	if e.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		e.log.Warn("notification failed",
			zap.String("event", event),
			zap.Int64("reservation_id", reservationID),
			zap.Error(err),
		)
	}
}

func (e *Engine) infra(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	e.log.Error("reservation infrastructure failure", fields...)
	return result.Infra(op, err)
}

func illegal(from Status, verb string) result.Result {
	return result.Invalidf("A %s reservation cannot be %s", strings.ReplaceAll(string(from), "_", " "), verb)
}

var _ ConflictSource = (*Store)(nil)
