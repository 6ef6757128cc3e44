package reservation

import (
	"context"
	"time"

	"roombooking/internal/pkg/result"
)

// EligibilityGate decides whether a user may book a room type for a party size.
// Business refusals come back as a non-OK Result; error is infrastructure only.
type EligibilityGate interface {
	Check(ctx context.Context, userID, roomTypeID int64, partySize int) (result.Result, error)
}

// Notifier is the fire-and-forget notification sink. Errors are logged by the
// engine and never fail a transition.
type Notifier interface {
	NotifyReservationCreated(ctx context.Context, userID, reservationID int64, roomID *int64, start time.Time) error
	NotifyReservationApproved(ctx context.Context, userID, reservationID int64) error
	NotifyReservationRejected(ctx context.Context, userID, reservationID int64, reason string) error
	NotifyReservationCancelled(ctx context.Context, userID, reservationID int64, reason string) error
	NotifyReservationCompleted(ctx context.Context, userID, reservationID int64) error
}

// Mailer is the best-effort email sink.
type Mailer interface {
	SendReviewLink(ctx context.Context, userID, reservationID int64) error
}

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	UserID int64
	Staff  bool
}

// SystemActor is used by background jobs.
var SystemActor = Actor{Staff: true}

func (a Actor) canAccess(r *Reservation) bool {
	return a.Staff || r.IsOwnedBy(a.UserID)
}
