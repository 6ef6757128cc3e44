package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"roombooking/internal/clock"
	"roombooking/internal/pkg/result"
)

const (
	msgNoCheckout    = "You can only rate a room after checking out of it"
	msgWindowClosed  = "Ratings can only be written or changed within the rating window after checkout"
	msgDuplicate     = "You have already rated this reservation"
	msgScoreOutRange = "Score must be between 1 and 5"
)

type Service struct {
	repo   *Repository
	clock  clock.Clock
	window time.Duration
	log    *zap.Logger
}

func NewService(repo *Repository, clk clock.Clock, window time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, clock: clk, window: window, log: log}
}

// CanRate reports whether the user checked out of the reservation on roomID
// no more than the rating window ago.
func (s *Service) CanRate(ctx context.Context, userID, reservationID, roomID int64) (result.Result, error) {
	usage, err := s.repo.CheckoutFor(ctx, userID, reservationID, roomID)
	if errors.Is(err, ErrNotFound) {
		return result.Forbidden(msgNoCheckout), nil
	}
	if err != nil {
		return result.Result{}, s.infra("rating.can_rate", err)
	}
	if usage.CheckedOutAt == nil {
		return result.Forbidden(msgNoCheckout), nil
	}
	if s.clock.Now().Sub(*usage.CheckedOutAt) > s.window {
		return result.Invalid(msgWindowClosed), nil
	}
	return result.OK(""), nil
}

// CanEditRating re-evaluates the window from checkout at edit time, never
// from the rating's own creation.
func (s *Service) CanEditRating(ctx context.Context, userID int64, r *Rating) (result.Result, error) {
	if r.UserID != userID {
		return result.Forbidden("You can only edit your own ratings"), nil
	}
	return s.CanRate(ctx, userID, r.ReservationID, r.RoomID)
}

func (s *Service) Create(ctx context.Context, userID, roomID, reservationID int64, score int, comment string) (result.Result, error) {
	if score < MinScore || score > MaxScore {
		return result.Invalid(msgScoreOutRange), nil
	}
	res, err := s.CanRate(ctx, userID, reservationID, roomID)
	if err != nil || !res.OK() {
		return res, err
	}

	rt := &Rating{
		UserID:        userID,
		ReservationID: reservationID,
		RoomID:        roomID,
		Score:         score,
		Comment:       strings.TrimSpace(comment),
	}
	if err := s.repo.Create(ctx, rt); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return result.Conflict(msgDuplicate), nil
		}
		return result.Result{}, s.infra("rating.create", err)
	}
	return result.Created(rt.ID, "Thank you for your rating"), nil
}

func (s *Service) Edit(ctx context.Context, userID, ratingID int64, score int, comment string) (result.Result, error) {
	if score < MinScore || score > MaxScore {
		return result.Invalid(msgScoreOutRange), nil
	}
	rt, err := s.repo.GetByID(ctx, ratingID)
	if errors.Is(err, ErrNotFound) {
		return result.NotFound("Rating not found"), nil
	}
	if err != nil {
		return result.Result{}, s.infra("rating.edit.get", err)
	}

	res, err := s.CanEditRating(ctx, userID, rt)
	if err != nil || !res.OK() {
		return res, err
	}

	rt.Score = score
	rt.Comment = strings.TrimSpace(comment)
	if err := s.repo.Update(ctx, rt); err != nil {
		return result.Result{}, s.infra("rating.edit", err)
	}
	return result.Created(rt.ID, "Rating updated"), nil
}

func (s *Service) ListByRoom(ctx context.Context, roomID int64, limit int) (*RoomSummary, error) {
	ratings, err := s.repo.ListByRoom(ctx, roomID, limit)
	if err != nil {
		return nil, s.infra("rating.list", err)
	}
	count, avg, err := s.repo.RoomStats(ctx, roomID)
	if err != nil {
		return nil, s.infra("rating.stats", err)
	}
	return &RoomSummary{RoomID: roomID, Count: count, Average: avg, Ratings: ratings}, nil
}

func (s *Service) infra(op string, err error) error {
	s.log.Error("rating infrastructure failure", zap.String("op", op), zap.Error(err))
	return result.Infra(op, err)
}
