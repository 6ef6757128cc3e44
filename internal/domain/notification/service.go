package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"roombooking/internal/clock"
)

type Service struct {
	repo         *Repository
	registry     Registry
	clock        clock.Clock
	ratingWindow time.Duration
	log          *zap.Logger
}

// NewService wires persistence and push. registry may be nil, in which case
// notifications are only stored. ratingWindow is quoted in the completion
// notice.
func NewService(repo *Repository, registry Registry, clk clock.Clock, ratingWindow time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, registry: registry, clock: clk, ratingWindow: ratingWindow, log: log}
}

// Create stores a notification for userID and pushes it to their open connections.
func (s *Service) Create(ctx context.Context, userID int64, t Type, title, body string, data *Data) (*Notification, error) {
	n := &Notification{
		UserID: userID,
		Type:   t,
		Title:  title,
		Body:   body,
	}
	if err := n.SetData(data); err != nil {
		return nil, fmt.Errorf("encode notification data: %w", err)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.registry != nil {
		s.registry.SendToUser(ctx, userID, &Event{Type: EventNotification, Payload: n})
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, int64, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return list, unread, total, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// PurgeRead deletes read notifications older than keep.
func (s *Service) PurgeRead(ctx context.Context, keep time.Duration) (int64, error) {
	return s.repo.DeleteReadOlderThan(ctx, s.clock.Now().Add(-keep))
}

func (s *Service) NotifyReservationCreated(ctx context.Context, userID, reservationID int64, roomID *int64, start time.Time) error {
	startStr := start.In(s.clock.Location()).Format(time.RFC3339)
	data := &Data{ReservationID: reservationID, RoomID: roomID, StartTime: &startStr}
	when := start.In(s.clock.Location()).Format("02/01/2006 15:04")

	_, err := s.Create(ctx, userID, TypeReservationCreated,
		"Reservation received",
		fmt.Sprintf("Your reservation for %s is waiting for approval", when),
		data,
	)
	if s.registry != nil {
		s.registry.SendToGroup(ctx, GroupStaff, &Event{
			Type:    string(TypeReservationSubmitted),
			Payload: data,
		})
	}
	return err
}

func (s *Service) NotifyReservationApproved(ctx context.Context, userID, reservationID int64) error {
	_, err := s.Create(ctx, userID, TypeReservationApproved,
		"Reservation approved",
		"Your reservation has been approved. Remember to check in on time",
		&Data{ReservationID: reservationID},
	)
	return err
}

func (s *Service) NotifyReservationRejected(ctx context.Context, userID, reservationID int64, reason string) error {
	body := "Your reservation was not approved"
	if reason != "" {
		body += ". Reason: " + reason
	}
	_, err := s.Create(ctx, userID, TypeReservationRejected, "Reservation rejected", body,
		&Data{ReservationID: reservationID, Reason: strPtr(reason)})
	return err
}

func (s *Service) NotifyReservationCancelled(ctx context.Context, userID, reservationID int64, reason string) error {
	body := "Your reservation has been cancelled"
	if reason != "" {
		body += ". Reason: " + reason
	}
	_, err := s.Create(ctx, userID, TypeReservationCancelled, "Reservation cancelled", body,
		&Data{ReservationID: reservationID, Reason: strPtr(reason)})
	return err
}

func (s *Service) NotifyReservationCompleted(ctx context.Context, userID, reservationID int64) error {
	_, err := s.Create(ctx, userID, TypeReservationCompleted,
		"Thank you",
		fmt.Sprintf("Thanks for leaving the room in good shape. You can rate it within the next %s",
			clock.FormatDuration(s.ratingWindow)),
		&Data{ReservationID: reservationID},
	)
	return err
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
