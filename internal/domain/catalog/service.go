package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"roombooking/internal/pkg/result"
)

type Service struct {
	repo     *Repository
	minRatio float64
	log      *zap.Logger
}

func NewService(repo *Repository, minRatio float64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, minRatio: minRatio, log: log}
}

// RoomTypeView is a room type with its effective party-size band and rooms.
type RoomTypeView struct {
	RoomType
	MinParty int    `json:"min_party"`
	MaxParty int    `json:"max_party"`
	Rooms    []Room `json:"rooms"`
}

func (s *Service) ListRoomTypes(ctx context.Context) ([]RoomTypeView, error) {
	types, err := s.repo.ListRoomTypes(ctx)
	if err != nil {
		return nil, result.Infra("list room types", err)
	}

	out := make([]RoomTypeView, 0, len(types))
	for _, t := range types {
		rooms, err := s.repo.ListRoomsByType(ctx, t.ID)
		if err != nil {
			return nil, result.Infra("list rooms", err)
		}
		min, max := t.Band(s.minRatio)
		out = append(out, RoomTypeView{RoomType: t, MinParty: min, MaxParty: max, Rooms: rooms})
	}
	return out, nil
}

func (s *Service) CreateRoomType(ctx context.Context, in CreateRoomTypeRequest) (result.Result, error) {
	if in.MinOccupancy > in.Capacity {
		return result.Invalidf("Minimum occupancy %d exceeds capacity %d", in.MinOccupancy, in.Capacity), nil
	}
	t := &RoomType{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Capacity:     in.Capacity,
		MinOccupancy: in.MinOccupancy,
	}
	if err := s.repo.CreateRoomType(ctx, t); err != nil {
		return result.Result{}, result.Infra("create room type", err)
	}
	s.log.Info("room type created", zap.Int64("room_type_id", t.ID), zap.String("name", t.Name))
	return result.Created(t.ID, "Room type created"), nil
}

func (s *Service) CreateRoom(ctx context.Context, in CreateRoomRequest) (result.Result, error) {
	if _, err := s.repo.GetRoomType(ctx, in.RoomTypeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return result.NotFound("Room type not found"), nil
		}
		return result.Result{}, result.Infra("create room", err)
	}
	room := &Room{
		RoomTypeID: in.RoomTypeID,
		Name:       strings.TrimSpace(in.Name),
		Location:   in.Location,
		IsActive:   true,
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return result.Result{}, result.Infra("create room", err)
	}
	return result.Created(room.ID, "Room created"), nil
}

// CreateBlock closes a room for part of a day. An end of "00:00" runs to midnight.
func (s *Service) CreateBlock(ctx context.Context, staffID, roomID int64, in CreateBlockRequest) (result.Result, error) {
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return result.Invalid("Date must be YYYY-MM-DD"), nil
	}
	st, err := time.Parse(TimeOfDayLayout, in.StartTime)
	if err != nil {
		return result.Invalid("Start time must be HH:MM"), nil
	}
	et, err := time.Parse(TimeOfDayLayout, in.EndTime)
	if err != nil {
		return result.Invalid("End time must be HH:MM"), nil
	}
	if in.EndTime != "00:00" && !et.After(st) {
		return result.Invalid("End time must be after start time"), nil
	}

	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return result.NotFound("Room not found"), nil
		}
		return result.Result{}, result.Infra("create block", err)
	}

	b := &ScheduleBlock{
		RoomID:    roomID,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Reason:    in.Reason,
		CreatedBy: staffID,
	}
	if err := s.repo.CreateBlock(ctx, b); err != nil {
		return result.Result{}, result.Infra("create block", err)
	}
	s.log.Info("schedule block created",
		zap.Int64("room_id", roomID),
		zap.String("date", b.Date),
		zap.String("start", b.StartTime),
		zap.String("end", b.EndTime),
		zap.Int64("staff_id", staffID),
	)
	return result.Created(b.ID, "Block created"), nil
}

func (s *Service) ListBlocks(ctx context.Context, roomID int64, date string) ([]ScheduleBlock, result.Result, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, result.Invalid("Date must be YYYY-MM-DD"), nil
	}
	blocks, err := s.repo.BlocksOn(ctx, roomID, date)
	if err != nil {
		return nil, result.Result{}, result.Infra("list blocks", err)
	}
	return blocks, result.OK(""), nil
}
