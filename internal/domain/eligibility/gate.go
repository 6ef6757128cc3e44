package eligibility

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"roombooking/internal/domain/catalog"
	"roombooking/internal/pkg/result"
)

type Policy struct {
	ViolationWindowMonths int
	ViolationThreshold    int
	MinOccupancyRatio     float64
}

func DefaultPolicy() Policy {
	return Policy{
		ViolationWindowMonths: 6,
		ViolationThreshold:    3,
		MinOccupancyRatio:     0.5,
	}
}

type RoomTypes interface {
	GetRoomType(ctx context.Context, id int64) (*catalog.RoomType, error)
}

type ViolationCounter interface {
	CountRecentViolations(ctx context.Context, userID int64, monthsBack int) (int64, error)
}

// Gate combines the capacity band of the room type with the user's
// recent violation history.
type Gate struct {
	roomTypes  RoomTypes
	violations ViolationCounter
	policy     Policy
	log        *zap.Logger
}

func NewGate(roomTypes RoomTypes, violations ViolationCounter, policy Policy, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{roomTypes: roomTypes, violations: violations, policy: policy, log: log}
}

func (g *Gate) Check(ctx context.Context, userID, roomTypeID int64, partySize int) (result.Result, error) {
	rt, err := g.roomTypes.GetRoomType(ctx, roomTypeID)
	if errors.Is(err, catalog.ErrNotFound) {
		return result.NotFound("Room type not found"), nil
	}
	if err != nil {
		return result.Result{}, result.Infra("eligibility.room_type", err)
	}

	min, max := rt.Band(g.policy.MinOccupancyRatio)
	if partySize < min {
		return result.Invalidf("%s needs at least %d people, requested %d", rt.Name, min, partySize), nil
	}
	if partySize > max {
		return result.Invalidf("%s holds at most %d people, requested %d", rt.Name, max, partySize), nil
	}

	count, err := g.violations.CountRecentViolations(ctx, userID, g.policy.ViolationWindowMonths)
	if err != nil {
		return result.Result{}, result.Infra("eligibility.violations", err)
	}
	if count > int64(g.policy.ViolationThreshold) {
		g.log.Info("booking refused for violations",
			zap.Int64("user_id", userID),
			zap.Int64("violations", count),
		)
		return result.Forbiddenf("You have %d violations in the last %d months and cannot book until your record improves",
			count, g.policy.ViolationWindowMonths), nil
	}

	return result.OK("Eligible"), nil
}
