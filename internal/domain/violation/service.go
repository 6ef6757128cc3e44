package violation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"roombooking/internal/clock"
	"roombooking/internal/pkg/result"
)

type Service struct {
	repo         *Repository
	clock        clock.Clock
	windowMonths int
	threshold    int
	log          *zap.Logger
}

func NewService(repo *Repository, clk clock.Clock, windowMonths, threshold int, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, clock: clk, windowMonths: windowMonths, threshold: threshold, log: log}
}

// CountRecentViolations counts violations lodged in the trailing monthsBack
// calendar months.
func (s *Service) CountRecentViolations(ctx context.Context, userID int64, monthsBack int) (int64, error) {
	since := s.clock.Now().AddDate(0, -monthsBack, 0)
	return s.repo.CountRecent(ctx, userID, since)
}

func (s *Service) Standing(ctx context.Context, userID int64) (*Standing, error) {
	n, err := s.CountRecentViolations(ctx, userID, s.windowMonths)
	if err != nil {
		return nil, result.Infra("violation.standing", err)
	}
	return &Standing{
		UserID:       userID,
		Count:        n,
		WindowMonths: s.windowMonths,
		Threshold:    s.threshold,
		CanBook:      n <= int64(s.threshold),
	}, nil
}

// Lodge records a violation against a usage record.
func (s *Service) Lodge(ctx context.Context, staffID, usageRecordID, categoryID int64, description string) (result.Result, error) {
	ok, err := s.repo.UsageRecordExists(ctx, usageRecordID)
	if err != nil {
		return result.Result{}, s.infra("violation.lodge.usage", err)
	}
	if !ok {
		return result.NotFound("Usage record not found"), nil
	}
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return result.Invalid("Unknown violation category"), nil
		}
		return result.Result{}, s.infra("violation.lodge.category", err)
	}

	v := &Violation{
		UsageRecordID:    usageRecordID,
		CategoryID:       categoryID,
		LodgedAt:         s.clock.Now(),
		LodgedBy:         staffID,
		ProcessingStatus: StatusOpen,
		Description:      strings.TrimSpace(description),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return result.Result{}, s.infra("violation.lodge", err)
	}

	s.log.Info("violation lodged",
		zap.Int64("violation_id", v.ID),
		zap.Int64("usage_record_id", usageRecordID),
		zap.Int64("lodged_by", staffID),
	)
	return result.Created(v.ID, "Violation recorded"), nil
}

func (s *Service) SetStatus(ctx context.Context, id int64, status ProcessingStatus) (result.Result, error) {
	if !status.IsValid() {
		return result.Invalidf("Unknown processing status %q", status), nil
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return result.NotFound("Violation not found"), nil
		}
		return result.Result{}, s.infra("violation.status.get", err)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return result.Result{}, s.infra("violation.status", err)
	}
	return result.Created(id, "Violation updated"), nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	out, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, s.infra("violation.categories", err)
	}
	return out, nil
}

func (s *Service) ListByUsage(ctx context.Context, usageRecordID int64) ([]Violation, error) {
	out, err := s.repo.ListByUsage(ctx, usageRecordID)
	if err != nil {
		return nil, s.infra("violation.list", err)
	}
	return out, nil
}

func (s *Service) infra(op string, err error) error {
	s.log.Error("violation infrastructure failure", zap.String("op", op), zap.Error(err))
	return result.Infra(op, err)
}
