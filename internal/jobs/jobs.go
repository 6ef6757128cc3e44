package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	defaultPurgeSpec = "0 3 * * *"
	jobTimeout       = time.Minute
)

type PendingSweeper interface {
	SweepStalePending(ctx context.Context) (int, error)
}

type ReadPurger interface {
	PurgeRead(ctx context.Context, keep time.Duration) (int64, error)
}

type Config struct {
	SweepSpec string
	PurgeSpec string
	// PurgeKeep is how long read notifications are kept.
	PurgeKeep time.Duration
}

// Scheduler runs the periodic maintenance jobs in the institution's timezone.
type Scheduler struct {
	cron    *cron.Cron
	sweeper PendingSweeper
	purger  ReadPurger
	cfg     Config
	log     *zap.Logger
}

func New(sweeper PendingSweeper, purger ReadPurger, cfg Config, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if cfg.PurgeSpec == "" {
		cfg.PurgeSpec = defaultPurgeSpec
	}
	if cfg.PurgeKeep <= 0 {
		cfg.PurgeKeep = 30 * 24 * time.Hour
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		sweeper: sweeper,
		purger:  purger,
		cfg:     cfg,
		log:     log,
	}

	if sweeper != nil && cfg.SweepSpec != "" {
		if _, err := s.cron.AddFunc(cfg.SweepSpec, s.SweepPending); err != nil {
			return nil, err
		}
	}
	if purger != nil {
		if _, err := s.cron.AddFunc(cfg.PurgeSpec, s.PurgeNotifications); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("cron jobs started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("cron jobs still running at shutdown")
	}
}

// SweepPending rejects reservations still pending after their start time.
func (s *Scheduler) SweepPending() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.sweeper.SweepStalePending(ctx)
	if err != nil {
		s.log.Error("pending sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("pending sweep rejected reservations", zap.Int("count", n))
	}
}

func (s *Scheduler) PurgeNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.purger.PurgeRead(ctx, s.cfg.PurgeKeep)
	if err != nil {
		s.log.Error("notification purge failed", zap.Error(err))
		return
	}
	s.log.Info("purged read notifications", zap.Int64("count", n))
}
