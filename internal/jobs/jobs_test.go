package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepStalePending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockPurger struct {
	mock.Mock
}

func (m *MockPurger) PurgeRead(ctx context.Context, keep time.Duration) (int64, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(int64), args.Error(1)
}

func TestNew_RegistersJobs(t *testing.T) {
	s, err := New(new(MockSweeper), new(MockPurger), Config{SweepSpec: "@every 5m"}, time.UTC, nil)
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 2)

	s, err = New(nil, new(MockPurger), Config{SweepSpec: "@every 5m"}, time.UTC, nil)
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New(new(MockSweeper), nil, Config{SweepSpec: "every now and then"}, time.UTC, nil)
	assert.Error(t, err)
}

func TestSweepPending_LogsOutcome(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("SweepStalePending", mock.Anything).Return(2, nil).Once()
	sweeper.On("SweepStalePending", mock.Anything).Return(0, errors.New("db down")).Once()

	core, logs := observer.New(zap.InfoLevel)
	s, err := New(sweeper, nil, Config{SweepSpec: "@every 5m"}, time.UTC, zap.New(core))
	require.NoError(t, err)

	s.SweepPending()
	s.SweepPending()

	sweeper.AssertExpectations(t)
	assert.Equal(t, 1, logs.FilterMessage("pending sweep rejected reservations").Len())
	assert.Equal(t, 1, logs.FilterMessage("pending sweep failed").Len())
}

func TestPurgeNotifications_UsesKeep(t *testing.T) {
	purger := new(MockPurger)
	purger.On("PurgeRead", mock.Anything, 30*24*time.Hour).Return(int64(4), nil).Once()

	s, err := New(nil, purger, Config{}, time.UTC, nil)
	require.NoError(t, err)

	s.PurgeNotifications()
	purger.AssertExpectations(t)
}

func TestStartStop(t *testing.T) {
	s, err := New(new(MockSweeper), nil, Config{SweepSpec: "@every 1h"}, time.UTC, nil)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
