package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/artwall/storefront/pkg/logger"
)

type MockFlusher struct {
	mock.Mock
}

func (m *MockFlusher) FlushDirty(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestCronManager_Start(t *testing.T) {
	m := NewCronManager(new(MockFlusher), "@every 1h", logger.Nop())
	require.NoError(t, m.Start())
	m.Stop()
}

func TestCronManager_InvalidSchedule(t *testing.T) {
	m := NewCronManager(new(MockFlusher), "not a schedule", logger.Nop())
	assert.Error(t, m.Start())
}

func TestCronManager_RunFlushNow(t *testing.T) {
	flusher := new(MockFlusher)
	flusher.On("FlushDirty", mock.Anything).Return(2, nil).Once()

	m := NewCronManager(flusher, "@every 1h", logger.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, m.RunFlushNow(ctx))
	flusher.AssertExpectations(t)
}

func TestCronManager_RunFlushNowReportsFailure(t *testing.T) {
	flusher := new(MockFlusher)
	flusher.On("FlushDirty", mock.Anything).Return(1, errors.New("redis unavailable"))

	m := NewCronManager(flusher, "@every 1h", logger.Nop())
	assert.EqualError(t, m.RunFlushNow(context.Background()), "redis unavailable")
}

func TestCronManager_ScheduledFlush(t *testing.T) {
	flusher := new(MockFlusher)
	called := make(chan struct{}, 1)
	flusher.On("FlushDirty", mock.Anything).Return(0, nil).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	})

	m := NewCronManager(flusher, "@every 1s", logger.Nop())
	require.NoError(t, m.Start())
	defer m.Stop()

	select {
	case <-called:
	case <-time.After(3 * time.Second):
		t.Fatal("flush job did not run")
	}
}
