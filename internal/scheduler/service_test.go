package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunCuration() error {
	r.calls.Add(1)
	return r.err
}

func TestService_StartRunsOnSchedule(t *testing.T) {
	runner := &countingRunner{err: errors.New("run failed")}
	service := NewService("* * * * * *", runner)

	require.NoError(t, service.Start())
	defer service.Stop()

	assert.False(t, service.Next().IsZero())
	assert.Eventually(t, func() bool { return runner.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond,
		"a failing run is logged and does not stop the schedule")
}

func TestService_InvalidSchedule(t *testing.T) {
	service := NewService("every monday", &countingRunner{})

	assert.Error(t, service.Start())
	assert.True(t, service.Next().IsZero())
}
