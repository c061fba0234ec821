package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yearly = "0 0 1 1 *"

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestAddCronJob(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCronJob("b", "B", "second job", yearly, func(context.Context) error { return nil }))
	require.NoError(t, s.AddCronJob("a", "A", "first job", " "+yearly+" ", func(context.Context) error { return nil }))

	err := s.AddCronJob("a", "A", "duplicate", yearly, func(context.Context) error { return nil })
	assert.Error(t, err)

	err = s.AddCronJob("bad", "Bad", "invalid schedule", "every tuesday", func(context.Context) error { return nil })
	assert.Error(t, err)

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Equal(t, yearly, jobs[0].Schedule)
	assert.Equal(t, JobStatusScheduled, jobs[0].Status)
	assert.Equal(t, "b", jobs[1].ID)
}

func TestRunJobNow(t *testing.T) {
	s := newScheduler(t)

	var runs atomic.Int32
	require.NoError(t, s.AddCronJob("ok", "OK", "", yearly, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, s.AddCronJob("fail", "Fail", "", yearly, func(context.Context) error {
		return errors.New("smtp down")
	}))

	s.Start()

	job, ok := s.Job("ok")
	require.True(t, ok)
	assert.False(t, job.NextRun.IsZero())

	require.NoError(t, s.RunJobNow("ok"))
	require.NoError(t, s.RunJobNow("fail"))

	assert.Eventually(t, func() bool {
		j, _ := s.Job("ok")
		return j.Status == JobStatusCompleted && j.RunCount == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	assert.Eventually(t, func() bool {
		j, _ := s.Job("fail")
		return j.Status == JobStatusFailed && j.ErrorCount == 1 && j.LastError == "smtp down"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunJobNow_Unknown(t *testing.T) {
	s := newScheduler(t)
	assert.ErrorIs(t, s.RunJobNow("missing"), ErrJobNotFound)

	_, ok := s.Job("missing")
	assert.False(t, ok)
}
