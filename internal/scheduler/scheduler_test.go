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

type countingTask struct {
	runs     atomic.Int32
	interval time.Duration
	err      error
}

func (c *countingTask) Run(context.Context) error {
	c.runs.Add(1)
	return c.err
}
func (c *countingTask) Interval() time.Duration { return c.interval }
func (c *countingTask) Name() string            { return "counting" }

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	s := New(context.Background())
	task := &countingTask{interval: 20 * time.Millisecond}
	s.AddTask(task)
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return task.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_ErrorsDoNotStopTask(t *testing.T) {
	s := New(context.Background())
	task := &countingTask{interval: 10 * time.Millisecond, err: errors.New("boom")}
	s.AddTask(task)
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return task.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopWaits(t *testing.T) {
	s := New(context.Background())
	task := &countingTask{interval: time.Hour}
	s.AddTask(task)
	s.Start()
	s.Stop()

	runs := task.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, runs, task.runs.Load())
}

func TestScheduler_IgnoresBadTasks(t *testing.T) {
	s := New(context.Background())
	s.AddTask(&countingTask{interval: 0})
	assert.Empty(t, s.tasks)

	s.Start()
	late := &countingTask{interval: time.Millisecond}
	s.AddTask(late)
	s.Stop()

	assert.Equal(t, int32(0), late.runs.Load())
}
