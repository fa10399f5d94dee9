// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sched_test

import (
	"testing"
	"time"

	"github.com/deep-rent/loom/sched"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTwiceFails(t *testing.T) {
	t.Parallel()
	s, _ := newScheduler()

	task, err := s.NewTask(sched.Once(func() {}))
	require.NoError(t, err)

	require.NoError(t, task.Start())
	require.ErrorIs(t, task.Start(), sched.ErrStarted)
}

func TestJoinBeforeStartFails(t *testing.T) {
	t.Parallel()
	s, _ := newScheduler()

	task, err := s.NewTask(sched.Once(func() {}))
	require.NoError(t, err)

	require.ErrorIs(t, task.Join(), sched.ErrNotStarted)
	require.ErrorIs(t, task.JoinFor(time.Second), sched.ErrNotStarted)
}

func TestStopMisuse(t *testing.T) {
	t.Parallel()
	s, _ := newScheduler()

	plain, err := s.NewTask(sched.Once(func() {}))
	require.NoError(t, err)
	require.ErrorIs(t, plain.Stop(), sched.ErrNotPeriodic)

	periodic, err := s.NewPeriodic(time.Second, sched.Once(func() {}))
	require.NoError(t, err)
	require.ErrorIs(t, periodic.Stop(), sched.ErrNotStarted)
}

func TestConstructionValidation(t *testing.T) {
	t.Parallel()
	s, _ := newScheduler()

	type test struct {
		name string
		make func() (*sched.Task, error)
		err  error
	}

	tests := []test{
		{
			name: "non-nil group",
			make: func() (*sched.Task, error) {
				return s.NewTask(sched.Once(func() {}), sched.WithGroup("workers"))
			},
			err: sched.ErrGroup,
		},
		{
			name: "negative timer interval",
			make: func() (*sched.Task, error) {
				return s.NewTimer(-time.Second, sched.Once(func() {}))
			},
			err: sched.ErrInterval,
		},
		{
			name: "negative periodic interval",
			make: func() (*sched.Task, error) {
				return s.NewPeriodic(-time.Second, sched.Once(func() {}))
			},
			err: sched.ErrInterval,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task, err := tc.make()
			require.ErrorIs(t, err, tc.err)
			assert.Nil(t, task)
		})
	}
}

func TestTaskNames(t *testing.T) {
	t.Parallel()
	s, _ := newScheduler()

	named, err := s.NewTask(sched.Once(func() {}), sched.WithName("worker"))
	require.NoError(t, err)
	assert.Equal(t, "worker", named.Name())

	unnamed, err := s.NewTask(sched.Once(func() {}))
	require.NoError(t, err)
	assert.NotEmpty(t, unnamed.Name())
}

func TestPlainTargetDiesAfterSingleRun(t *testing.T) {
	t.Parallel()
	s, _ := newScheduler()

	var runs int
	task, err := s.Spawn(sched.Once(func() { runs++ }))
	require.NoError(t, err)
	assert.True(t, task.Alive())

	require.NoError(t, s.Join())
	assert.Equal(t, 1, runs)
	assert.False(t, task.Alive())
	assert.True(t, task.Done().IsSet())
}

func TestNilTargetDiesImmediately(t *testing.T) {
	t.Parallel()
	s, _ := newScheduler()

	task, err := s.Spawn(nil)
	require.NoError(t, err)

	require.NoError(t, s.Join())
	assert.False(t, task.Alive())
}

func TestJoinOnDeadTaskReturnsImmediately(t *testing.T) {
	t.Parallel()
	s, _ := newScheduler()

	task, err := s.Spawn(sched.Once(func() {}))
	require.NoError(t, err)
	require.NoError(t, s.Join())

	require.NoError(t, task.Join())
	require.NoError(t, task.JoinFor(time.Second))
}

func TestTimerRunsAfterDelay(t *testing.T) {
	t.Parallel()
	s, v := newScheduler()

	var ran time.Time
	task, err := s.After(250*time.Millisecond, sched.Once(func() { ran = v.Now() }))
	require.NoError(t, err)

	require.NoError(t, s.Join())
	assert.Equal(t, epoch.Add(250*time.Millisecond), ran)
	assert.False(t, task.Alive())
}

func TestTimerWithStepsYields(t *testing.T) {
	t.Parallel()
	s, v := newScheduler()

	var at []time.Duration
	_, err := s.After(100*time.Millisecond, sched.Steps(func(yield func(sched.Directive) bool) {
		at = append(at, v.Now().Sub(epoch))
		if !yield(sched.Sleep(50 * time.Millisecond)) {
			return
		}
		at = append(at, v.Now().Sub(epoch))
	}))
	require.NoError(t, err)

	require.NoError(t, s.Join())
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		150 * time.Millisecond,
	}, at)
}
