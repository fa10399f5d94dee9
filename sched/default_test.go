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

// The Default scheduler runs on the system clock, so these tests stick to
// immediate and tiny delays. They must not run in parallel with each other;
// the Default queue is shared process state.

func TestDefaultSpawnAndJoin(t *testing.T) {
	defer sched.Clear()

	var l []int
	_, err := sched.Spawn(sched.Steps(appendSteps(&l, 1, 2)))
	require.NoError(t, err)

	require.NoError(t, sched.Join())
	assert.Equal(t, []int{1, 2}, l)
}

func TestDefaultAfterAndEvery(t *testing.T) {
	defer sched.Clear()

	var delayed bool
	_, err := sched.After(time.Millisecond, sched.Once(func() { delayed = true }))
	require.NoError(t, err)

	var fired int
	var p *sched.Task
	p, err = sched.Every(time.Millisecond, sched.Once(func() {
		fired++
		if fired >= 3 {
			require.NoError(t, p.Stop())
		}
	}))
	require.NoError(t, err)

	require.NoError(t, sched.Join())
	assert.True(t, delayed)
	assert.Equal(t, 3, fired)
}

func TestDefaultJoinForReturns(t *testing.T) {
	defer sched.Clear()

	_, err := sched.Spawn(sched.Steps(func(yield func(sched.Directive) bool) {
		if !yield(sched.Sleep(time.Hour)) {
			return
		}
	}))
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, sched.JoinFor(10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
