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

package sched

import "time"

// Default is the process-wide scheduler behind the package-level helpers.
// Programs that need their own clock, sleeper, or logger construct a
// Scheduler with New instead.
var Default = New()

// Spawn constructs and starts a task on the Default scheduler.
func Spawn(target Target, opts ...TaskOption) (*Task, error) {
	return Default.Spawn(target, opts...)
}

// After constructs and starts a one-shot delayed task on the Default
// scheduler.
func After(delay time.Duration, target Target, opts ...TaskOption) (*Task, error) {
	return Default.After(delay, target, opts...)
}

// Every constructs and starts a periodic task on the Default scheduler.
func Every(interval time.Duration, target Target, opts ...TaskOption) (*Task, error) {
	return Default.Every(interval, target, opts...)
}

// Join drains the Default scheduler.
func Join() error { return Default.Join() }

// JoinFor drains the Default scheduler until the timeout elapses.
func JoinFor(timeout time.Duration) error { return Default.JoinFor(timeout) }

// Clear discards all tasks scheduled on the Default scheduler.
func Clear() { Default.Clear() }
