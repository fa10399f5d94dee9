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

// Directive is a value yielded by a task step that tells the scheduler how to
// proceed before the task's next step. The accepted directives are Pass,
// Sleep, an *Event, a *Task (shorthand for its death event), and First.
// A nil Directive is equivalent to Pass.
//
// The interface is sealed; values outside this set cannot be constructed.
type Directive interface {
	directive()
}

type unit struct{}

func (unit) directive() {}

// Pass yields the processor without waiting. The task is rescheduled at the
// current time and runs again once every earlier task had its turn.
var Pass Directive = unit{}

type pause time.Duration

func (pause) directive() {}

// Sleep suspends the yielding task for the given duration. A negative
// duration is an invalid directive and terminates the task; see
// ErrBadDirective.
func Sleep(d time.Duration) Directive { return pause(d) }

type anyOf []Directive

func (anyOf) directive() {}

// First suspends the yielding task until the first of the given directives
// resolves:
//
//   - Pass entries are ignored.
//   - Sleep entries fold into a single timeout, the minimum of all entries.
//   - Event and task entries wake the task as soon as any of them fires.
//
// The task resumes as soon as one source fires or the timeout elapses,
// whichever comes first. A First nested inside another First is an invalid
// directive.
func First(ds ...Directive) Directive { return anyOf(ds) }
