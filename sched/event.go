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

// Event is a one-shot latch. It starts unset, becomes set exactly once, and
// is not reusable. Tasks wait for an event by yielding it; they resume in
// subscription order once the event fires. Yielding an event that is already
// set reschedules the task immediately.
//
// Like the rest of the runtime, an Event must only be touched from the
// scheduling goroutine.
type Event struct {
	set  bool
	subs []func()
}

func NewEvent() *Event { return &Event{} }

// IsSet reports whether the event has fired.
func (e *Event) IsSet() bool { return e.set }

// Set fires the event. Every subscriber runs exactly once, in subscription
// order. Subscribers added while the list drains run inline, as does any
// subscription made after the event fired. Setting an event twice is a no-op.
func (e *Event) Set() {
	if e.set {
		return
	}
	e.set = true
	subs := e.subs
	e.subs = nil
	for _, fn := range subs {
		fn()
	}
}

// apply defers fn until the event fires, or runs it inline when it already
// has. The same fn may be applied twice; it then runs twice.
func (e *Event) apply(fn func()) {
	if e.set {
		fn()
		return
	}
	e.subs = append(e.subs, fn)
}

func (*Event) directive() {}
