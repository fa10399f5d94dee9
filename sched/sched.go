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

// Package sched implements a single-threaded cooperative runtime. Tasks run
// one at a time on the joining goroutine and suspend themselves by yielding
// directives: Pass to hand the processor forward, Sleep to wait for a
// duration, an Event or Task to wait for a wake-up, or First to wait for
// whichever of several sources resolves first.
//
// The scheduler keeps a time-ordered queue of suspended tasks. It repeatedly
// pops the earliest one, sleeps until its wake-up instant, advances it by a
// single directive, and files it back according to what it yielded. Tasks
// scheduled for the same instant run in insertion order.
//
// # Usage
//
// A task's target returns a Step, a sequence of directives expressed as a
// range-over-func iterator:
//
//	s := sched.New()
//
//	task, _ := s.Spawn(sched.Steps(func(yield func(sched.Directive) bool) {
//		fmt.Println("tick")
//		if !yield(sched.Sleep(time.Second)) {
//			return
//		}
//		fmt.Println("tock")
//	}))
//
//	if err := s.Join(); err != nil {
//		// a task yielded an invalid directive
//	}
//
// Targets that never yield can be wrapped with Once. After and Every arrange
// delayed and periodic execution, mirroring Spawn.
//
// # Threading
//
// The runtime is cooperative, not parallel. All operations — constructing
// tasks, starting them, setting events, joining — must happen on the same
// goroutine. Nothing preempts a task; a target that neither yields nor
// returns starves the scheduler.
package sched

import (
	"container/heap"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/deep-rent/loom/clock"
	"github.com/deep-rent/loom/log"
)

var (
	// ErrBadDirective reports that a task yielded a value outside the
	// accepted directive set, such as a negative sleep. The offending task is
	// terminated and the error surfaces from the join that observed it.
	ErrBadDirective = errors.New("invalid directive")

	// ErrStalled reports that a task-local join found the queue empty while
	// the task was still alive, so the scheduler cannot make progress.
	ErrStalled = errors.New("no runnable tasks left")

	// ErrInterval rejects a negative timer or periodic interval.
	ErrInterval = errors.New("interval must not be negative")

	// ErrGroup rejects a non-nil task group; see WithGroup.
	ErrGroup = errors.New("group must be nil")
)

type config struct {
	clock  clock.Clock
	sleep  clock.Sleeper
	logger *slog.Logger
}

// Option customizes a Scheduler.
type Option func(*config)

// WithClock sets the time source. Defaults to the system clock. A nil value
// is ignored.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithSleeper sets the blocking sleep primitive used to wait out the gap
// until the next task is due. Defaults to the system sleeper. A nil value is
// ignored.
func WithSleeper(s clock.Sleeper) Option {
	return func(cfg *config) {
		if s != nil {
			cfg.sleep = s
		}
	}
}

// WithLogger provides a logger for task lifecycle diagnostics, emitted at
// debug level. Defaults to a silent logger. A nil value is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// Scheduler interleaves cooperative tasks on the calling goroutine. The zero
// value is not usable; construct one with New. See the package documentation
// for the threading contract.
type Scheduler struct {
	now   clock.Clock
	sleep clock.Sleeper
	log   *slog.Logger
	queue queue
	seq   uint64
	names uint64
}

// New creates a Scheduler. By default it reads the system clock and blocks
// via time.Sleep; tests substitute both through WithClock and WithSleeper.
func New(opts ...Option) *Scheduler {
	c := config{
		clock:  clock.SystemClock(),
		sleep:  clock.SystemSleeper(),
		logger: log.Silent(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &Scheduler{
		now:   c.clock,
		sleep: c.sleep,
		log:   c.logger,
	}
}

// NewTask constructs an unstarted task that becomes due immediately once
// started.
func (s *Scheduler) NewTask(target Target, opts ...TaskOption) (*Task, error) {
	return s.newTask(kindOnce, 0, target, opts)
}

// NewTimer constructs an unstarted task whose single activation becomes due
// one interval after it is started.
func (s *Scheduler) NewTimer(interval time.Duration, target Target, opts ...TaskOption) (*Task, error) {
	return s.newTask(kindTimer, interval, target, opts)
}

// NewPeriodic constructs an unstarted task that activates every interval,
// starting one interval after it is started. Each firing is re-scheduled
// relative to the previous due time, so the cadence does not drift with
// execution time. The task runs until stopped; see Task.Stop.
//
// When a firing's target returns a step sequence, the sequence is detached
// into a helper task that advances on its own schedule, and the periodic
// fires again at the next interval regardless of the helper's progress.
// Firings can therefore overlap in this cooperative sense.
func (s *Scheduler) NewPeriodic(interval time.Duration, target Target, opts ...TaskOption) (*Task, error) {
	return s.newTask(kindPeriodic, interval, target, opts)
}

func (s *Scheduler) newTask(k kind, interval time.Duration, target Target, opts []TaskOption) (*Task, error) {
	if interval < 0 {
		return nil, ErrInterval
	}
	var c taskConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.group != nil {
		return nil, ErrGroup
	}
	name := c.name
	if name == "" {
		s.names++
		name = fmt.Sprintf("task-%d", s.names)
	}
	return &Task{
		s:        s,
		target:   target,
		name:     name,
		kind:     k,
		interval: interval,
		alive:    true,
		done:     NewEvent(),
	}, nil
}

// Spawn constructs and immediately starts a task.
func (s *Scheduler) Spawn(target Target, opts ...TaskOption) (*Task, error) {
	return s.launch(s.NewTask(target, opts...))
}

// After constructs and immediately starts a one-shot task that first runs
// after the given delay.
func (s *Scheduler) After(delay time.Duration, target Target, opts ...TaskOption) (*Task, error) {
	return s.launch(s.NewTimer(delay, target, opts...))
}

// Every constructs and immediately starts a periodic task with the given
// interval.
func (s *Scheduler) Every(interval time.Duration, target Target, opts ...TaskOption) (*Task, error) {
	return s.launch(s.NewPeriodic(interval, target, opts...))
}

func (s *Scheduler) launch(t *Task, err error) (*Task, error) {
	if err != nil {
		return nil, err
	}
	if err := t.Start(); err != nil {
		return nil, err
	}
	return t, nil
}

// Join drives the scheduler until the queue is empty. Tasks parked on events
// that never fire are not considered; a join with nothing scheduled returns
// immediately.
func (s *Scheduler) Join() error {
	return s.drain(time.Time{}, nil)
}

// JoinFor is like Join but returns once the given timeout has elapsed, even
// if tasks remain scheduled. Remaining tasks keep their state and a later
// join picks them up again.
func (s *Scheduler) JoinFor(timeout time.Duration) error {
	return s.drain(s.now().Add(timeout), nil)
}

// Clear discards every scheduled task from the queue. Events and the tasks
// parked on them are unaffected.
func (s *Scheduler) Clear() {
	s.queue = s.queue[:0]
}

// schedule files the task on the queue at the given wake-up instant.
func (s *Scheduler) schedule(t *Task, at time.Time) {
	t.next = at
	s.seq++
	heap.Push(&s.queue, entry{at: at, seq: s.seq, task: t})
}

// drain is the scheduler loop shared by all joins. A zero deadline means no
// timeout. When until is non-nil, the loop runs until that task dies;
// otherwise it runs until the queue empties.
func (s *Scheduler) drain(deadline time.Time, until *Task) error {
	for until == nil || until.alive {
		if len(s.queue) == 0 {
			if until != nil {
				return fmt.Errorf("cannot join task %q: %w", until.name, ErrStalled)
			}
			return nil
		}

		e := heap.Pop(&s.queue).(entry)
		t := e.task

		// Stopped periodics linger on the queue until popped.
		if t.kind == kindPeriodic && t.stopped {
			s.log.Debug("discarding stopped periodic", "task", t.name)
			t.finish()
			continue
		}

		if !deadline.IsZero() && e.at.After(deadline) {
			heap.Push(&s.queue, e)
			if dt := deadline.Sub(s.now()); dt > 0 {
				s.sleep(dt)
			}
			return nil
		}

		if dt := e.at.Sub(s.now()); dt > 0 {
			s.sleep(dt)
		}

		run := t
		if t.kind == kindPeriodic {
			// Re-arm relative to the due time before running, so the cadence
			// anchors to the original start rather than the previous run.
			s.schedule(t, e.at.Add(t.interval))
			step := t.run()
			if step == nil {
				continue
			}
			run = s.detach(t, step)
		} else if run.steps == nil {
			step := run.run()
			if step == nil {
				run.finish()
				continue
			}
			run.steps, run.halt = iter.Pull(step)
		}

		d, ok := run.steps()
		if !ok {
			run.finish()
			continue
		}
		if err := s.resolve(run, d); err != nil {
			return err
		}
	}
	return nil
}

// detach wraps a periodic firing's step sequence in a helper task that
// advances independently of the periodic's schedule.
func (s *Scheduler) detach(t *Task, step Step) *Task {
	h := &Task{
		s:       s,
		name:    t.name,
		kind:    kindOnce,
		started: true,
		alive:   true,
		done:    NewEvent(),
	}
	h.steps, h.halt = iter.Pull(step)
	return h
}

// resolve interprets a yielded directive and files the task accordingly:
// back onto the queue, or into an event's subscriber list.
func (s *Scheduler) resolve(t *Task, d Directive) error {
	switch v := d.(type) {
	case nil:
		s.schedule(t, s.now())
	case unit:
		s.schedule(t, s.now())
	case pause:
		if v < 0 {
			t.finish()
			return fmt.Errorf("task %q: %w: negative sleep %s", t.name, ErrBadDirective, time.Duration(v))
		}
		s.schedule(t, s.now().Add(time.Duration(v)))
	case *Event:
		s.await(t, v)
	case *Task:
		s.await(t, v.done)
	case anyOf:
		return s.resolveAny(t, v)
	default:
		t.finish()
		return fmt.Errorf("task %q: %w: %T", t.name, ErrBadDirective, d)
	}
	return nil
}

// await parks the task on the event, or reschedules it immediately when the
// event already fired. A task woken by an event rejoins the ready tail at the
// then-current time.
func (s *Scheduler) await(t *Task, e *Event) {
	if e.IsSet() {
		s.schedule(t, s.now())
		return
	}
	e.apply(func() {
		s.log.Debug("task woken", "task", t.name)
		s.schedule(t, s.now())
	})
}

// resolveAny flattens a First collection into a single wait: the minimum of
// all sleeps becomes the timeout, and all events and task death events form
// the wake-up set.
func (s *Scheduler) resolveAny(t *Task, ds anyOf) error {
	wait := time.Duration(-1)
	var events []*Event
	for _, d := range ds {
		switch v := d.(type) {
		case nil, unit:
			// Yielding the processor is implied; nothing to wait for.
		case pause:
			if v < 0 {
				t.finish()
				return fmt.Errorf("task %q: %w: negative sleep %s", t.name, ErrBadDirective, time.Duration(v))
			}
			if wait < 0 || time.Duration(v) < wait {
				wait = time.Duration(v)
			}
		case *Event:
			events = append(events, v)
		case *Task:
			events = append(events, v.done)
		default:
			t.finish()
			return fmt.Errorf("task %q: %w: %T in composite wait", t.name, ErrBadDirective, d)
		}
	}

	switch {
	case len(events) == 0 && wait < 0:
		s.schedule(t, s.now())
	case len(events) == 0:
		s.schedule(t, s.now().Add(wait))
	case len(events) == 1 && wait < 0:
		s.await(t, events[0])
	default:
		// Fold the sources into a fresh one-shot latch; the first to fire
		// wins and the rest become no-ops.
		first := NewEvent()
		for _, e := range events {
			e.apply(first.Set)
		}
		if wait >= 0 {
			s.expire(wait, first)
		}
		s.await(t, first)
	}
	return nil
}

// expire arms an internal timer that fires the event after d.
func (s *Scheduler) expire(d time.Duration, e *Event) {
	t := &Task{
		s:        s,
		target:   Once(e.Set),
		name:     "timeout",
		kind:     kindTimer,
		interval: d,
		started:  true,
		alive:    true,
		done:     NewEvent(),
	}
	s.schedule(t, s.now().Add(d))
}
