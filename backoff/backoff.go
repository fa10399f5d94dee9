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

// Package backoff provides delay strategies for retried operations. A
// Strategy yields incrementally larger delays between attempts and is reset
// with Done once the retried operation succeeds or is abandoned.
//
// The default strategy built by New grows exponentially between a minimum
// and maximum delay and applies subtractive random jitter, which scatters
// retries in time. Strategies carry per-sequence state and follow the
// runtime's same-goroutine contract; they are not safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Default configuration values for the strategy built by New.
const (
	// DefaultMinDelay is the default delay before the first retry.
	DefaultMinDelay = 1 * time.Second
	// DefaultMaxDelay is the default upper bound for retry delays.
	DefaultMaxDelay = 1 * time.Minute
	// DefaultGrowthFactor is the default multiplier between delays.
	DefaultGrowthFactor float64 = 2.0
	// DefaultJitterAmount is the default fraction of jitter applied.
	DefaultJitterAmount float64 = 0.3
)

// Rand is a minimal source of randomness to ease substitution in tests.
type Rand interface {
	// Float64 generates a pseudo-random number in [0.0, 1.0).
	Float64() float64
}

// Ensure compliance with parent interface.
var _ Rand = (*rand.Rand)(nil)

// Strategy defines the contract for a backoff algorithm.
type Strategy interface {
	// Next returns the delay before the upcoming retry attempt. This method
	// is stateful and returns incrementally larger durations based on the
	// number of times it has been called since the last call to Done.
	Next() time.Duration
	// Done resets the strategy's internal state, such as its attempt
	// counter. This must be called after the retried operation succeeds or
	// is abandoned.
	Done()
	// MinDelay returns the lower bound for the delay returned by Next.
	MinDelay() time.Duration
	// MaxDelay returns the upper bound for the delay returned by Next.
	MaxDelay() time.Duration
}

type constant struct {
	delay time.Duration
}

// Constant produces a Strategy that always yields the same delay duration.
// If the provided delay is negative, it is treated as zero (meaning no
// delay).
func Constant(delay time.Duration) Strategy {
	return &constant{delay: max(0, delay)}
}

func (c *constant) Next() time.Duration     { return c.delay }
func (c *constant) Done()                   {}
func (c *constant) MinDelay() time.Duration { return c.delay }
func (c *constant) MaxDelay() time.Duration { return c.delay }

var _ Strategy = (*constant)(nil)

type linear struct {
	step     time.Duration
	maxDelay time.Duration
	attempts int
}

// Linear produces a Strategy whose delays grow by a fixed step per attempt,
// capped at maxDelay. Negative arguments are treated as zero.
func Linear(step, maxDelay time.Duration) Strategy {
	return &linear{step: max(0, step), maxDelay: max(0, maxDelay)}
}

func (l *linear) Next() time.Duration {
	l.attempts++
	d := l.step * time.Duration(l.attempts)
	return min(l.maxDelay, max(l.step, d))
}

func (l *linear) Done()                   { l.attempts = 0 }
func (l *linear) MinDelay() time.Duration { return l.step }
func (l *linear) MaxDelay() time.Duration { return l.maxDelay }

var _ Strategy = (*linear)(nil)

type exponential struct {
	minDelay time.Duration
	maxDelay time.Duration
	growth   float64
	jitter   float64
	rand     Rand
	attempts int
}

func (e *exponential) Next() time.Duration {
	d := time.Duration(float64(e.minDelay) * math.Pow(e.growth, float64(e.attempts)))
	e.attempts++
	d = min(e.maxDelay, max(e.minDelay, d))
	if e.jitter > 0 {
		// Subtractive jitter: damp the delay by a random fraction of the
		// jitter amount, leaving the upper bound untouched.
		d = time.Duration(float64(d) * (1 - e.rand.Float64()*e.jitter))
	}
	return d
}

func (e *exponential) Done()                   { e.attempts = 0 }
func (e *exponential) MinDelay() time.Duration { return e.minDelay }
func (e *exponential) MaxDelay() time.Duration { return e.maxDelay }

var _ Strategy = (*exponential)(nil)

type config struct {
	minDelay time.Duration
	maxDelay time.Duration
	growth   float64
	jitter   float64
	rand     Rand
}

// Option customizes the behavior of a backoff Strategy.
type Option func(*config)

// WithMinDelay sets the delay before the first retry. It is capped at zero
// (meaning no delay) if a negative duration is provided. If not customized,
// the DefaultMinDelay is used.
//
// When jitter is applied, delays may fall below the configured minimum by up
// to the jitter amount.
func WithMinDelay(d time.Duration) Option {
	return func(c *config) {
		c.minDelay = max(0, d)
	}
}

// WithMaxDelay sets the maximum time between consecutive retries. It is
// capped at zero if a negative duration is provided. If less than or equal
// to the minimum delay, the delays remain constant at the maximum delay.
// If not customized, the DefaultMaxDelay is used.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = max(0, d)
	}
}

// WithGrowthFactor determines the multiplier between consecutive delays. Any
// factor less than one is treated as one, which keeps the delays constant at
// the minimum. If not customized, the DefaultGrowthFactor is used.
func WithGrowthFactor(f float64) Option {
	return func(c *config) {
		c.growth = max(1, f)
	}
}

// WithJitterAmount specifies the amount of random jitter applied to the
// delays, expressed as a fraction between 0 (no jitter) and 1 (full jitter).
// The given number is capped to that range. If not customized, the
// DefaultJitterAmount is used.
func WithJitterAmount(p float64) Option {
	return func(c *config) {
		c.jitter = min(1, max(0, p))
	}
}

// WithRand sets the source of randomness for jittering. If not specified or
// nil, a pre-seeded generator is used.
func WithRand(r Rand) Option {
	return func(c *config) {
		if r != nil {
			c.rand = r
		}
	}
}

// New creates an exponential backoff Strategy with jitter. The defaults can
// be overridden by passing in one or more Option functions.
func New(opts ...Option) Strategy {
	c := config{
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		growth:   DefaultGrowthFactor,
		jitter:   DefaultJitterAmount,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &exponential{
		minDelay: c.minDelay,
		maxDelay: c.maxDelay,
		growth:   c.growth,
		jitter:   c.jitter,
		rand:     c.rand,
	}
}
