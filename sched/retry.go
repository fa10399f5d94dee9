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

import "github.com/deep-rent/loom/backoff"

// Retry returns a Target that runs fn until it succeeds or the attempt limit
// is reached, yielding a backoff delay between attempts. Other tasks keep
// running while the target waits out a delay.
//
// A limit of zero or less retries without bound. The strategy is reset via
// Done once the target stops retrying, so it can be shared across targets
// that run sequentially. The final error, if any, is not reported through
// the task; observe the outcome through fn itself.
func Retry(strategy backoff.Strategy, limit int, fn func() error) Target {
	return TargetFn(func() Step {
		return func(yield func(Directive) bool) {
			defer strategy.Done()
			for attempt := 1; ; attempt++ {
				if fn() == nil {
					return
				}
				if limit > 0 && attempt >= limit {
					return
				}
				if !yield(Sleep(strategy.Next())) {
					return
				}
			}
		}
	})
}
