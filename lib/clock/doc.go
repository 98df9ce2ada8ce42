// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction.
//
// Code that waits (retry backoff in lib/source is the main user) takes
// a Clock instead of calling time.After directly. Production code
// passes Real(); tests pass Fake() and move time forward with Advance,
// so backoff schedules are exercised without real sleeps:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go fetchWithRetries(c)
//	c.WaitForWaiters(1)
//	c.Advance(time.Second)
package clock
