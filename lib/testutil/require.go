// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// Fataler is the part of testing.TB the helpers below need.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value sent on ch. The test fails when
// ch is closed first or nothing arrives within timeout; the message
// describes what the test was waiting for.
//
//	outcome := testutil.RequireReceive(t, done, 5*time.Second, "waiting for Fetch")
func RequireReceive[T any](t Fataler, ch <-chan T, timeout time.Duration, message string, args ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while %s", describe(message, args))
		}
		return value
	case <-timer.C:
		t.Fatalf("no value after %v while %s", timeout, describe(message, args))
	}
	var zero T
	return zero
}

func describe(message string, args []any) string {
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}
