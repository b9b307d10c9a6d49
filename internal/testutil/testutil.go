// Package testutil holds helpers shared by package tests. The Postgres and
// Redis helpers are only built with the integration tag.
package testutil

import (
	"testing"
	"time"
)

const pollInterval = 5 * time.Millisecond

// Eventually polls cond until it holds, failing the test once timeout passes.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %s: %s", timeout, msg)
		}
		time.Sleep(pollInterval)
	}
}
