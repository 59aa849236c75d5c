package testutil

import "testing"

// Given, When and Then nest subtests so a scenario reads as one sentence in
// `go test -v` output. Steps share the enclosing test's state and run in
// order, so a later When observes what an earlier one changed.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
