package testutil

import "testing"

// Scenario steps run as nested subtests named after their keyword, so a
// failure reads as "Given ... / When ... / Then ...".

type keyword string

const (
	given keyword = "Given"
	when  keyword = "When"
	then  keyword = "Then"
	and   keyword = "And"
)

func step(t *testing.T, k keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(string(k)+" "+desc, fn)
}

func Given(t *testing.T, desc string, fn func(t *testing.T)) { t.Helper(); step(t, given, desc, fn) }
func When(t *testing.T, desc string, fn func(t *testing.T))  { t.Helper(); step(t, when, desc, fn) }
func Then(t *testing.T, desc string, fn func(t *testing.T))  { t.Helper(); step(t, then, desc, fn) }
func And(t *testing.T, desc string, fn func(t *testing.T))   { t.Helper(); step(t, and, desc, fn) }
