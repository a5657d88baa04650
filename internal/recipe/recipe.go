// Package recipe defines the recipe data model and free-form text parsing
package recipe

import "time"

// Timer is a named countdown extracted from a recipe step. Labels are used
// as lookup keys; uniqueness is assumed, not enforced.
type Timer struct {
	Label    string
	Duration time.Duration
}

// Recipe is an ordered list of step strings plus named timers. Immutable
// once constructed for a session.
type Recipe struct {
	Title  string
	Steps  []string
	Timers []Timer
}
