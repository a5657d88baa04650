// Package conversation tracks step-by-step progress through a recipe
package conversation

import (
	"fmt"
	"log/slog"

	"github.com/chefbud/voice-platform/internal/intent"
	"github.com/chefbud/voice-platform/internal/notify"
	"github.com/chefbud/voice-platform/internal/recipe"
)

// Machine holds the current step index and routes intents to response text.
// Its fields are mutated only from the session's event pump, so no locking
// is needed as long as that single-mutator invariant holds.
type Machine struct {
	recipe  recipe.Recipe
	sink    notify.Sink
	log     *slog.Logger
	idx     int
	started bool
}

// New creates a state machine for one session.
func New(r recipe.Recipe, sink notify.Sink, log *slog.Logger) *Machine {
	return &Machine{recipe: r, sink: sink, log: log}
}

// Reset returns to the initial state and greets the client. It does not
// auto-advance to step one; the first Next does that.
func (m *Machine) Reset() {
	m.idx = 0
	m.started = false
	m.sink.Say(fmt.Sprintf(
		"Hi! I'm your cooking assistant for %s. Say next when you're ready to start.",
		m.recipe.Title))
}

// Handle routes one classified intent. No transition fails; anything
// unrecognized degrades to the Unknown response.
func (m *Machine) Handle(in intent.Intent) {
	switch in {
	case intent.Next:
		m.next()
	case intent.Repeat:
		m.repeat()
	case intent.TimerQuery:
		// Deliberately decoupled from the scheduler; fixed response.
		m.sink.Say("Check the kitchen timer, it will announce itself when it finishes.")
	case intent.RecipeQuestion:
		m.sink.Say(fmt.Sprintf("We're making %s. It has %d steps.",
			m.recipe.Title, len(m.recipe.Steps)))
	case intent.IngredientQuestion:
		m.sink.Say("Everything you need is listed at the top of your recipe card.")
	case intent.StepQuestion:
		m.stepQuestion()
	default:
		m.log.Warn("unknown intent")
		m.sink.Say("Sorry, I didn't catch that. You can say next, repeat, or ask about the recipe.")
	}
}

func (m *Machine) next() {
	if len(m.recipe.Steps) == 0 {
		m.sink.Say("This recipe has no steps.")
		return
	}
	if !m.started {
		m.started = true
		m.idx = 0
		m.sink.Say("Let's start with step one: " + m.recipe.Steps[0])
		return
	}
	// Clamp at the last step; repeated Next at the end repeats it verbatim.
	if m.idx < len(m.recipe.Steps)-1 {
		m.idx++
	}
	m.sink.Say("Next step: " + m.recipe.Steps[m.idx])
}

func (m *Machine) repeat() {
	if !m.started {
		m.sink.Say("We haven't started yet. Say next to begin.")
		return
	}
	m.sink.Say(m.recipe.Steps[m.idx])
}

func (m *Machine) stepQuestion() {
	if !m.started || len(m.recipe.Steps) == 0 {
		m.sink.Say("We haven't started yet. Say next to begin.")
		return
	}
	m.sink.Say(fmt.Sprintf("Step %d of %d: %s",
		m.idx+1, len(m.recipe.Steps), m.recipe.Steps[m.idx]))
}
