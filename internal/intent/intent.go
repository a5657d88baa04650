// Package intent classifies user utterances into a closed command set
package intent

import "strings"

// Intent is a closed category of user utterance meaning.
type Intent int

const (
	Unknown Intent = iota
	Next
	Repeat
	TimerQuery
	RecipeQuestion
	IngredientQuestion
	StepQuestion
)

func (i Intent) String() string {
	switch i {
	case Next:
		return "next"
	case Repeat:
		return "repeat"
	case TimerQuery:
		return "timer_query"
	case RecipeQuestion:
		return "recipe_question"
	case IngredientQuestion:
		return "ingredient_question"
	case StepQuestion:
		return "step_question"
	default:
		return "unknown"
	}
}

// category pairs an intent with its keyword table. Tables are matched in
// declaration order, first match wins; each keyword is a plain substring
// test against the lower-cased input. No tokenization, no stemming.
type category struct {
	intent   Intent
	keywords []string
}

var categories = []category{
	{Next, []string{"next", "continue", "keep going", "move on"}},
	{Repeat, []string{"repeat", "again", "say that"}},
	{TimerQuery, []string{"timer", "how long", "how much time", "time left"}},
	{IngredientQuestion, []string{"ingredient", "what do i need", "grocer"}},
	{RecipeQuestion, []string{"recipe", "what are we making", "how many steps"}},
	{StepQuestion, []string{"what step", "which step", "current step", "where are we"}},
}

// Classify maps accumulated utterance text to an intent. Pure and
// deterministic: same input always yields the same output.
func Classify(text string) Intent {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Unknown
	}

	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.intent
			}
		}
	}
	return Unknown
}
