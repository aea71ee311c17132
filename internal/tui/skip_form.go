package tui

import (
	"github.com/charmbracelet/huh"
)

// SkipChoice is one task the user may skip before the run starts.
type SkipChoice struct {
	TaskID string
	Label  string
}

// Selection holds the answers of the pre-run form.
type Selection struct {
	Skips         []string
	FillQuestions bool
	Confirmed     bool
}

// SkipMap converts the selected skips to the form Kickoff expects.
func (s Selection) SkipMap() map[string]bool {
	skips := make(map[string]bool, len(s.Skips))
	for _, id := range s.Skips {
		skips[id] = true
	}
	return skips
}

// NewSkipForm builds the pre-run form. Values already in sel are preselected
// and the answers are written back into sel.
func NewSkipForm(choices []SkipChoice, sel *Selection) *huh.Form {
	preselected := sel.SkipMap()
	options := make([]huh.Option[string], 0, len(choices))
	for _, c := range choices {
		options = append(options, huh.NewOption(c.Label, c.TaskID).Selected(preselected[c.TaskID]))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Key("skips").
				Title("Skip steps").
				Description("Skipped steps reuse their previous output, if any").
				Options(options...).
				Value(&sel.Skips),

			huh.NewConfirm().
				Key("fillQuestions").
				Title("Answer template questions after assembly?").
				Value(&sel.FillQuestions),
		).Title("ADRG Run"),

		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title("Start the workflow?").
				Affirmative("Start").
				Negative("Cancel").
				Value(&sel.Confirmed),
		),
	)
}
