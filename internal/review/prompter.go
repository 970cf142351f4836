package review

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// Choice is the answer to "Apply?" for one proposal.
type Choice string

const (
	ChoiceYes      Choice = "y"
	ChoiceNo       Choice = "n"
	ChoiceShowDiff Choice = "s"
	ChoiceAll      Choice = "a"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("review aborted")

// Prompter asks the user questions during review.
type Prompter interface {
	Choose(title string) (Choice, error)
	Confirm(title string, def bool) (bool, error)
}

// HuhPrompter prompts on the terminal with huh forms.
type HuhPrompter struct {
	// Accessible switches huh to plain line prompts, e.g. for screen readers.
	Accessible bool
}

// Choose shows the y/n/s/a selection. "y" is preselected.
func (h HuhPrompter) Choose(title string) (Choice, error) {
	choice := ChoiceYes
	sel := huh.NewSelect[Choice]().
		Title(title).
		Options(
			huh.NewOption("(y) yes, apply", ChoiceYes),
			huh.NewOption("(n) no, skip", ChoiceNo),
			huh.NewOption("(s) show diff", ChoiceShowDiff),
			huh.NewOption("(a) apply this and all remaining", ChoiceAll),
		).
		Value(&choice)

	if err := h.run(huh.NewGroup(sel)); err != nil {
		return "", err
	}
	return choice, nil
}

// Confirm asks a yes/no question.
func (h HuhPrompter) Confirm(title string, def bool) (bool, error) {
	ok := def
	c := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)

	if err := h.run(huh.NewGroup(c)); err != nil {
		return false, err
	}
	return ok, nil
}

func (h HuhPrompter) run(g *huh.Group) error {
	err := huh.NewForm(g).WithAccessible(h.Accessible).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	if err != nil {
		return fmt.Errorf("prompting: %w", err)
	}
	return nil
}
