package cli

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
)

func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// PromptForAnalysts asks which analysts to run and returns their ids.
func PromptForAnalysts() ([]string, error) {
	var options []string
	byName := make(map[string]string)
	for _, a := range agents.Analysts() {
		name := a.Profile().Name
		options = append(options, name)
		byName[name] = a.ID()
	}

	var picked []string
	prompt := &survey.MultiSelect{
		Message: "Select your AI analysts:",
		Options: options,
		Help:    "Use space to select, enter to confirm.",
		Default: options,
	}
	err := survey.AskOne(prompt, &picked, survey.WithValidator(func(val interface{}) error {
		selected, ok := val.([]survey.OptionAnswer)
		if !ok {
			return fmt.Errorf("invalid selection type")
		}
		if len(selected) == 0 {
			return fmt.Errorf("you must select at least one analyst")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(picked))
	for _, name := range picked {
		ids = append(ids, byName[name])
	}
	return ids, nil
}
