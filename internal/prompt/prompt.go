// package prompt wraps interactive terminal prompts behind an interface that
// commands use and tests can script.
package prompt

import (
	"github.com/AlecAivazis/survey/v2"
)

// Prompter asks the user for input. Implementations return an error when the
// user cancels so callers can abort cleanly.
type Prompter interface {
	Input(message, def string) (string, error)
	Password(message string) (string, error)
	Confirm(message string, def bool) (bool, error)
	Select(message string, options []string) (int, error)
}

// Survey is the terminal-backed [Prompter] used by the CLI.
type Survey struct {
	// PageSize bounds how many options a select shows at once.
	PageSize int
}

var _ Prompter = (*Survey)(nil)

func New() *Survey {
	return &Survey{PageSize: 15}
}

func (s *Survey) Input(message, def string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &answer)
	return answer, err
}

func (s *Survey) Password(message string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Password{Message: message}, &answer)
	return answer, err
}

func (s *Survey) Confirm(message string, def bool) (bool, error) {
	var answer bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &answer)
	return answer, err
}

func (s *Survey) Select(message string, options []string) (int, error) {
	var selected int
	err := survey.AskOne(&survey.Select{
		Message:  message,
		Options:  options,
		PageSize: s.PageSize,
	}, &selected)
	return selected, err
}
