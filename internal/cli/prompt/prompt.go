// Package prompt wraps promptui for the node's interactive `init` command.
package prompt

import (
	"errors"
	"strconv"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return ErrAborted
	}
	return err
}

// Input prompts for text input with a default value.
func Input(label, defaultValue string) (string, error) {
	p := promptui.Prompt{Label: label, Default: defaultValue}
	result, err := p.Run()
	return result, wrapError(err)
}

// InputRequired prompts for non-empty text input.
func InputRequired(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return errors.New("required")
			}
			return nil
		},
	}
	result, err := p.Run()
	return result, wrapError(err)
}

// InputPort prompts for a network port (1-65535).
func InputPort(label string, defaultValue int) (int, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: strconv.Itoa(defaultValue),
		Validate: func(input string) error {
			port, err := strconv.Atoi(input)
			if err != nil {
				return errors.New("must be a valid integer")
			}
			if port < 1 || port > 65535 {
				return errors.New("must be a valid port (1-65535)")
			}
			return nil
		},
	}
	result, err := p.Run()
	if err != nil {
		return 0, wrapError(err)
	}
	value, _ := strconv.Atoi(result)
	return value, nil
}

// Select prompts the user to choose one of items.
func Select(label string, items []string) (string, error) {
	p := promptui.Select{Label: label, Items: items}
	_, result, err := p.Run()
	return result, wrapError(err)
}
