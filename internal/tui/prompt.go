// Package tui wraps the interactive prompts used by login and the todo
// workflows. Every prompt returns invalid-input when the user aborts, so
// Ctrl-C during a picker exits with the input error code instead of a stack
// trace.
package tui

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/basecamp/basecamp-cli/internal/output"
)

// IsInteractive reports whether stdin and stderr are attached to a terminal.
// Prompts render on stderr, so both ends must be a TTY.
func IsInteractive() bool {
	return isCharDevice(os.Stdin) && isCharDevice(os.Stderr)
}

func isCharDevice(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Select prompts for one of options and returns its index.
func Select(title string, options []string) (int, error) {
	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
	}

	var selected int
	err := huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&selected).
		Run()
	if err != nil {
		return 0, promptError(title, err)
	}
	return selected, nil
}

// MultiSelect prompts for any number of options and returns their indexes.
func MultiSelect(title string, options []string) ([]int, error) {
	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
	}

	var selected []int
	err := huh.NewMultiSelect[int]().
		Title(title).
		Options(opts...).
		Value(&selected).
		Run()
	if err != nil {
		return nil, promptError(title, err)
	}
	return selected, nil
}

// Input prompts for a line of text. The initial value is editable in place.
func Input(title, initial string) (string, error) {
	value := initial
	err := huh.NewInput().
		Title(title).
		Value(&value).
		Run()
	if err != nil {
		return "", promptError(title, err)
	}
	return strings.TrimSpace(value), nil
}

// RequiredInput is Input plus a non-blank validator.
func RequiredInput(title, initial, requiredMsg string) (string, error) {
	value := initial
	err := huh.NewInput().
		Title(title).
		Value(&value).
		Validate(func(v string) error {
			if strings.TrimSpace(v) == "" {
				return errors.New(requiredMsg)
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", promptError(title, err)
	}
	return strings.TrimSpace(value), nil
}

// SecretInput prompts without echoing, for client secrets.
func SecretInput(title string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	if err != nil {
		return "", promptError(title, err)
	}
	return strings.TrimSpace(value), nil
}

// Confirm prompts for a yes/no answer.
func Confirm(title string, defaultValue bool) (bool, error) {
	value := defaultValue
	err := huh.NewConfirm().
		Title(title).
		Value(&value).
		Run()
	if err != nil {
		return false, promptError(title, err)
	}
	return value, nil
}

func promptError(title string, err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return output.ErrInvalidInput("Cancelled.")
	}
	return output.ErrInvalidInput("Prompt \"" + title + "\" failed: " + err.Error())
}
