// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/manifoldco/promptui"
)

// Password length bounds, matching sign-up validation. bcrypt ignores bytes
// past 72.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

var (
	// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
	ErrAborted = errors.New("aborted")

	// ErrPasswordMismatch indicates the confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

var validate = validator.New()

// IsAborted reports whether err comes from an aborted prompt.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err != nil && IsAborted(err) {
		return ErrAborted
	}
	return err
}

// ValidateEmail checks input the way the sign-up endpoint does.
func ValidateEmail(input string) error {
	if err := validate.Var(input, "required,email"); err != nil {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

// ValidatePassword enforces the password length bounds.
func ValidatePassword(input string) error {
	if len(input) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(input) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// Email prompts for an email address.
func Email(label string) (string, error) {
	p := promptui.Prompt{Label: label, Validate: ValidateEmail}
	result, err := p.Run()
	return strings.TrimSpace(result), wrapError(err)
}

// NewPassword prompts for a password and its confirmation.
func NewPassword() (string, error) {
	p := promptui.Prompt{Label: "Password", Mask: '*', Validate: ValidatePassword}
	password, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}

	c := promptui.Prompt{Label: "Confirm password", Mask: '*'}
	confirm, err := c.Run()
	if err != nil {
		return "", wrapError(err)
	}

	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

// Confirm asks a yes/no question. force skips the prompt.
func Confirm(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}

	p := promptui.Prompt{Label: label, IsConfirm: true}
	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, wrapError(err)
	}
	answer := strings.ToLower(result)
	return answer == "y" || answer == "yes", nil
}
