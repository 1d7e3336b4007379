package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("owner@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct-horse"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", MaxPasswordLength+1)))
	assert.NoError(t, ValidatePassword(strings.Repeat("x", MaxPasswordLength)))
}

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(fmt.Errorf("wrapped: %w", ErrAborted)))
	assert.False(t, IsAborted(ErrPasswordMismatch))

	assert.ErrorIs(t, wrapError(promptui.ErrInterrupt), ErrAborted)
	assert.NoError(t, wrapError(nil))
}

func TestConfirmForce(t *testing.T) {
	ok, err := Confirm("Delete everything", true)
	assert.NoError(t, err)
	assert.True(t, ok)
}
