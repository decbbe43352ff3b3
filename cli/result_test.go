package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCommandError(t *testing.T) {
	t.Run("implements error interface", func(t *testing.T) {
		err := NewCommandError(1)
		assert.Error(t, err)
	})

	t.Run("returns exit code", func(t *testing.T) {
		err := NewCommandError(42)
		assert.Equal(t, err.ExitCode(), 42)
	})
}

func TestResultOf(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		result := ResultOf(nil)
		assert.Equal(t, 0, result.ExitCode)
		assert.NoError(t, result.Err)
	})

	t.Run("CommandError", func(t *testing.T) {
		result := ResultOf(fmt.Errorf("wrapped: %w", NewCommandError(3)))
		assert.Equal(t, 3, result.ExitCode)
		assert.NoError(t, result.Err)
	})

	t.Run("PlainError", func(t *testing.T) {
		boom := errors.New("boom")
		result := ResultOf(boom)
		assert.Equal(t, 1, result.ExitCode)
		assert.IsError(t, result.Err, boom)
	})
}
