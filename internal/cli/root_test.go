package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "basecamp", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	require.NotNil(t, cmd.PersistentFlags().Lookup("json"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("jq"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"integration", "login", "logout", "whoami", "todo"} {
		assert.Contains(t, names, expected)
	}
}

func TestRootCmdRejectsUnknownCommand(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"no-such-command"})

	_, err := cmd.ExecuteC()
	require.Error(t, err)
}
