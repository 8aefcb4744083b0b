package commands

import (
	"github.com/spf13/cobra"
)

// NewTodoCmd creates the `todo` command group.
func NewTodoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Work with Basecamp to-dos",
	}
	cmd.AddCommand(newTodoAddCmd())
	cmd.AddCommand(newTodoCompleteCmd())
	cmd.AddCommand(newTodoReopenCmd())
	cmd.AddCommand(newTodoEditCmd())
	cmd.AddCommand(newTodoSearchCmd())
	return cmd
}
