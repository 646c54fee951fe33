package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command: fetch and print one city by ID.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one visited city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid city id %q: %w", args[0], err)
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			city, err := app.Store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printCity(cmd.OutOrStdout(), rootOpts, city)
		},
	}
}
