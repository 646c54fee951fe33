package cli

import (
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command: fetch and print all cities.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all visited cities",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			cities, err := app.Store.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			return printCities(cmd.OutOrStdout(), rootOpts, cities)
		},
	}
}

// NewCountriesCommand creates the countries command: the distinct countries
// visited, derived from the city list.
func NewCountriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the countries you have visited",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			cities, err := app.Store.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			return printCountries(cmd.OutOrStdout(), rootOpts, countriesFrom(cities))
		},
	}
}
