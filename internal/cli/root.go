package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jfenske/worldwise/internal/domain"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	JSON bool
}

// NewRootCommand builds the worldwise command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "worldwise",
		Short:         "Track the cities you have visited",
		Long:          "WorldWise keeps a synchronized list of the cities you have visited:\nlist them, add new ones from map coordinates, and remove old entries.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "emit JSON instead of text")

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCountriesCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand())

	return cmd
}

// printCity renders one city as a text line or a JSON object.
func printCity(w io.Writer, opts *RootOptions, c domain.City) error {
	if opts.JSON {
		return json.NewEncoder(w).Encode(c)
	}
	line := fmt.Sprintf("%s  %s (%s) — %s", c.Emoji, c.CityName, c.Country, c.Date.Format("02/01/2006"))
	if c.Notes != "" {
		line += "\n   " + c.Notes
	}
	fmt.Fprintf(w, "%s\n   id: %s  position: %.4f,%.4f\n", line, c.ID, c.Position.Lat, c.Position.Lng)
	return nil
}

// printCities renders the full list.
func printCities(w io.Writer, opts *RootOptions, cities []domain.City) error {
	if opts.JSON {
		return json.NewEncoder(w).Encode(cities)
	}
	if len(cities) == 0 {
		fmt.Fprintln(w, "No cities yet. Add your first with: worldwise add --lat <lat> --lng <lng>")
		return nil
	}
	for _, c := range cities {
		fmt.Fprintf(w, "%s  %s (%s) — %s  [%s]\n", c.Emoji, c.CityName, c.Country, c.Date.Format("02/01/2006"), c.ID)
	}
	return nil
}

// Country is one visited country, derived from the city list for display.
type Country struct {
	Country string `json:"country"`
	Emoji   string `json:"emoji"`
}

// countriesFrom reduces the city list to the distinct countries visited,
// in first-visit order.
func countriesFrom(cities []domain.City) []Country {
	seen := make(map[string]bool, len(cities))
	var out []Country
	for _, c := range cities {
		if !seen[c.Country] {
			seen[c.Country] = true
			out = append(out, Country{Country: c.Country, Emoji: c.Emoji})
		}
	}
	return out
}

// printCountries renders the derived country list.
func printCountries(w io.Writer, opts *RootOptions, countries []Country) error {
	if opts.JSON {
		return json.NewEncoder(w).Encode(countries)
	}
	if len(countries) == 0 {
		fmt.Fprintln(w, "No countries yet. Add your first city with: worldwise add")
		return nil
	}
	for _, c := range countries {
		fmt.Fprintf(w, "%s  %s\n", c.Emoji, c.Country)
	}
	return nil
}
