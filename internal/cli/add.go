package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfenske/worldwise/internal/domain"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	Lat   float64
	Lng   float64
	Name  string
	Date  string
	Notes string
}

// NewAddCommand creates the add command: reverse-geocode a coordinate pair
// into a suggested city and submit it. The flags mirror the form fields —
// the suggestion from the geocoder can be overridden before submit.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{}

	cmd := &cobra.Command{
		Use:   "add --lat <lat> --lng <lng>",
		Short: "Record a newly visited city at the given coordinates",
		Example: "  worldwise add --lat 38.7223 --lng -9.1393\n" +
			"  worldwise add --lat 52.52 --lng 13.405 --notes \"Loved the museums\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			// The coordinate pair plays the role of the shared map position;
			// SetPosition resolves it to a suggested name, country, and flag.
			app.Form.SetPosition(cmd.Context(), domain.Position{Lat: opts.Lat, Lng: opts.Lng})

			if opts.Name != "" {
				app.Form.SetCityName(opts.Name)
			}
			if opts.Notes != "" {
				app.Form.SetNotes(opts.Notes)
			}
			if opts.Date != "" {
				date, err := time.Parse("2006-01-02", opts.Date)
				if err != nil {
					return fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", opts.Date, err)
				}
				app.Form.SetDate(date)
			}

			city, err := app.Form.Submit(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", city.Emoji, city.CityName)
			return printCity(cmd.OutOrStdout(), rootOpts, city)
		},
	}

	cmd.Flags().Float64Var(&opts.Lat, "lat", 0, "latitude of the visited place (required)")
	cmd.Flags().Float64Var(&opts.Lng, "lng", 0, "longitude of the visited place (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "override the suggested city name")
	cmd.Flags().StringVar(&opts.Date, "date", "", "visit date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes about the visit")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}
