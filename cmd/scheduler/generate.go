package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"metro-scheduler/internal/schedule"
)

type generateOptions struct {
	first     string
	frequency int
	duration  int
	cutoff    string
	asJSON    bool
	offset    int
	limit     int
}

func newGenerateCmd() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the trips for one operating day",
		Example: `  scheduler generate --first 05:30 --frequency 10 --duration 25
  scheduler generate --first 06:00 --frequency 15 --duration 40 --cutoff 23:00 --json
  scheduler generate --duration 25 --offset 20 --limit 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.first, "first", "05:30", "first departure (HH:MM)")
	f.IntVar(&opts.frequency, "frequency", 10, "minutes between departures")
	f.IntVar(&opts.duration, "duration", 0, "minutes per trip")
	f.StringVar(&opts.cutoff, "cutoff", schedule.DefaultServiceCutoff.String(), "last departure allowed (HH:MM)")
	f.BoolVar(&opts.asJSON, "json", false, "print trips as JSON")
	f.IntVar(&opts.offset, "offset", 0, "index of the first trip to print")
	f.IntVar(&opts.limit, "limit", 0, "trips to print; 0 prints all, or a default page when --offset is set")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func runGenerate(out io.Writer, opts generateOptions) error {
	cutoff, err := schedule.ParseClock(opts.cutoff)
	if err != nil {
		return fmt.Errorf("cutoff: %w", err)
	}
	trips, err := schedule.Policy{ServiceCutoff: cutoff}.Generate(opts.first, opts.frequency, opts.duration)
	if err != nil {
		return err
	}

	shown := trips
	if opts.offset != 0 || opts.limit > 0 {
		shown = schedule.Page(trips, opts.offset, opts.limit)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(shown)
	}

	if first, last := schedule.Overview(trips); first != nil {
		fmt.Fprintf(out, "First two trips: %s, %s\n", formatTrip(first[0]), formatTrip(first[1]))
		fmt.Fprintf(out, "Last two trips: %s, %s\n", formatTrip(last[0]), formatTrip(last[1]))
	}
	fmt.Fprintf(out, "Trips: %d\n", len(trips))
	if len(shown) > 0 && len(shown) != len(trips) {
		fmt.Fprintf(out, "Showing %d-%d\n", max(opts.offset, 0)+1, max(opts.offset, 0)+len(shown))
	}
	for _, t := range shown {
		fmt.Fprintln(out, formatTrip(t))
	}
	return nil
}

func formatTrip(t schedule.Trip) string { return t.Start + " - " + t.End }
