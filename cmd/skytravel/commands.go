package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sabscarpenter/skytravel/internal/database"
	"github.com/sabscarpenter/skytravel/internal/search"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		if err := database.Migrate(cmd.Context(), e.pool); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search ORIGIN DESTINATION",
	Short: "List ranked itineraries between two airports",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		departure, _ := cmd.Flags().GetString("departure")
		asJSON, _ := cmd.Flags().GetBool("json")

		from := time.Now().UTC()
		if departure != "" {
			t, err := time.Parse("2006-01-02", departure)
			if err != nil {
				return fmt.Errorf("invalid departure %q: %w", departure, err)
			}
			from = t
		}

		e, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		its, err := e.engine().Search(cmd.Context(), search.Query{
			Origin:             strings.ToUpper(args[0]),
			Destination:        strings.ToUpper(args[1]),
			DepartureNotBefore: from,
		}, search.DefaultOptions())
		if err != nil {
			return err
		}

		views := search.ToViews(its)
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(views)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FLIGHTS\tDEPARTS\tARRIVES\tDURATION\tSTOPS")
		for _, it := range its {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
				it.Signature(),
				it.DepartsAt().Format("2006-01-02 15:04"),
				it.ArrivesAt().Format("2006-01-02 15:04"),
				search.FormatDuration(it.TotalDuration()),
				it.Stops())
		}
		return tw.Flush()
	},
}

var seatmapCmd = &cobra.Command{
	Use:   "seatmap FLIGHT",
	Short: "Print a flight's seat map with prices and availability",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		legs, _ := cmd.Flags().GetInt("legs")
		traveler, _ := cmd.Flags().GetString("traveler")

		e, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		seatMap, err := e.holds().SeatMap(cmd.Context(), strings.ToUpper(args[0]), legs, traveler)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "%s layout %s\n", seatMap.FlightNumber, seatMap.Layout)
		fmt.Fprintln(tw, "SEAT\tCLASS\tPOSITION\tPRICE\tSTATUS")
		for _, s := range seatMap.Seats {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.Code, s.Class, s.Position, s.Price, s.Status)
		}
		return tw.Flush()
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired seat holds on every flight",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.holds().PurgeExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "released %d expired holds\n", n)
		return nil
	},
}

func init() {
	searchCmd.Flags().String("departure", "", "earliest departure date, YYYY-MM-DD (default now)")
	searchCmd.Flags().Bool("json", false, "print itineraries as JSON")

	seatmapCmd.Flags().Int("legs", 1, "legs in the chosen itinerary, drives the fare")
	seatmapCmd.Flags().String("traveler", "", "show the map as this traveler sees it")
}
