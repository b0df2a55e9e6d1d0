package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spencer-p/tideserver/pkg/coops"
	"github.com/spencer-p/tideserver/pkg/data"
	"github.com/spencer-p/tideserver/pkg/noaa"
	"github.com/spencer-p/tideserver/pkg/timetricks"
)

const contentTypeJSON = "application/json"

func newStationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stations",
		Short: "Refresh the active station list",
		Long:  `Fetch the active station list and store it as the server's /stations document.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stations, err := coops.FetchAs[coops.Stations](cmd.Context(), a.fetcher, coops.ActiveStations, coops.Query{})
			if err != nil {
				return fmt.Errorf("failed to fetch stations: %w", err)
			}
			body, err := json.Marshal(noaa.NewStationList(stations))
			if err != nil {
				return err
			}
			expires := a.now().Add(timetricks.Month)
			return a.write(cmd, data.NewDocument("stations", contentTypeJSON, body, &expires))
		},
	}
}

func newExtremaCmd(a *app) *cobra.Command {
	var (
		start string
		days  int
	)
	cmd := &cobra.Command{
		Use:   "extrema STATION",
		Short: "Prefetch predicted high and low tides",
		Long: `Fetch predicted high and low tides for a station over a range of days and
store them as the server's extrema documents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			station := args[0]
			now := a.now().UTC()
			first := timetricks.StartOfDay(now)
			if start != "" {
				var err error
				if first, err = timetricks.ParseDay(start); err != nil {
					return err
				}
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}

			for i := 0; i < days; i++ {
				day := first.AddDate(0, 0, i)
				// The service swaps unit and time zone: this is UTC in meters.
				values, err := coops.FetchAs[coops.HighLowValues](cmd.Context(), a.fetcher, coops.HighLowTidePredictions, coops.Query{
					StationID: station,
					BeginDate: day,
					EndDate:   day,
					Datum:     "MLLW",
					Unit:      coops.Feet,
					TimeZone:  coops.LocalTime,
				})
				if err != nil {
					return fmt.Errorf("failed to fetch extrema for %s: %w", timetricks.FormatDay(day), err)
				}
				extrema, err := noaa.NewExtrema(station, day, values)
				if err != nil {
					return err
				}
				body, err := json.Marshal(extrema)
				if err != nil {
					return err
				}

				var expires *time.Time
				if maxAge, ok := timetricks.PredictionMaxAge(day, now); ok {
					t := now.Add(maxAge)
					expires = &t
				}
				path := fmt.Sprintf("station/%s/extrema/%s/predicted", station, timetricks.FormatDay(day))
				if err := a.write(cmd, data.NewDocument(path, contentTypeJSON, body, expires)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day as YYYYMMDD (default today, UTC)")
	cmd.Flags().IntVar(&days, "days", 7, "number of days to fetch")
	return cmd
}
