package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/tripboard/internal/calendar"
	"github.com/alecgard/tripboard/internal/filter"
)

var (
	listView    string
	listFilters []string
	listGroup   string

	searchQuery  filter.Query
	searchFrom   string
	searchTo     string
	calendarDay  string
	calendarMnth string
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "List trips under a view and geography filters",
	Example: `  tripboard trips --view recruitments --filter region:Europe
  tripboard trips --filter country:France --filter city:Italy/Rome --group month`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := filter.ParseView(listView)
		if err != nil {
			return err
		}
		var set filter.Set
		for _, raw := range listFilters {
			sel, err := filter.ParseSelector(raw)
			if err != nil {
				return err
			}
			set = set.Add(sel)
		}
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.loaded(ctx); err != nil {
				return err
			}
			if err := a.board.OpenView(ctx, view, a.counter); err != nil {
				return err
			}
			trips := a.board.Trips(ctx, view, set)
			switch listGroup {
			case "":
				return printTrips(trips)
			case "month":
				groups := calendar.GroupByMonth(trips)
				if jsonOutput {
					return printJSON(groups)
				}
				for _, g := range groups {
					fmt.Println(g.Month)
					for _, c := range g.Countries {
						fmt.Printf("  %s\n", c.Country)
						for _, t := range c.Trips {
							fmt.Printf("    %s  %s  %s\n", t.ID, dateRange(t), t.City)
						}
					}
				}
				return nil
			case "country":
				groups := calendar.GroupByCountry(trips)
				if jsonOutput {
					return printJSON(groups)
				}
				for _, c := range groups {
					fmt.Println(c.Country)
					for _, t := range c.Trips {
						fmt.Printf("  %s  %s  %s\n", t.ID, dateRange(t), t.City)
					}
				}
				return nil
			}
			return fmt.Errorf("unknown --group %q (month or country)", listGroup)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <trip-id>",
	Short: "Show one trip with its candidate dates and votes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.loaded(ctx); err != nil {
				return err
			}
			t, err := a.board.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printTrip(t)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search visible trips by user, place, dates and text",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := searchQuery
		var err error
		if q.From, err = parseOptionalDay(searchFrom); err != nil {
			return err
		}
		if q.To, err = parseOptionalDay(searchTo); err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.loaded(ctx); err != nil {
				return err
			}
			return printTrips(a.board.Search(ctx, q))
		})
	},
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the month grid, or the trips on one day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := filter.ParseView(listView)
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.loaded(ctx); err != nil {
				return err
			}
			trips := a.board.Trips(ctx, view, nil)

			if calendarDay != "" {
				day, err := time.Parse(dayLayout, calendarDay)
				if err != nil {
					return fmt.Errorf("--day must be YYYY-MM-DD: %w", err)
				}
				return printTrips(calendar.TripsOn(trips, day))
			}

			anchor := time.Now().UTC()
			if calendarMnth != "" {
				if anchor, err = time.Parse("2006-01", calendarMnth); err != nil {
					return fmt.Errorf("--month must be YYYY-MM: %w", err)
				}
			}
			grid := calendar.MonthGrid(trips, anchor)
			if jsonOutput {
				return printJSON(grid)
			}
			fmt.Printf("%s %d\n", grid.Month, grid.Year)
			fmt.Println(" Su  Mo  Tu  We  Th  Fr  Sa")
			for _, week := range grid.Weeks {
				for _, c := range week {
					mark := " "
					if len(c.Trips) > 0 {
						mark = "*"
					}
					if !c.InMonth {
						fmt.Print("    ")
						continue
					}
					fmt.Printf("%3d%s", c.Date.Day(), mark)
				}
				fmt.Println()
			}
			return nil
		})
	},
}

const dayLayout = "2006-01-02"

func parseOptionalDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not YYYY-MM-DD", raw)
	}
	return d, nil
}

func init() {
	tripsCmd.Flags().StringVar(&listView, "view", "everyone", "everyone | mine | recruitments | meetups")
	tripsCmd.Flags().StringArrayVar(&listFilters, "filter", nil, "region:NAME, country:NAME or city:COUNTRY/CITY (repeatable, OR-combined)")
	tripsCmd.Flags().StringVar(&listGroup, "group", "", "group the list by month or country")

	searchCmd.Flags().StringVar(&searchQuery.UserName, "user", "", "owner name")
	searchCmd.Flags().StringVar(&searchQuery.Region, "region", "", "region name")
	searchCmd.Flags().StringVar(&searchQuery.Country, "country", "", "country name")
	searchCmd.Flags().StringVar(&searchQuery.City, "city", "", "city name")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "trips ending on or after YYYY-MM-DD")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "trips starting on or before YYYY-MM-DD")
	searchCmd.Flags().BoolVar(&searchQuery.RecruitmentOnly, "recruiting", false, "only recruiting trips")
	searchCmd.Flags().StringVar(&searchQuery.Text, "text", "", "free text over names, places and descriptions")

	calendarCmd.Flags().StringVar(&listView, "view", "everyone", "everyone | mine | recruitments | meetups")
	calendarCmd.Flags().StringVar(&calendarMnth, "month", "", "YYYY-MM (default: this month)")
	calendarCmd.Flags().StringVar(&calendarDay, "day", "", "YYYY-MM-DD: list the trips on that day instead")

	rootCmd.AddCommand(tripsCmd, showCmd, searchCmd, calendarCmd)
}
