package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecgard/tripboard/internal/trip"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// printTrips writes one row per trip, or JSON with --json.
func printTrips(trips []trip.Trip) error {
	if jsonOutput {
		return printJSON(trips)
	}
	if len(trips) == 0 {
		fmt.Println("no trips")
		return nil
	}
	tw := newTable()
	fmt.Fprintln(tw, "ID\tWHEN\tWHERE\tOWNER\tSTATUS\tPEOPLE")
	for _, t := range trips {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, dateRange(t), t.City+", "+t.Country, t.UserName, status(t), people(t))
	}
	return tw.Flush()
}

// printTrip writes the detail view of one trip.
func printTrip(t trip.Trip) error {
	if jsonOutput {
		return printJSON(t)
	}
	tw := newTable()
	fmt.Fprintf(tw, "id\t%s\n", t.ID)
	fmt.Fprintf(tw, "kind\t%s\n", t.Kind)
	fmt.Fprintf(tw, "where\t%s, %s\n", t.City, t.Country)
	fmt.Fprintf(tw, "when\t%s\n", dateRange(t))
	fmt.Fprintf(tw, "owner\t%s\n", t.UserName)
	if t.Description != "" {
		fmt.Fprintf(tw, "description\t%s\n", t.Description)
	}
	fmt.Fprintf(tw, "status\t%s\n", status(t))
	if t.RecruitmentDetails != "" {
		fmt.Fprintf(tw, "recruiting\t%s\n", t.RecruitmentDetails)
	}
	fmt.Fprintf(tw, "participants\t%s\n", people(t))
	if t.Meetup != nil {
		for _, d := range t.Meetup.CandidateDates {
			fmt.Fprintf(tw, "  %s\t%d vote(s) %s\n", trip.DateKey(d), len(t.Voters(d)), strings.Join(t.Voters(d), " "))
		}
		if lead := trip.LeadingDates(t); len(lead) > 0 {
			keys := make([]string, 0, len(lead))
			for _, d := range lead {
				keys = append(keys, trip.DateKey(d))
			}
			fmt.Fprintf(tw, "leading\t%s\n", strings.Join(keys, ", "))
		}
	}
	return tw.Flush()
}

func dateRange(t trip.Trip) string {
	start, end := trip.DateKey(t.Start), trip.DateKey(t.End)
	if start == end {
		return start
	}
	return start + " to " + end
}

func status(t trip.Trip) string {
	var parts []string
	if t.IsOwn {
		parts = append(parts, "mine")
	}
	if t.IsRecruitment {
		parts = append(parts, "recruiting")
	}
	if t.IsHidden {
		parts = append(parts, "hidden")
	}
	if t.IsFull() {
		parts = append(parts, "full")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func people(t trip.Trip) string {
	n := len(t.Participants)
	switch {
	case t.MaxParticipants != nil:
		return fmt.Sprintf("%d/%d", n, *t.MaxParticipants)
	default:
		return fmt.Sprintf("%d", n)
	}
}
