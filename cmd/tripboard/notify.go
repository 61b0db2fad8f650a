package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/tripboard/internal/notify"
)

var clearUnread bool

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the unread trip count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if clearUnread {
				if err := a.counter.Clear(ctx); err != nil {
					return err
				}
			}
			n, err := a.counter.Get(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]int{"count": n})
			}
			fmt.Println(n)
			return nil
		})
	},
}

var remindAt string

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send due day-before and same-day reminders once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if remindAt != "" {
			d, err := time.ParseInLocation(dayLayout, remindAt, time.Local)
			if err != nil {
				return fmt.Errorf("--at must be YYYY-MM-DD: %w", err)
			}
			now = d
		}
		return withApp(func(ctx context.Context, a *app) error {
			u, err := a.sessions.Current(ctx)
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("sign in first: tripboard login <token>")
			}
			if err := a.loaded(ctx); err != nil {
				return err
			}
			r := notify.NewReminders(a.store, a.counter, a.dispatcher(), a.cfg.Location())
			fired, err := r.Check(ctx, a.board.All(ctx), u.DiscordID, now)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(fired)
			}
			if len(fired) == 0 {
				fmt.Println("nothing due")
			}
			for _, rm := range fired {
				fmt.Printf("%s\t%s\t%s, %s\t%d participants\n",
					rm.TripID, rm.Timing, rm.Trip.City, rm.Trip.Country, len(rm.Participants))
			}
			return nil
		})
	},
}

func init() {
	unreadCmd.Flags().BoolVar(&clearUnread, "clear", false, "reset the count to zero")
	remindCmd.Flags().StringVar(&remindAt, "at", "", "pretend today is this day, YYYY-MM-DD")
	rootCmd.AddCommand(unreadCmd, remindCmd)
}
