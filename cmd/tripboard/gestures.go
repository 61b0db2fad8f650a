package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/tripboard/internal/board"
	"github.com/alecgard/tripboard/internal/trip"
)

// gesture loads the board, runs fn and prints the trip it returns. Errors
// are prefixed with their class so scripts can tell refusals apart.
func gesture(fn func(ctx context.Context, b *board.Board) (trip.Trip, error)) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.loaded(ctx); err != nil {
			return err
		}
		t, err := fn(ctx, a.board)
		if err != nil {
			return fmt.Errorf("%s: %w", board.Classify(err), err)
		}
		return printTrip(t)
	})
}

var (
	tripForm   tripFlags
	meetupForm meetupFlags
	recruitOpt recruitFlags
)

type tripFlags struct {
	country, city, start, end, description string
	hidden, recruit                        bool
	details                                string
	min, max                               int
}

func (f tripFlags) input() (trip.TripInput, error) {
	start, err := parseOptionalDay(f.start)
	if err != nil {
		return trip.TripInput{}, err
	}
	end, err := parseOptionalDay(f.end)
	if err != nil {
		return trip.TripInput{}, err
	}
	return trip.TripInput{
		Country:            f.country,
		City:               f.city,
		Start:              start,
		End:                end,
		Description:        f.description,
		Hidden:             f.hidden,
		Recruit:            f.recruit,
		RecruitmentDetails: f.details,
		MinParticipants:    optionalCount(f.min),
		MaxParticipants:    optionalCount(f.max),
	}, nil
}

type meetupFlags struct {
	country, city, title, start, end string
	dates                            []string
	details                          string
	min, max                         int
}

func (f meetupFlags) input() (trip.MeetupInput, error) {
	in := trip.MeetupInput{
		Country:            f.country,
		City:               f.city,
		Title:              f.title,
		UseCandidateDates:  len(f.dates) > 0,
		RecruitmentDetails: f.details,
		MinParticipants:    optionalCount(f.min),
		MaxParticipants:    optionalCount(f.max),
	}
	var err error
	if in.Start, err = parseMeetupTime(f.start); err != nil {
		return in, err
	}
	if in.End, err = parseMeetupTime(f.end); err != nil {
		return in, err
	}
	for _, raw := range f.dates {
		d, err := time.Parse(dayLayout, raw)
		if err != nil {
			return in, fmt.Errorf("candidate date %q is not YYYY-MM-DD", raw)
		}
		in.CandidateDates = append(in.CandidateDates, d)
	}
	return in, nil
}

// parseMeetupTime accepts a date or a local "YYYY-MM-DD HH:MM" time.
func parseMeetupTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local); err == nil {
		return t, nil
	}
	return parseOptionalDay(raw)
}

type recruitFlags struct {
	details      string
	min, max     int
	participants []string
	linked       bool
}

func (f recruitFlags) recruitment() trip.Recruitment {
	return trip.Recruitment{
		Details:         f.details,
		MinParticipants: optionalCount(f.min),
		MaxParticipants: optionalCount(f.max),
		Participants:    f.participants,
		ExternalLinked:  f.linked,
	}
}

// optionalCount maps the zero flag value to "no bound".
func optionalCount(n int) *int {
	if n == 0 {
		return nil
	}
	return trip.IntPtr(n)
}

var addTripCmd = &cobra.Command{
	Use:   "add-trip",
	Short: "Create a trip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := tripForm.input()
		if err != nil {
			return err
		}
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.CreateTrip(ctx, in)
		})
	},
}

var editTripCmd = &cobra.Command{
	Use:   "edit-trip <trip-id>",
	Short: "Replace a trip's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := tripForm.input()
		if err != nil {
			return err
		}
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.UpdateTrip(ctx, args[0], in)
		})
	},
}

var deleteTripCmd = &cobra.Command{
	Use:   "delete-trip <trip-id>",
	Short: "Delete one of your trips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.loaded(ctx); err != nil {
				return err
			}
			return a.board.DeleteTrip(ctx, args[0])
		})
	},
}

var addMeetupCmd = &cobra.Command{
	Use:   "add-meetup",
	Short: "Create a meetup, optionally with candidate dates to vote on",
	Example: `  tripboard add-meetup --country France --city Paris --title Picnic --date 2025-11-14 --date 2025-11-15`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := meetupForm.input()
		if err != nil {
			return err
		}
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.CreateMeetup(ctx, in)
		})
	},
}

var hideCmd = &cobra.Command{
	Use:   "hide <trip-id>",
	Short: "Hide a trip from everyone else; ends its recruitment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.SetHidden(ctx, args[0], true)
		})
	},
}

var unhideCmd = &cobra.Command{
	Use:   "unhide <trip-id>",
	Short: "Show a hidden trip again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.SetHidden(ctx, args[0], false)
		})
	},
}

var recruitCmd = &cobra.Command{
	Use:   "recruit",
	Short: "Start, edit or end recruitment on one of your trips",
}

var recruitStartCmd = &cobra.Command{
	Use:   "start <trip-id>",
	Short: "Open a trip to participants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.StartRecruitment(ctx, args[0], recruitOpt.recruitment())
		})
	},
}

var recruitEditCmd = &cobra.Command{
	Use:   "edit <trip-id>",
	Short: "Change details, bounds or participants of an open recruitment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.SaveRecruitment(ctx, args[0], recruitOpt.recruitment())
		})
	},
}

var recruitEndCmd = &cobra.Command{
	Use:   "end <trip-id>",
	Short: "Close recruitment; participants stay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.EndRecruitment(ctx, args[0])
		})
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <trip-id>",
	Short: "Join a recruiting trip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.Join(ctx, args[0])
		})
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave <trip-id>",
	Short: "Leave a trip you joined",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.Leave(ctx, args[0])
		})
	},
}

var participantsCmd = &cobra.Command{
	Use:   "participants",
	Short: "Manage the participants of one of your trips",
}

var participantsAddCmd = &cobra.Command{
	Use:   "add <trip-id> <discord-id>",
	Short: "Add a participant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.AddParticipant(ctx, args[0], args[1])
		})
	},
}

var participantsRemoveCmd = &cobra.Command{
	Use:   "remove <trip-id> <discord-id>",
	Short: "Remove a participant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.RemoveParticipant(ctx, args[0], args[1])
		})
	},
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Manage the candidate dates of one of your meetups",
}

var datesAddCmd = &cobra.Command{
	Use:   "add <meetup-id> <YYYY-MM-DD>",
	Short: "Propose another date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := time.Parse(dayLayout, args[1])
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.AddCandidateDate(ctx, args[0], d)
		})
	},
}

var datesRemoveCmd = &cobra.Command{
	Use:   "remove <meetup-id> <YYYY-MM-DD>",
	Short: "Withdraw a date and its votes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := time.Parse(dayLayout, args[1])
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		return gesture(func(ctx context.Context, b *board.Board) (trip.Trip, error) {
			return b.RemoveCandidateDate(ctx, args[0], d)
		})
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote <meetup-id> <YYYY-MM-DD>",
	Short: "Toggle your vote on a candidate date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := time.Parse(dayLayout, args[1])
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.loaded(ctx); err != nil {
				return err
			}
			t, voted, err := a.board.ToggleVote(ctx, args[0], d)
			if err != nil {
				return fmt.Errorf("%s: %w", board.Classify(err), err)
			}
			if !jsonOutput {
				if voted {
					fmt.Printf("voted for %s\n", trip.DateKey(d))
				} else {
					fmt.Printf("vote for %s withdrawn\n", trip.DateKey(d))
				}
			}
			return printTrip(t)
		})
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Read or write a trip's discussion",
}

var commentsListCmd = &cobra.Command{
	Use:   "list <trip-id>",
	Short: "List comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.loaded(ctx); err != nil {
				return err
			}
			cs, err := a.board.Comments(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cs)
			}
			for _, c := range cs {
				fmt.Printf("[%s] %s: %s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.UserName, c.Content)
			}
			return nil
		})
	},
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <trip-id> <text>",
	Short: "Post a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.loaded(ctx); err != nil {
				return err
			}
			c, err := a.board.AddComment(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", board.Classify(err), err)
			}
			if jsonOutput {
				return printJSON(c)
			}
			fmt.Printf("comment %s posted\n", c.ID)
			return nil
		})
	},
}

func addTripFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&tripForm.country, "country", "", "country (required)")
	f.StringVar(&tripForm.city, "city", "", "city (required)")
	f.StringVar(&tripForm.start, "start", "", "first day, YYYY-MM-DD (required)")
	f.StringVar(&tripForm.end, "end", "", "last day, YYYY-MM-DD (default: start)")
	f.StringVar(&tripForm.description, "description", "", "free text")
	f.BoolVar(&tripForm.hidden, "hidden", false, "hide from everyone else")
	f.BoolVar(&tripForm.recruit, "recruit", false, "open to participants")
	f.StringVar(&tripForm.details, "details", "", "recruitment details")
	f.IntVar(&tripForm.min, "min", 0, "minimum participants")
	f.IntVar(&tripForm.max, "max", 0, "maximum participants")
}

func addRecruitFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&recruitOpt.details, "details", "", "recruitment details")
	f.IntVar(&recruitOpt.min, "min", 0, "minimum participants")
	f.IntVar(&recruitOpt.max, "max", 0, "maximum participants")
	f.StringSliceVar(&recruitOpt.participants, "participants", nil, "replace the participant list")
	f.BoolVar(&recruitOpt.linked, "link", false, "mark the recruitment as posted to the community server")
}

func init() {
	addTripFlags(addTripCmd)
	addTripFlags(editTripCmd)

	mf := addMeetupCmd.Flags()
	mf.StringVar(&meetupForm.country, "country", "", "country (required)")
	mf.StringVar(&meetupForm.city, "city", "", "city (required)")
	mf.StringVar(&meetupForm.title, "title", "", "meetup title (required)")
	mf.StringVar(&meetupForm.start, "start", "", "start, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\" (default: now)")
	mf.StringVar(&meetupForm.end, "end", "", "end (default: start)")
	mf.StringArrayVar(&meetupForm.dates, "date", nil, "candidate date YYYY-MM-DD (repeatable; switches to voting)")
	mf.StringVar(&meetupForm.details, "details", "", "recruitment details")
	mf.IntVar(&meetupForm.min, "min", 0, "minimum participants")
	mf.IntVar(&meetupForm.max, "max", 0, "maximum participants")

	addRecruitFlags(recruitStartCmd)
	addRecruitFlags(recruitEditCmd)
	recruitCmd.AddCommand(recruitStartCmd, recruitEditCmd, recruitEndCmd)
	participantsCmd.AddCommand(participantsAddCmd, participantsRemoveCmd)
	datesCmd.AddCommand(datesAddCmd, datesRemoveCmd)
	commentsCmd.AddCommand(commentsListCmd, commentsAddCmd)

	rootCmd.AddCommand(addTripCmd, editTripCmd, deleteTripCmd, addMeetupCmd, hideCmd, unhideCmd,
		recruitCmd, joinCmd, leaveCmd, participantsCmd, datesCmd, voteCmd, commentsCmd)
}
