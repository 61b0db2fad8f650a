package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alecgard/tripboard/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login <token>",
	Short: "Sign in with the one-time token sent by direct message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			u, err := a.sessions.Verify(ctx, args[0])
			if err != nil {
				return err
			}
			return printUser(u)
		})
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <discord-id>",
	Short: "Sign in as a directory account found with accounts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			u, err := a.sessions.Confirm(ctx, args[0])
			if err != nil {
				return err
			}
			return printUser(u)
		})
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts <name>",
	Short: "Find sign-in candidates by account name prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			found, err := a.sessions.FindAccounts(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(found)
			}
			tw := newTable()
			for _, p := range found {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.DiscordID, p.Tag(), p.DisplayName)
			}
			return tw.Flush()
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return a.sessions.Clear(ctx)
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.directory.Ensure(ctx); err != nil {
				slog.Warn("user directory unavailable, showing stored names", "error", err)
			}
			u, err := a.sessions.Current(ctx)
			if err != nil {
				return err
			}
			return printUser(u)
		})
	},
}

func printUser(u *session.AuthUser) error {
	if jsonOutput {
		return printJSON(u)
	}
	if u == nil {
		fmt.Println("signed out")
		return nil
	}
	fmt.Printf("%s (%s) discord id %s\n", u.DisplayName, u.DiscordTag, u.DiscordID)
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd, confirmCmd, accountsCmd, logoutCmd, whoamiCmd)
}
