package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessionStore.Fetch(context.Background()); err != nil {
			return err
		}
		snap := sessionStore.Snapshot()
		if len(snap.Sessions) == 0 {
			fmt.Println("No sessions.")
			return nil
		}
		for _, sess := range snap.Sessions {
			fav := " "
			if sess.Favorite {
				fav = "★"
			}
			fmt.Printf("%s %-36s  %-30s  %s\n", fav, sess.ID, truncate(sess.Title, 30), sess.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sessionsCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := sessionStore.Create(context.Background(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Printf("Created session %s (%q)\n", sess.ID, sess.Title)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessionStore.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s\n", args[0])
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Fetch first so the merge has an entry to land in.
		if err := sessionStore.Fetch(context.Background()); err != nil {
			return err
		}
		title := strings.Join(args[1:], " ")
		if err := sessionStore.Rename(context.Background(), args[0], title); err != nil {
			return err
		}
		fmt.Printf("Renamed session %s to %q\n", args[0], title)
		return nil
	},
}

var sessionsFavoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle a session's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessionStore.Fetch(context.Background()); err != nil {
			return err
		}
		if err := sessionStore.ToggleFavorite(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Toggled favorite on session %s\n", args[0])
		return nil
	},
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsCreateCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
	sessionsCmd.AddCommand(sessionsFavoriteCmd)
}
