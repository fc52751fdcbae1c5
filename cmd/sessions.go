package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finch-ai/finch/internal/app"
	"github.com/finch-ai/finch/internal/config"
)

var (
	sessionsUserID string
	sessionsLimit  int32
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionsList(cmd.Context())
	},
}

var sessionsCloseCmd = &cobra.Command{
	Use:   "close [session-id]",
	Short: "Mark a session as ended",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionsClose(cmd.Context(), args[0])
	},
}

func init() {
	sessionsCmd.PersistentFlags().StringVarP(&sessionsUserID, "user", "u", "", "user id (required)")
	_ = sessionsCmd.MarkPersistentFlagRequired("user")
	sessionsListCmd.Flags().Int32Var(&sessionsLimit, "limit", 20, "maximum sessions to list")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsCloseCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(ctx context.Context) error {
	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.Sessions.List(ctx, sessionsUserID, sessionsLimit, 0)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tSTARTED\tENDED")
	for _, sess := range sessions {
		ended := "-"
		if sess.Ended() {
			ended = sess.EndedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			sess.ID, sess.ProjectID, sess.StartedAt.Format("2006-01-02 15:04"), ended)
	}
	return w.Flush()
}

func runSessionsClose(ctx context.Context, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", rawID, err)
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Sessions.Close(ctx, id); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	fmt.Printf("session %s closed\n", id)
	return nil
}

// setupApp loads config and assembles the application for CLI commands.
func setupApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	a, err := app.Setup(ctx, cfg, newLogger())
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}
