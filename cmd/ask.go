package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finch-ai/finch/internal/session"
)

var (
	askProjectID string
	askUserID    string
	askSessionID string
	askSender    string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-off question about a project",
	Long: `Ask streams a grounded answer to stdout. Pass --session to continue an
existing conversation; otherwise a new session is started and its id printed
so follow-up questions can reference it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().StringVarP(&askProjectID, "project", "p", "", "project id (required)")
	askCmd.Flags().StringVarP(&askUserID, "user", "u", "", "user id (required)")
	askCmd.Flags().StringVarP(&askSessionID, "session", "s", "", "session id to continue")
	askCmd.Flags().StringVar(&askSender, "sender", "", "sender name recorded on the turn")
	_ = askCmd.MarkFlagRequired("project")
	_ = askCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, question string) error {
	sessionID := uuid.New()
	if askSessionID != "" {
		parsed, err := uuid.Parse(askSessionID)
		if err != nil {
			return fmt.Errorf("invalid session id %q: %w", askSessionID, err)
		}
		sessionID = parsed
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Sessions.GetOrCreate(ctx, sessionID, askUserID, askProjectID); err != nil {
		return fmt.Errorf("resolving session: %w", err)
	}
	a.Sessions.AppendTurn(ctx, sessionID, askUserID, session.RoleUser, askSender, question)

	err = a.Pipeline.StreamAnswer(ctx, question, askProjectID, askUserID, sessionID,
		func(_ context.Context, text string) error {
			_, werr := fmt.Fprint(os.Stdout, text)
			return werr
		})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n\nsession: %s\n", sessionID)
	return nil
}
