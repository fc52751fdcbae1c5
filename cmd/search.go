package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finch-ai/finch/internal/rag"
)

var (
	searchProjectID string
	searchUserID    string
	searchLimit     int32
	searchAll       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Inspect vector search results (diagnostics)",
	Long: `Search runs the query-time similarity search and prints the matched
chunks with their scores. Intended for debugging retrieval quality.

--all searches across every project and user. It exists purely for operator
diagnostics; the query pipeline always scopes by project and user.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd.Context(), args[0])
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchProjectID, "project", "p", "", "project id")
	searchCmd.Flags().StringVarP(&searchUserID, "user", "u", "", "user id")
	searchCmd.Flags().Int32Var(&searchLimit, "limit", 10, "maximum chunks to print")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "search across all projects and users")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx context.Context, query string) error {
	if !searchAll && (searchProjectID == "" || searchUserID == "") {
		return fmt.Errorf("--project and --user are required unless --all is set")
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var items []rag.ContextItem
	if searchAll {
		items, err = a.Vector.SearchAll(ctx, query, searchLimit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
	} else {
		items = a.Vector.Retrieve(ctx, searchProjectID, searchUserID, query, searchLimit)
	}

	if len(items) == 0 {
		fmt.Println("no matches")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTITLE\tCONTENT")
	for _, item := range items {
		fmt.Fprintf(w, "%.4f\t%s\t%s\n", item.Relevance, item.Title, firstLine(item.Content, 80))
	}
	return w.Flush()
}

// firstLine truncates content to a single printable line.
func firstLine(s string, max int) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
