package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	recallLimit       int
	recallWithRelated bool
)

var recallCmd = &cobra.Command{
	Use:   "recall <library> <query>",
	Short: "Search a library for content relevant to a query",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		library, query := args[0], args[1]

		pool := newPool()
		defer pool.ShutdownAll()

		c, err := pool.Get(cmd.Context(), library)
		if err != nil {
			return fmt.Errorf("opening library %q: %w", library, err)
		}

		results, err := c.SearchMemories(cmd.Context(), query, recallLimit, recallWithRelated)
		if err != nil {
			return fmt.Errorf("recall failed: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("no memories found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tSCORE\tIMPORTANCE\tID\tCONTENT")
		for _, r := range results {
			preview := r.Content
			if len(preview) > 60 {
				preview = preview[:57] + "..."
			}
			fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%s\t%s\n", r.Rank, r.Score, r.Importance, r.ID, preview)
		}
		w.Flush()
		return nil
	},
}

func init() {
	recallCmd.Flags().IntVar(&recallLimit, "limit", 10, "maximum number of results")
	recallCmd.Flags().BoolVar(&recallWithRelated, "with-related", false, "expand each result with its 1-hop related memories")
	rootCmd.AddCommand(recallCmd)
}
