package commands

import (
	"fmt"
	"time"

	"github.com/JaimeStill/persistent-context/internal/content"
	"github.com/JaimeStill/persistent-context/internal/domain"
	"github.com/JaimeStill/persistent-context/internal/session"
	"github.com/spf13/cobra"
)

var memorizeCmd = &cobra.Command{
	Use:   "memorize <library> <content>",
	Short: "Store content into a library",
	Long: `Resolves content (a URL, a github.com/owner/repo reference, a file or
directory path, a glob, or literal text) and stores it in the named library.
Since this is a direct-mode, single-process client, the ingest runs to
completion before the command returns rather than being polled separately.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		library, raw := args[0], args[1]

		pool := newPool()
		defer pool.ShutdownAll()

		c, err := pool.Get(cmd.Context(), library)
		if err != nil {
			return fmt.Errorf("opening library %q: %w", library, err)
		}

		fetcher := content.NewHTTPFetcher(15 * time.Second)
		resolver := content.NewResolver(fetcher, fetcher)
		mgr := session.New(resolver, session.Config{
			GCInterval:         time.Minute,
			CompletedRetention: time.Minute,
			FailedRetention:    time.Minute,
		}, nil)

		id := mgr.Start(cmd.Context(), library, raw, c)

		var status session.StatusResponse
		lastStage := ""
		for {
			status, err = mgr.Status(id)
			if err != nil {
				return fmt.Errorf("polling session %q: %w", id, err)
			}
			if status.Progress.Stage != lastStage {
				fmt.Printf("[%s] %s\n", id, status.Progress.Stage)
				lastStage = status.Progress.Stage
			}
			if status.Status == domain.SessionCompleted || status.Status == domain.SessionFailed {
				break
			}
			time.Sleep(25 * time.Millisecond)
		}

		if status.Status == domain.SessionFailed {
			return fmt.Errorf("memorize failed: %s", status.Error)
		}

		fmt.Printf("memory_id: %s\nlibrary: %s\nruntime_ms: %d\n", status.MemoryID, library, status.RuntimeMS)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(memorizeCmd)
}
