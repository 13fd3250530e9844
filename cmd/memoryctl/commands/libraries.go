package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List every memory library",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool := newPool()
		defer pool.ShutdownAll()

		libs, err := pool.ListLibraries()
		if err != nil {
			return fmt.Errorf("listing libraries: %w", err)
		}

		if len(libs) == 0 {
			fmt.Println("no libraries found")
			return nil
		}

		for _, lib := range libs {
			fmt.Println(lib)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(librariesCmd)
}
