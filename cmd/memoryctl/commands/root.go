// Package commands implements the memoryctl subcommand tree. Every
// subcommand operates directly against the data directory's library files,
// mirroring the teacher CLI's "direct mode" rather than going through a
// network API: the tool surface is stdio MCP, not HTTP, so there is no
// service endpoint for a client to call.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "memoryctl",
	Short: "Inspect and drive the memory engine's libraries directly",
	Long: `memoryctl operates directly against the same data directory the
memoryd process uses, performing the memorize/recall/libraries
operations without going through the MCP tool surface.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "/data/memory", "directory holding the per-library database files")
	viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
}

func initConfig() {
	if v := viper.GetString("data.dir"); v != "" {
		dataDir = v
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
