package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	devMode bool

	versionInfo struct {
		Version string
		Commit  string
	}
)

// SetVersionInfo is called by the main package with the ldflags values.
func SetVersionInfo(version, commit string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
}

var rootCmd = &cobra.Command{
	Use:   "relaybot",
	Short: "Telegram bot that relays posts of a public channel to subscribers",
	Long: `relaybot answers private messages containing t.me links to posts of the
target channel by forwarding (or re-sending) the post, as long as the sender
is a member of that channel.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to the YAML config file (optional)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "development mode: console logs, debug level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(versionCmd)
}
