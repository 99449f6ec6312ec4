package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"channel-relay-bot/internal/config"
	"channel-relay-bot/internal/infra/session"
)

var sessionDir string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage on-disk session artifacts",
}

var sessionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove leftover relay session files",
	Long: `Removes *.session files and their -journal, -wal and -shm
companions left behind by a crashed process. Do not run while the bot is up.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := sessionDir
		if dir == "" {
			cfg, err := config.LoadConfig(cfgFile, devMode)
			if err != nil {
				return err
			}
			dir = cfg.Session.Dir
		}
		n, err := session.Purge(dir)
		if err != nil {
			return fmt.Errorf("purge %s: %w", dir, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d file(s) from %s\n", n, dir)
		return nil
	},
}

func init() {
	sessionsPurgeCmd.Flags().StringVar(&sessionDir, "dir", "", "session directory (defaults to session.dir from config)")
	sessionsCmd.AddCommand(sessionsPurgeCmd)
}
