package main

import (
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push records the data service has not confirmed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession(cmd)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), store.SyncPendingRecords(cmd.Context(), sess).Descriptor())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move guest data into the current registered user",
	Long: `Replay every guest record as a save for the current registered user, then
clear the guest data. "trainer login" does this automatically when switching
from a guest session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession(cmd)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), store.MigrateGuestData(cmd.Context(), sess).Descriptor())
	},
}
