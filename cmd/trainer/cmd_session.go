package main

import (
	"encoding/json"
	"errors"
	"exam_trainer_backend/internal/progress"
	"exam_trainer_backend/internal/util"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loginName string

var guestCmd = &cobra.Command{
	Use:   "guest",
	Short: "Start a guest session",
	Long: `Start a guest session. The data service assigns the guest an id when it
is reachable; otherwise an anonymous guest session is started. Guest data
never leaves this machine.`,
	Args: cobra.NoArgs,
	RunE: runGuest,
}

var loginCmd = &cobra.Command{
	Use:   "login <user-id>",
	Short: "Switch to a registered user",
	Long: `Switch to the registered user with the given id, as issued by the external
login. Data recorded as a guest is migrated into the account, then pending
records are synced.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear its local data",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := currentSession(cmd)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sess)
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginName, "name", "", "Display name")
}

func runGuest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess := progress.GuestSession("", util.GuestNamePrefix+"local")
	if u, err := client.GuestLogin(ctx); err != nil {
		logger.Warn("guest login failed, starting an anonymous guest session", zap.Error(err))
	} else {
		sess = progress.GuestSession(u.ID, u.Name)
	}

	if err := store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), sess)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, ok := util.ParseID(args[0]); !ok {
		return util.ErrInvalidUserID
	}
	next := progress.RegisteredSession(args[0], loginName)

	out := struct {
		Session   progress.Session     `json:"session"`
		Migration *progress.Descriptor `json:"migration,omitempty"`
		Sync      progress.Descriptor  `json:"sync"`
	}{Session: next}

	prev, ok := store.CurrentSession(ctx)
	if ok && prev.IsGuest() {
		d := store.MigrateGuestData(ctx, next).Descriptor()
		out.Migration = &d
	}
	if err := store.SaveSession(ctx, next); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	out.Sync = store.SyncPendingRecords(ctx, next).Descriptor()
	return printJSON(cmd.OutOrStdout(), out)
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := currentSession(cmd)
	if err != nil {
		return err
	}
	d := store.ClearLocalData(ctx, sess).Descriptor()
	if err := store.ForgetSession(ctx); err != nil {
		return fmt.Errorf("failed to forget session: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), d)
}

func currentSession(cmd *cobra.Command) (progress.Session, error) {
	sess, ok := store.CurrentSession(cmd.Context())
	if !ok {
		return progress.Session{}, errors.New(`no session; run "trainer guest" or "trainer login <user-id>"`)
	}
	return sess, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
