// Command trainer drives the progress store from the command line: it keeps
// progress in a local key-value store and mirrors it to the data service for
// registered users.
package main

import (
	"context"
	"exam_trainer_backend/internal/config"
	"exam_trainer_backend/internal/progress"
	"exam_trainer_backend/internal/remote"
	"exam_trainer_backend/pkg/database"
	"exam_trainer_backend/pkg/kvstore"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type localStore interface {
	progress.LocalStore
	Close() error
}

var (
	// Global flags
	configDir  string
	verbose    bool
	driverFlag string

	cfg    *config.Config
	logger *zap.Logger
	local  localStore
	client *remote.Client
	store  *progress.Store
)

var rootCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Exam trainer progress client",
	Long: `trainer keeps trainer progress, simulation progress and exam attempts.

Guests keep everything on this machine. Registered users also sync to the data
service; when it is unreachable the local copy is used and pushed on the next
"trainer sync".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		switch driverFlag {
		case "":
		case config.LocalDriverSQLite, config.LocalDriverRedis, config.LocalDriverMemory:
			cfg.Client.LocalDriver = driverFlag
		default:
			return fmt.Errorf("unknown local driver %q", driverFlag)
		}

		zcfg := zap.NewProductionConfig()
		zcfg.OutputPaths = []string{"stderr"}
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		local, err = openLocalStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		client = remote.New(cfg.Client.RemoteURL, cfg.Client.Timeout)
		store = progress.New(local, client, progress.WithLogger(logger))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if local != nil {
			if err := local.Close(); err != nil {
				logger.Warn("failed to close local store", zap.Error(err))
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func openLocalStore(ctx context.Context, cfg *config.Config) (localStore, error) {
	switch cfg.Client.LocalDriver {
	case config.LocalDriverMemory:
		return kvstore.NewMemoryStore(), nil
	case config.LocalDriverRedis:
		rdb, err := database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return kvstore.NewRedisStore(rdb, ""), nil
	default:
		s, err := kvstore.NewSQLiteStore(cfg.Client.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		return s, nil
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "configs", "Directory holding config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&driverFlag, "local-driver", "", "Override client.local_driver (sqlite, redis, memory)")

	rootCmd.AddCommand(guestCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(trainerCmd)
	rootCmd.AddCommand(simulationCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
