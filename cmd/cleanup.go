package cmd

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-social-auth/app/service"
	"github.com/vibast-solutions/ms-go-social-auth/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired verification codes and auth sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err = configureLogging(cfg.Log); err != nil {
			return err
		}

		db, err := openDB(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		codes, err := service.NewCodeStore(db, cfg.Codes).PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge verification codes: %w", err)
		}
		sessions, err := service.NewSessionStore(db).PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge auth sessions: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"codes":    codes,
			"sessions": sessions,
		}).Info("Expired records deleted")
		fmt.Printf("deleted %d expired code(s) and %d expired session(s)\n", codes, sessions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
