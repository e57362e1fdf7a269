package main

import (
	"context"
	"time"

	"go-gin-qms/config"
	"go-gin-qms/internal/database"
	"go-gin-qms/pkg/logger"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			logger.SetLevel(cfg.LogLevel)

			pool, err := database.InitDatabase(&cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := database.Migrate(ctx, pool); err != nil {
				return err
			}
			logger.WithComponent("server").Info("migrations applied")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "migration timeout")
	return cmd
}
