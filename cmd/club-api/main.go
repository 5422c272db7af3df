package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lepoa-store/club-api/internal/app"
	"github.com/lepoa-store/club-api/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Fatal("club-api exited")
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "club-api",
		Short:         "Loyalty club API for the Le.Poá storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the yaml config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunServer(ctx, config.AppConfig{ConfigPath: configPath})
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and seed the tier ladder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Migrate(cmd.Context(), config.AppConfig{ConfigPath: configPath})
		},
	}

	root.AddCommand(serve, migrate)
	return root
}
