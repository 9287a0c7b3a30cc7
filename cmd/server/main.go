package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"bookstore_back_end/internal/config"
	"bookstore_back_end/internal/logger"
)

func main() {
	app := &cli.App{
		Name:   "bookstore",
		Usage:  "API de la librairie en ligne",
		Action: withRuntime(serve),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "démarre l'API HTTP",
				Action: withRuntime(serve),
			},
			{
				Name:  "migrate",
				Usage: "applique ou annule les migrations PostgreSQL",
				Subcommands: []*cli.Command{
					{Name: "up", Action: withRuntime(migrateUp)},
					{Name: "down", Usage: "annule la dernière migration", Action: withRuntime(migrateDown)},
				},
			},
			{
				Name:   "audit-consumer",
				Usage:  "consomme les événements de commande et alimente l'historique ScyllaDB",
				Action: withRuntime(auditConsumer),
			},
			{
				Name:   "expire-discounts",
				Usage:  "retire les remises arrivées à échéance",
				Action: withRuntime(expireDiscounts),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// runtime est partagé par toutes les commandes.
type runtime struct {
	cfg *config.Config
	log *zap.Logger
}

// withRuntime charge la configuration, crée le logger et annule le contexte sur SIGINT/SIGTERM.
func withRuntime(run func(ctx context.Context, rt runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.App.Env)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, runtime{cfg: cfg, log: log})
	}
}
