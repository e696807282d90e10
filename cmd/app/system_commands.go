package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/storefront/cmd/app/commands"
	"github.com/allisson/storefront/internal/app"
	"github.com/allisson/storefront/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "orders-server",
			Usage: "Start the orders API and the outbox relay",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunOrdersServer(ctx, version)
			},
		},
		{
			Name:  "inventory-server",
			Usage: "Start the inventory API and the sale event worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunInventoryServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations of one service",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "service",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Service whose schema is migrated: 'orders' or 'inventory'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg, cmd.String("service"))
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(
					container.Logger(),
					cmd.String("service"),
					cfg.DBDriver,
					cfg.DBConnectionString,
				)
			},
		},
		{
			Name:  "publish-outbox",
			Usage: "Publish one batch of pending outbox messages and exit",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg, app.ServiceOrders)
				defer func() { _ = container.Shutdown(ctx) }()

				relay, err := container.OutboxRelay()
				if err != nil {
					return err
				}

				return commands.RunPublishOutbox(
					ctx,
					relay,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
