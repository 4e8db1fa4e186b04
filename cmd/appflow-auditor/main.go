package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/dukex/appflow/pkg/cmd"
	"github.com/dukex/appflow/pkg/log"
	"github.com/dukex/appflow/pkg/persistence"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "appflow-auditor"

var errNoEventBus = errors.New("an event bus is required")

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Record application change notifications",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Change notification bus (gochannel, kafka)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers, comma separated",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Optional persistence URL used to check notifications against stored change events",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule(serviceName)

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), serviceName, command.StringSlice("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			if eventBus == nil {
				return errNoEventBus
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var store persistence.Persistence

			if databaseURL := command.String("database-url"); databaseURL != "" {
				store, err = cmd.NewPersistence(ctx, logger, databaseURL)
				if err != nil {
					return err
				}

				defer func() {
					err := store.Close(ctx)
					if err != nil {
						logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
					}
				}()
			}

			return NewAuditor(eventBus, store, logger).Start(ctx)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("appflow auditor failed", "error", err)
		os.Exit(1)
	}
}
