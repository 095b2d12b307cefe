package cmd

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/mq"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Work with domain events forwarded to the broker",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Consume forwarded domain events and log them",
	Long: `Subscribes to <MQ_TOPIC_PREFIX><event> for every domain event on the
configured broker and logs each one. On RabbitMQ the events are taken off the
queue; on Pub/Sub the tail uses its own subscription.

	jobportal events tail
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := newLogger(cfg)
		slog.SetDefault(logger)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not set; events are not forwarded")
		}
		defer broker.Close()

		bus := events.NewBus(logger)
		events.RegisterLogSubscribers(bus, logger)

		logger.Info("tailing domain events", "backend", cfg.MQ.Backend, "prefix", cfg.MQ.TopicPrefix)
		return events.Tail(ctx, broker, cfg.MQ.TopicPrefix, bus)
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
