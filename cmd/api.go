package cmd

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ticketq/internal/api"
	"ticketq/internal/config"
	"ticketq/internal/infra/taskq"
	"ticketq/internal/store"
	"ticketq/internal/usecase"
)

func apiCmd() *cobra.Command {
	var port int
	var command = &cobra.Command{
		Use:   "api",
		Short: "Start the purchase API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			cfg := config.Load()
			ctx := context.Background()

			cli := taskq.New(cfg.Redis)
			if err := cli.Init(ctx); err != nil {
				return err
			}

			db, err := store.Open(ctx, cfg.Postgres.DSN())
			if err != nil {
				return err
			}
			defer db.Close()
			records := store.NewRecordRepo(db, log.Logger)

			enq := usecase.Enqueuer{
				Q:       cli,
				Records: records,
				Policy:  usecase.DefaultRetryPolicy(),
				Log:     log.Logger,
			}

			log.Info().Msgf("API server using stream: %s, group: %s", cfg.Redis.StreamKey, cfg.Redis.Group)
			server := api.NewServer(enq, records, log.Logger)
			server.Run(port)
			return nil
		},
	}

	command.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
	return command
}
