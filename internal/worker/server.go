package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog/log"

	"ticketq/internal/booking"
	"ticketq/internal/config"
	"ticketq/internal/infra/taskq"
	"ticketq/internal/mail"
	"ticketq/internal/store"
	"ticketq/internal/usecase"
)

type Config struct {
	ConsumerName string
	Concurrency  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

// Run wires the queue, record store, booking client and mailer together and
// consumes purchase tasks until SIGINT/SIGTERM.
func Run(cfg Config) error {
	appCfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := taskq.New(appCfg.Redis)
	if err := cli.Init(ctx); err != nil {
		return err
	}

	db, err := store.Open(ctx, appCfg.Postgres.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	records := store.NewRecordRepo(db, log.Logger)

	bookingClient := booking.NewClient(appCfg.Booking, log.Logger)

	sender, err := buildSender(ctx, appCfg.Mail)
	if err != nil {
		return err
	}
	dispatcher := mail.NewDispatcher(sender, log.Logger)

	executor := usecase.NewExecutor(bookingClient, records, dispatcher, log.Logger)

	policy := usecase.DefaultRetryPolicy()
	if cfg.BaseBackoff > 0 {
		policy.BaseBackoff = cfg.BaseBackoff
	}
	if cfg.MaxBackoff > 0 {
		policy.MaxBackoff = cfg.MaxBackoff
	}

	sched := taskq.NewScheduler(cli, 1*time.Second)
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.Ctx(ctx).Error().Err(err).Msg("scheduler stopped with error")
		}
	}()

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = appCfg.Worker.Concurrency
	}
	log.Info().
		Str("consumer", cfg.ConsumerName).
		Int("concurrency", concurrency).
		Str("booking_api", appCfg.Booking.BaseURL).
		Msg("worker starting")

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		name := fmt.Sprintf("%s-%d", cfg.ConsumerName, i+1)
		consumer := usecase.NewConsumer(cli, records, policy, name)
		consumer.ClaimBlock = appCfg.Worker.ClaimBlock
		consumer.Log = log.With().Str("consumer", name).Logger()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx, executor.Execute); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("consumer", name).Msg("consumer stopped with error")
			}
		}()
	}

	wg.Wait()
	log.Info().Msg("worker stopped")
	return nil
}

// buildSender returns the SES sender when MAIL_FROM is configured, otherwise
// a log-only sender so confirmations stay observable in development.
func buildSender(ctx context.Context, cfg config.Mail) (mail.Sender, error) {
	if cfg.From == "" {
		return mail.LogSender{Log: log.Logger}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return mail.NewSESSender(awsCfg, cfg.From), nil
}
