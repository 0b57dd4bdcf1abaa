package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/scheduled-notifier/internal/api/handlers/notification"
	"github.com/aliskhannn/scheduled-notifier/internal/api/router"
	"github.com/aliskhannn/scheduled-notifier/internal/api/server"
	"github.com/aliskhannn/scheduled-notifier/internal/config"
	"github.com/aliskhannn/scheduled-notifier/internal/dispatcher"
	"github.com/aliskhannn/scheduled-notifier/internal/notify"
	notifmsg "github.com/aliskhannn/scheduled-notifier/internal/rabbitmq/handlers/notification"
	"github.com/aliskhannn/scheduled-notifier/internal/rabbitmq/queue"
	notifrepo "github.com/aliskhannn/scheduled-notifier/internal/repository/notification"
	notifsvc "github.com/aliskhannn/scheduled-notifier/internal/service/notification"
	"github.com/aliskhannn/scheduled-notifier/internal/worker"
	"github.com/aliskhannn/scheduled-notifier/pkg/email"
	"github.com/aliskhannn/scheduled-notifier/pkg/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()
	val := validator.New()

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Retries, cfg.RabbitMQ.Pause)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to open channel")
	}

	q, err := queue.NewNotificationQueue(ch)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to create notification queue")
	}

	db, dialect, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	repo := notifrepo.NewRepository(db, dialect)
	if err := repo.EnsureSchema(ctx); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to prepare database schema")
	}

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.Database)
	if err = rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	senders := make(map[string]dispatcher.Sender)

	if cfg.Email.SMTPHost != "" {
		senders[notify.ChannelEmail] = email.NewClient(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.From,
			cfg.Email.Timeout,
		)
	}

	if cfg.Telegram.Token != "" {
		tg, err := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.APIURL, cfg.Telegram.Timeout)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to create telegram client")
		}
		senders[notify.ChannelTelegram] = tg
	}

	if len(senders) == 0 {
		zlog.Logger.Warn().Msg("no delivery channel configured, every dispatch will fail")
	}

	disp := dispatcher.New(senders, cfg.Retry, cfg.Dispatch.RatePerSecond, cfg.Dispatch.Burst)

	if err := config.Watch(config.DefaultPath, func(c *config.Config) {
		disp.SetRate(c.Dispatch.RatePerSecond, c.Dispatch.Burst)
	}); err != nil {
		zlog.Logger.Warn().Err(err).Msg("config hot reload disabled")
	}

	service := notifsvc.NewService(
		repo,
		notify.NewJSONCodec(),
		disp,
		rdb,
		cfg.Retry,
		notifsvc.WithSendTolerance(cfg.Scheduler.Tolerance),
		notifsvc.WithBatchSize(cfg.Scheduler.BatchSize),
	)

	notifHandler := notification.NewHandler(service, val)
	messageHandler := notifmsg.NewHandler(service)

	notifier := worker.NewNotifier(q, messageHandler, service)
	scanner := worker.NewScanner(service, q, cfg.Scheduler.Interval, cfg.Retry)

	go notifier.Run(ctx, cfg.Retry, cfg.Workers.Count)
	go scanner.Run(ctx)

	r := router.New(notifHandler)
	s := server.New(cfg.Server.HTTPPort, r)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	zlog.Logger.Info().Str("addr", cfg.Server.HTTPPort).Str("database", dialect.Name()).Msg("notifier started")

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close master DB")
	}

	for i, s := range db.Slaves {
		if err := s.Close(); err != nil {
			zlog.Logger.Error().Err(err).Int("slave", i).Msg("failed to close slave DB")
		}
	}

	if err := ch.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ channel")
	}

	if err := conn.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ connection")
	}
}

// openDatabase connects to the configured store.
func openDatabase(ctx context.Context, cfg config.Database) (*dbpg.DB, notifrepo.Dialect, error) {
	dialect, err := notifrepo.DialectByName(cfg.Driver)
	if err != nil {
		return nil, notifrepo.Dialect{}, err
	}

	if dialect == notifrepo.SQLite {
		db, err := notifrepo.OpenSQLite(ctx, cfg.SQLitePath, cfg.BusyTimeout)
		return db, dialect, err
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Slaves))
	for _, s := range cfg.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Master.DSN(), slaveDSNs, opts)
	return db, dialect, err
}
