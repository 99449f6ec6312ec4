package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"channel-relay-bot/internal/application"
	"channel-relay-bot/internal/config"
	"channel-relay-bot/internal/domain/ports/adapter"
	"channel-relay-bot/internal/domain/ports/repository"
	"channel-relay-bot/internal/infra/adapters/mtproto"
	"channel-relay-bot/internal/infra/adapters/telegram"
	httpserver "channel-relay-bot/internal/infra/http"
	"channel-relay-bot/internal/infra/i18n"
	"channel-relay-bot/internal/infra/logging"
	"channel-relay-bot/internal/infra/metrics"
	"channel-relay-bot/internal/infra/ratelimit"
	"channel-relay-bot/internal/infra/redis"
	"channel-relay-bot/internal/infra/sched"
	"channel-relay-bot/internal/infra/session"
	"channel-relay-bot/internal/infra/worker"
	"channel-relay-bot/internal/usecase"
)

const (
	instanceLeaseTTL = 30 * time.Second
	shutdownTimeout  = 10 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Telegram and serve relay requests",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(cfgFile, devMode)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Log, cfg.Runtime.Dev)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := run(ctx, cfg, logger); err != nil {
			logger.Error().Err(err).Msg("relaybot stopped with error")
			return err
		}
		logger.Info().Msg("relaybot stopped")
		return nil
	},
}

// platform is what both Telegram drivers provide.
type platform interface {
	adapter.ChannelDirectory
	adapter.PostSource
	adapter.Messenger
	Connector(handler adapter.UpdateHandler) session.Connector
}

var (
	_ platform = (*mtproto.Client)(nil)
	_ platform = (*telegram.RealTelegramBotAdapter)(nil)
)

func newPlatform(cfg *config.Config, logger *zerolog.Logger) (platform, error) {
	switch cfg.Bot.Driver {
	case config.DriverBotAPI:
		return telegram.NewRealTelegramBotAdapter(&cfg.Bot, logger)
	default:
		return mtproto.New(&cfg.Bot, cfg.Log, logger)
	}
}

type stores struct {
	rates  repository.RateStore
	dedupe repository.DedupeStore
	redis  *redis.Client
}

func newStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	opts := ratelimit.OptionsFromConfig(cfg.RateLimit)
	if cfg.RateLimit.Backend != config.BackendRedis {
		return &stores{
			rates:  ratelimit.NewMemoryStore(opts),
			dedupe: ratelimit.NewDedupeStore(cfg.RateLimit.DedupeTTL),
		}, nil
	}
	c, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &stores{
		rates:  redis.NewRateStore(c, opts),
		dedupe: redis.NewDedupeStore(c, cfg.RateLimit.DedupeTTL),
		redis:  c,
	}, nil
}

// logStartup records the effective settings; credentials are redacted
// outside dev mode.
func logStartup(logger *zerolog.Logger, cfg *config.Config) {
	ev := logger.Info().
		Str("version", versionInfo.Version).
		Str("driver", cfg.Bot.Driver).
		Str("bot_token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Str("rate_backend", cfg.RateLimit.Backend).
		Bool("dry_run", cfg.Bot.DryRun)
	if cfg.Bot.Driver == config.DriverMTProto {
		ev = ev.Int("api_id", cfg.Bot.APIID).
			Str("api_hash", logging.Redact(cfg.Bot.APIHash, cfg.Runtime.Dev))
	}
	ev.Msg("starting relaybot")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	metrics.MustRegister()
	metrics.SetBuildInfo(versionInfo.Version, versionInfo.Commit)

	logStartup(logger, cfg)

	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	st, err := newStores(ctx, cfg)
	if err != nil {
		return err
	}
	if st.redis != nil {
		defer st.redis.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	// Shared stores let a second instance double-serve users; hold a lease.
	if st.redis != nil {
		locker := redis.NewLocker(st.redis)
		key := "instance:" + cfg.Bot.Driver
		token, err := locker.TryLock(ctx, key, instanceLeaseTTL)
		if err != nil {
			return fmt.Errorf("acquire instance lease: %w", err)
		}
		g.Go(func() error {
			if err := locker.Hold(gctx, key, token, instanceLeaseTTL); err != nil {
				return fmt.Errorf("instance lease lost: %w", err)
			}
			return nil
		})
	}

	driver, err := newPlatform(cfg, logger)
	if err != nil {
		return err
	}

	var bot adapter.Messenger = driver
	if cfg.Bot.DryRun {
		bot = telegram.NewNoopBotAdapter(logger)
	}
	bot = telegram.NewThrottledMessenger(bot, cfg.Bot.SendRate, cfg.Bot.SendBurst)

	subs := usecase.NewSubscriptionUseCase(driver, config.TargetChannel, logger)
	relay := usecase.NewRelayUseCase(driver, driver, bot, translator, logger)
	router := application.NewRouter(bot, subs, relay, st.rates, st.dedupe, translator, logger,
		application.WithHandlerTimeout(cfg.Bot.HandlerTimeout))

	pool := worker.NewPool(logger)
	pool.Start(gctx)
	defer pool.Stop()

	supervisor := session.NewSupervisor(
		driver.Connector(worker.NewDispatcher(pool, router, logger)),
		session.OptionsFromConfig(cfg.Session),
		logger,
	)

	srvOpts := []httpserver.Option{httpserver.WithVersion(versionInfo.Version, versionInfo.Commit)}
	if st.redis != nil {
		srvOpts = append(srvOpts, httpserver.WithHealthCheck("redis", st.redis))
	}
	srv := httpserver.NewServer(cfg.Admin, supervisor, logger, srvOpts...)

	g.Go(func() error { return supervisor.Run(gctx) })
	g.Go(func() error {
		err := sched.NewSweepWorker(cfg.RateLimit.SweepInterval, st.rates, st.dedupe, logger).Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
