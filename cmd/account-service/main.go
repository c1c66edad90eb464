package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rescuelink/account-service/internal/cache"
	"github.com/rescuelink/account-service/internal/config"
	"github.com/rescuelink/account-service/internal/service"
	"github.com/rescuelink/account-service/internal/storage/postgres"
	"github.com/rescuelink/account-service/internal/token"
	accounthttp "github.com/rescuelink/account-service/internal/transport/http"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()
	log.Info("postgres_connected")

	// Кэш чёрного списка токенов.
	var blacklist cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		blacklist, err = cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.Prefix, str)
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		log.Info("redis_connected")
	default:
		blacklist = cache.NewMemory(str, cfg.Cache.Prefix)
	}
	defer func() {
		if cerr := blacklist.Close(); cerr != nil {
			log.Warn("cache_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	// Кодек токенов: в prod без внешней пары ключей не стартуем.
	codec, err := token.NewCodec(cfg.Auth, cfg.Env)
	if err != nil {
		log.Error("token_codec_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	srvc := service.New(str, blacklist, codec)
	log.Info("service_initialized")

	// Фоновая очистка просроченных записей токенов.
	startTokenJanitor(rootCtx, srvc, log, cfg.Timeouts.Janitor)

	handler := accounthttp.NewRouter(srvc, codec, blacklist, accounthttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	log.Info("service_ready")

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// startTokenJanitor запускает фоновую задачу, которая периодически удаляет
// просроченные записи токенов из хранилища.
func startTokenJanitor(ctx context.Context, srvc *service.Service, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := srvc.PurgeExpiredTokens(ctx); err != nil {
					log.Error("token_janitor_failed", slog.String("err", err.Error()))
				}
			}
		}
	}()
}
