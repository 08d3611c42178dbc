package main // entry point of the suggestion box HTTP server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/suggestion-box/internal/config"
	"github.com/iliyamo/suggestion-box/internal/database"
	"github.com/iliyamo/suggestion-box/internal/handler"
	"github.com/iliyamo/suggestion-box/internal/middleware"
	"github.com/iliyamo/suggestion-box/internal/queue"
	"github.com/iliyamo/suggestion-box/internal/repository"
	"github.com/iliyamo/suggestion-box/internal/router"
	"github.com/iliyamo/suggestion-box/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "dev" {
		opts.Level = slog.LevelDebug
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis is optional; without it the limiter and cache pass through.
	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.NopPublisher{}
	var async *queue.AsyncPublisher
	if cfg.EventsEnabled {
		async = queue.NewAsyncPublisher(queue.NewRabbitPublisher(cfg.RabbitURL), 5*time.Second)
		events = async
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitURL, cfg.EventLogDir); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	suggestionRepo := repository.NewSuggestionRepo(db)
	var replyRepo *repository.ReplyRepo
	if cfg.RepliesEnabled {
		replyRepo = repository.NewReplyRepo(db)
	}

	access := service.NewAccessService(cfg, users, tokens, events)
	suggestions := service.NewSuggestionService(users, suggestionRepo, replyRepo, events)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	var replies *handler.ReplyHandler
	if cfg.RepliesEnabled {
		replies = handler.NewReplyHandler(service.NewReplyService(replyRepo, events), cache, cfg.AdminUsername)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORS())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				slog.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	}))

	router.Register(e, router.Deps{
		DB:          db,
		JWTSecret:   cfg.JWTSecret,
		Auth:        handler.NewAuthHandler(access),
		Suggestions: handler.NewSuggestionHandler(suggestions, cache, cfg.AdminUsername),
		Replies:     replies,
		Admin:       handler.NewAdminHandler(access),
		Access:      access,
		Cache:       cache,
		Limiter:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	slog.Info("listening", "addr", addr, "env", cfg.Env, "db_driver", cfg.DBDriver,
		"replies", cfg.RepliesEnabled, "events", cfg.EventsEnabled, "redis", rdb != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown", "error", err)
	}
	if async != nil {
		async.Wait()
	}
	slog.Info("server stopped cleanly")
	return nil
}
