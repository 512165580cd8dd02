package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/redirector/internal/access"
	"github.com/vadimbarashkov/redirector/internal/adapter/repository"
	"github.com/vadimbarashkov/redirector/internal/config"
	"github.com/vadimbarashkov/redirector/internal/keygen"
	"github.com/vadimbarashkov/redirector/internal/usecase"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/redirector/internal/adapter/delivery/http"
)

const serviceName = "redirector"

// NewLogger builds the request and application logger from cfg.
func NewLogger(cfg *config.Config) *httplog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:        cfg.Log.SlogLevel(),
		JSON:            cfg.Log.JSON,
		Concise:         cfg.Env == config.EnvDev,
		RequestHeaders:  cfg.Env != config.EnvDev,
		TimeFieldFormat: "2006-01-02T15:04:05.000Z07:00",
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

// NewHandler wires the shortener on top of store.
func NewHandler(cfg *config.Config, logger *httplog.Logger, store usecase.RecordStore) (http.Handler, error) {
	const op = "app.NewHandler"

	keys, err := keygen.New(
		keygen.WithKeyLength(cfg.KeyLength),
		keygen.WithSecretLength(cfg.SecretKeyLength),
		keygen.WithLogger(logger.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create key generator: %w", op, err)
	}

	views := access.New(cfg.BaseURL, access.DefaultAdminPath)
	urlUseCase := usecase.New(store, keys, views, usecase.WithReservedKeys(delivery.ReservedKeys...))

	return delivery.NewRouter(logger, urlUseCase), nil
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)

	store, err := repository.Open(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: failed to open storage: %w", op, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("op", op), slog.Any("err", err))
		}
	}()

	handler, err := NewHandler(cfg, logger, store)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        handler,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("env", cfg.Env),
			slog.String("addr", server.Addr),
			slog.String("base_url", cfg.BaseURL),
			slog.String("storage", cfg.Storage.Backend),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
