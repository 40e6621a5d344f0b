package main

import (
	"context"
	"errors"
	"habit_tracker/internal/api"
	"habit_tracker/internal/app/service"
	"habit_tracker/internal/common/security"
	"habit_tracker/internal/domain/repository"
	"habit_tracker/internal/platform/config"
	"habit_tracker/internal/platform/database"
	"habit_tracker/internal/platform/logger"
	"habit_tracker/internal/platform/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	shutdownTimeout = 15 * time.Second
	// requestTimeout bounds a request in the router. The server's write
	// deadline is longer so a timed-out request still gets its 503.
	requestTimeout = 30 * time.Second
	writeSlack     = 5 * time.Second
)

var autoMigrate bool

func serveFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving (overrides DB_AUTO_MIGRATE)")
	return fs
}

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	cmd.Flags().AddFlagSet(serveFlags())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Stage, cfg.LogFormat, cmd.OutOrStdout())
	if cmd.Flags().Changed("migrate") {
		cfg.AutoMigrate = autoMigrate
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Database
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.LogError(log, "database connection failed", err)
		return err
	}
	defer db.Close()
	log.Info("database connected")

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.LogError(log, "migration failed", err)
			return err
		}
		log.Info("migrations applied")
	}

	// 3. Security primitives
	m := metrics.New()
	hasher, err := security.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency, m)
	if err != nil {
		return err
	}
	tokens, err := security.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return err
	}

	// 4. Repositories and services
	userRepo := repository.NewPgUserRepository(db)
	habitRepo := repository.NewPgHabitRepository(db)
	tagRepo := repository.NewPgTagRepository(db)

	authService, err := service.NewAuthService(userRepo, hasher, tokens)
	if err != nil {
		return err
	}

	// 5. Router & HTTP Server
	router := api.NewRouter(api.Deps{
		Logger:          log,
		Metrics:         m,
		ExposeInternals: cfg.IsDev(),
		RequestTimeout:  requestTimeout,
		Tokens:          tokens,
		AuthService:     authService,
		UserService:     service.NewUserService(userRepo),
		HabitService:    service.NewHabitService(habitRepo, tagRepo, db),
		TagService:      service.NewTagService(tagRepo),
	})

	server := newHTTPServer(cfg.Addr(), router)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- oops.Code("SERVER_LISTEN_FAILED").With("addr", server.Addr).Wrap(err)
		}
		close(serveErr)
	}()

	// 6. Graceful Shutdown
	select {
	case err := <-serveErr:
		if err != nil {
			logger.LogError(log, "server stopped", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
	}
	log.Info("server stopped gracefully")
	return nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + writeSlack,
		IdleTimeout:  120 * time.Second,
	}
}
