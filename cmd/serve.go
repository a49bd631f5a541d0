package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session_auth/internal/config"
	"session_auth/internal/handlers"
	"session_auth/internal/logger"
	"session_auth/internal/metrics"
	"session_auth/internal/repository"
	"session_auth/internal/repository/db"
	"session_auth/internal/server"
	"session_auth/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultShutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	addServeFlags(cmd.Flags())
	return cmd
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.String("port", "", "listen port (overrides config)")
	fs.String("log-level", "", "debug | info | warn | error (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// init logger
	log := logger.Get(logger.InfoLevel)

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		log.Errorw("error reading config", "err", err)
		return err
	}
	log = logger.New(cfg.Log.Level, cfg.Log.Format)

	// context for background goroutines
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	conn, err := openDB(ctx, cfg, log)
	if err != nil {
		log.Errorw("failed to init database", "driver", cfg.DB.Driver, "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn, dialectFor(cfg.DB.Driver))
	if cfg.Session.Store == config.SessionStoreRedis {
		rdb, err := openRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Errorw("failed to connect to redis", "err", err)
			return err
		}
		defer func() { _ = rdb.Close() }()
		repos.Sessions = repository.NewSessionRedis(rdb)
	}

	m := metrics.New()
	services := service.NewService(repos, service.Options{
		BcryptCost: cfg.Auth.BcryptCost,
		Session: service.SessionOptions{
			IdleTimeout: cfg.Session.IdleTimeout,
			MaxLifetime: cfg.Session.MaxLifetime,
		},
		OnPurge: purgeObserver(m, log),
	})
	apiHandler := handlers.NewHandler(services, log, handlers.Config{
		CookieName:     cfg.Session.CookieName,
		Secret:         cfg.Session.Secret,
		Secure:         cfg.Session.Secure,
		MaxAge:         cfg.Session.MaxLifetime,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        m,
	})
	if !cfg.Session.Secure {
		log.Warnw("session cookie is not marked Secure; set session.secure=true behind TLS")
	}

	// start the session janitor (via composed service)
	go services.Janitor.Run(ctx, cfg.Session.CleanupInterval)

	srv := server.New(server.Options{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	})
	errCh := runHTTPServer(srv, cfg.Port, apiHandler, log)

	return waitForShutdown(cancel, srv, errCh, cfg.Server.ShutdownTimeout, log)
}

// loadConfig reads configs/config.yml (or --config), .env and SESSION_AUTH_* env vars.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	v, err := newViper(fs)
	if err != nil {
		return nil, err
	}
	return config.Load(v)
}

// newViper binds command-line overrides on top of the config file and env.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := config.New(configFile)
	for key, flag := range map[string]string{"port": "port", "log.level": "log-level"} {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return v, nil
}

// openDB connects and migrates the configured database.
func openDB(ctx context.Context, cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening database", "driver", cfg.DB.Driver)
	return db.InitDB(ctx, cfg.DB.Driver, cfg.DB.DSN)
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func dialectFor(driver string) repository.Dialect {
	if driver == config.DriverPostgres {
		return repository.DialectPostgres
	}
	return repository.DialectSQLite
}

func purgeObserver(m *metrics.Metrics, log *logger.Logger) service.PurgeObserver {
	return func(n int64, err error) {
		m.ObservePurge(n, err)
		if err != nil {
			log.Errorw("session_purge_failed", "err", err)
			return
		}
		if n > 0 {
			log.Infow("session_purge", "purged", n)
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if port == "" {
			port = "3000"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, errCh <-chan error, timeout time.Duration, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err, ok := <-errCh:
		cancel()
		if ok && err != nil {
			log.Errorw("error starting server", "err", err)
			return err
		}
		return nil
	}

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
		return err
	}
	return nil
}
