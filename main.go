package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	// Version will be set via ldflags during build.
	Version = "dev"
	// Commit will be set via ldflags during build.
	Commit = "none"
)

func init() {
	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// app is the wired dependency graph shared by the subcommands.
type app struct {
	cfg          *Config
	log          zerolog.Logger
	store        Store
	publisher    EventPublisher
	users        *UserService
	transactions *TransactionService
	auth         *AuthService
	closers      []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func openStore(ctx context.Context, cfg DatabaseConfig) (Store, error) {
	if cfg.Driver == "sqlite" {
		return NewSQLiteStore(cfg.Path, cfg.LogMode)
	}
	return NewPostgresStore(ctx, cfg.URL)
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	log := newLogger(cfg.Log, os.Stdout)

	passwords, err := NewPasswordHasher(cfg.Security.PasswordMode, cfg.Security.BcryptCost)
	if err != nil {
		return nil, err
	}
	if cfg.Security.PasswordMode != PasswordModeBcrypt {
		log.Warn().Msg("passwords are stored and compared in plain text")
	}

	a := &app{cfg: cfg, log: log}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, func() { store.Close() })
	log.Info().Str("driver", cfg.Database.Driver).Msg("connected to the database")

	a.publisher = logPublisher{log: log}
	if cfg.RabbitMQ.URL != "" {
		p, err := NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("unable to connect to rabbitmq: %w", err)
		}
		a.publisher = p
		a.closers = append(a.closers, p.Close)
	}

	a.users = NewUserService(store, passwords, log)
	a.transactions = NewTransactionService(store, a.publisher, log)
	a.auth = NewAuthService(a.users, passwords, log)
	return a, nil
}

func serve(ctx context.Context, a *app) error {
	SeedUsers(ctx, a.users, a.log)

	mux := chi.NewRouter()
	RegisterRouters(mux, NewHandler(a.users, a.transactions, a.auth, a.log), a.cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRootCommand() *cobra.Command {
	var configPath string

	runServe := func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.Close()
		return serve(cmd.Context(), a)
	}

	rootCmd := &cobra.Command{
		Use:     "moneymanager",
		Short:   "Personal finance tracker API",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Insert the default users into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			SeedUsers(cmd.Context(), a.users, a.log)
			return nil
		},
	})
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
