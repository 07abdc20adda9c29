// Command templated runs the transactional email template service.
//
//	templated serve             start the HTTP API (default)
//	templated seed              insert built-in defaults for types without one
//	templated create-operator   create an admin or service account
//
// @title                       Recruitly Template Service API
// @version                     1.0
// @description                 Manages transactional email templates and sends rendered messages.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/recruitly/template-service/docs"
	"github.com/recruitly/template-service/internal/api"
	"github.com/recruitly/template-service/internal/api/handler"
	"github.com/recruitly/template-service/internal/infrastructure/config"
	"github.com/recruitly/template-service/internal/infrastructure/queue"
	"github.com/recruitly/template-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; the real environment always wins.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "templated",
		Short:         "Transactional email template service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert built-in default templates for types without one",
			RunE:  runSeed,
		},
		createOperatorCmd(),
	)
	return root
}

// bootstrap loads configuration, initialises the logger and connects stores.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "templated",
		Env:     cfg.Env,
	})

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return nil, err
	}
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if a.cfg.SeedOnStart {
		if err := a.seed(ctx); err != nil {
			a.log.Error().Err(err).Msg("seeding failed, continuing without built-in defaults")
		}
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(a.cfg.Dispatch.Workers, a.messages, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	e := api.NewRouter(api.Deps{
		Log:       logger.Component("http"),
		JWTSecret: a.cfg.JWTSecret,
		SendRPS:   a.cfg.Dispatch.SendRateLimit,
		SendBurst: a.cfg.Dispatch.SendRateBurst,
		Auth:      handler.NewAuthHandler(a.auth),
		Templates: handler.NewTemplateHandler(a.templates, a.messages),
		Messages:  handler.NewMessageHandler(a.messages, dispatcher, a.replays, logger.Component("messages")),
		Readiness: handler.NewHealthDependenciesHandler(a.mongo, a.redis),
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.Port).Msg("http server listening")
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		a.log.Error().Err(err).Msg("http server failed")
		cancelWorkers()
		dispatcher.Wait()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("http shutdown incomplete")
	}
	// Sends already answered with 202 go out before the process exits.
	dispatcher.Drain(shutdownCtx, cancelWorkers)
	cancelWorkers()
	a.log.Info().Msg("stopped")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	return a.seed(ctx)
}

func createOperatorCmd() *cobra.Command {
	var username, password, email, role string

	cmd := &cobra.Command{
		Use:   "create-operator",
		Short: "Create an admin or service operator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			op, err := a.auth.Register(ctx, username, password, email, role)
			if err != nil {
				a.log.Error().Err(err).Str("username", username).Msg("create operator failed")
				return err
			}
			a.log.Info().Str("id", op.ID).Str("username", op.Username).Str("role", op.Role).Msg("operator created")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "operator username")
	cmd.Flags().StringVar(&password, "password", "", "operator password (min 8 characters)")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().StringVar(&role, "role", "admin", "admin or service")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
