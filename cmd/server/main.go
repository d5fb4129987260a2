package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/classroom/internal/adapters/http"
	"github.com/dkeye/classroom/internal/app"
	"github.com/dkeye/classroom/internal/app/orch"
	"github.com/dkeye/classroom/internal/auth"
	"github.com/dkeye/classroom/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	flags := pflag.NewFlagSet("classroom", pflag.ExitOnError)
	flags.Int("port", 8080, "listen port")
	flags.String("mode", "release", "gin mode: debug, release or test")
	flags.String("log_level", "info", "log level")
	env := flags.String("config-env", "", "config environment (config/config.<env>.yaml)")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*env, flags)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	var opts []auth.JWTOption
	if cfg.JWTIssuer != "" {
		opts = append(opts, auth.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTRequireExp {
		opts = append(opts, auth.WithRequiredExpiry())
	}
	verifier, err := auth.NewJWTVerifier([]byte(cfg.Secret), opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create verifier")
	}

	policy, err := app.PolicyFor(cfg.Backpressure)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid backpressure policy")
	}
	o := orch.New(policy)
	r := router.SetupRouter(ctx, cfg, o, verifier)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(o.CloseAll)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("classroom server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Mode == "debug" {
		// Human-friendly output for terminal; JSON everywhere else.
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
