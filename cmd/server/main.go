package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/jusunglee/mbta-board/api/handlers"
	"github.com/jusunglee/mbta-board/pkg/dashboard"
)

func main() {
	setupLogging()

	app := &cli.App{
		Name:  "mbta-board",
		Usage: "Transit arrival board for a fixed set of stops, routes and bike stations",
		Commands: []*cli.Command{
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func setupLogging() {
	if os.Getenv("BOARD_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("BOARD_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}
}

func serveCommand() *cli.Command {
	defaults := dashboard.DefaultConfig()

	return &cli.Command{
		Name:  "serve",
		Usage: "poll the upstream APIs and serve the board over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Value:   ":8080",
				Usage:   "listen address for the web server",
				EnvVars: []string{"BOARD_LISTEN"},
			},
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "dotenv file to load before reading the environment",
				EnvVars: []string{"BOARD_ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "MBTA v3 API key",
				EnvVars: []string{"MBTA_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "MBTA v3 API base URL",
				EnvVars: []string{"MBTA_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "YAML catalog of stops and stations (default: built-in)",
				EnvVars: []string{"BOARD_CATALOG"},
			},
			&cli.DurationFlag{
				Name:    "interval",
				Value:   defaults.UpdateInterval,
				Usage:   "poll interval",
				EnvVars: []string{"BOARD_INTERVAL"},
			},
			&cli.DurationFlag{
				Name:  "request-timeout",
				Value: defaults.RequestTimeout,
				Usage: "timeout for each upstream request",
			},
			&cli.IntFlag{
				Name:  "max-concurrent",
				Value: defaults.MaxConcurrent,
				Usage: "upper bound on in-flight upstream requests",
			},
			&cli.BoolFlag{
				Name:    "kiosk",
				Usage:   "rotate through one group per cycle",
				EnvVars: []string{"BOARD_KIOSK"},
			},
		},
		Action: func(c *cli.Context) error {
			config, err := configFromContext(c)
			if err != nil {
				return err
			}
			return serve(c.Context, c.String("listen"), config)
		},
	}
}

// configFromContext layers explicitly set flags over the environment
func configFromContext(c *cli.Context) (dashboard.Config, error) {
	var envFiles []string
	if f := c.String("env-file"); f != "" {
		envFiles = append(envFiles, f)
	}

	config, err := dashboard.ConfigFromEnv(envFiles...)
	if err != nil {
		return config, err
	}

	if c.IsSet("api-key") {
		config.APIKey = c.String("api-key")
	}
	if c.IsSet("base-url") {
		config.BaseURL = c.String("base-url")
	}
	if c.IsSet("catalog") {
		config.CatalogPath = c.String("catalog")
	}
	if c.IsSet("interval") {
		config.UpdateInterval = c.Duration("interval")
	}
	if c.IsSet("request-timeout") {
		config.RequestTimeout = c.Duration("request-timeout")
	}
	if c.IsSet("max-concurrent") {
		config.MaxConcurrent = c.Int("max-concurrent")
	}
	if c.IsSet("kiosk") {
		config.Kiosk = c.Bool("kiosk")
	}

	return config, config.Validate()
}

func serve(ctx context.Context, listen string, config dashboard.Config) error {
	if config.APIKey == "" {
		log.Warn().Msg("No MBTA API key set, requests are rate limited")
	}

	client, err := dashboard.NewLocal(config)
	if err != nil {
		return err
	}
	defer client.Close()

	r := mux.NewRouter()
	h := handlers.NewHandler(client)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         listen,
		Handler:      handlers.LoggingMiddleware(handlers.CORS(r)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("listen", listen).
			Dur("interval", config.UpdateInterval).
			Bool("kiosk", config.Kiosk).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
