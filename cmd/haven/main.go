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

	"github.com/PizzaHomicide/haven/internal/config"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/metrics"
	"github.com/PizzaHomicide/haven/internal/repository/graphql"
	"github.com/PizzaHomicide/haven/internal/service"
	"github.com/PizzaHomicide/haven/internal/version"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once config and logging are up
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	client   *graphql.Client
	progress *service.ProgressService
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := newRootCommand(a)
	err := root.ExecuteContext(ctx)

	if a.logger != nil {
		log.Info("Haven shutting down.  Goodbye!")
		a.logger.Close()
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "haven",
		Short:         "Adaptive video playback with progress sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}

	root.AddCommand(
		newPlayCommand(a),
		newProgressCommand(a),
		newRateCommand(a),
		newSaveForLaterCommand(a),
		newHistoryCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	a.logger = logger
	log.SetDefaultLogger(logger)

	log.Info("Starting up Haven", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	client, err := graphql.NewClient(cfg.Remote.Endpoint, cfg.Remote.Token)
	if err != nil {
		return fmt.Errorf("failed to create library client: %w", err)
	}
	a.client = client
	a.progress = service.NewProgressService(graphql.NewProgressRepository(client))
	return nil
}

// serveMetrics starts the /metrics listener when one is configured.  The returned func shuts it down.
func (a *app) serveMetrics() func() {
	addr := a.cfg.Metrics.ListenAddr
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics listener failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.GetVersionInfo())
		},
	}
}
