package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pefman/w40k-cheatsheet/internal/api"
	"github.com/pefman/w40k-cheatsheet/internal/config"
	"github.com/pefman/w40k-cheatsheet/internal/logging"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sheet",
		Short:        "Army list cheat sheet front end",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			if buildTime == "" {
				fmt.Fprintln(cmd.OutOrStdout(), buildVersion)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (built %s)\n", buildVersion, buildTime)
		},
	}
}

func newServeCmd() *cobra.Command {
	var envFiles []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web page and the /ws session endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default .env,.env.local)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Configuration) error {
	log := logging.ConsoleLogger(logging.ParseLevel(cfg.LogLevel))
	client := api.NewClient(api.Config{BaseURL: cfg.GenerationAPIBase, Timeout: cfg.GenerationTimeout})

	handler, err := newRouter(cfg, client, log)
	if err != nil {
		return err
	}

	// websocket connections are hijacked, so Shutdown alone would not end them
	base, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancelSessions)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Infof("cheat sheet front end %s listening on %s (GENERATION_API_BASE=%s)", buildVersion, cfg.Addr(), cfg.GenerationAPIBase)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
