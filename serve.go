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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"gita_story_weaver/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web chat",
	Long:  `Serves the chat page, the session JSON API, /healthz and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		srv, err := server.New(a.svc,
			server.WithLogger(a.logger),
			server.WithRequestTimeout(cfg.Server.RequestTimeout),
			server.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
		)
		if err != nil {
			return err
		}

		httpSrv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
			// story requests hold the connection for the whole pipeline
			WriteTimeout: srv.Timeout() + 30*time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("starting web server", "addr", httpSrv.Addr)
			serverErrors <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			a.logger.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return httpSrv.Close()
			}
			a.logger.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
