package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noooah2000/solve-next/internal/api"
	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/llm"
	"github.com/noooah2000/solve-next/internal/recommend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		level := slog.LevelInfo
		if strings.EqualFold(os.Getenv("SOLVENEXT_LOG"), "debug") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			if err := s.Close(); err != nil {
				slog.Warn("closing storage", "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, err := newRecommendService(s)
		if err != nil {
			return err
		}

		deps := api.Deps{
			Store:     s,
			Recommend: svc,
			Resolver:  catalog.NewLeetCodeClient(),
		}
		if p, cfg, err := newProvider(ctx, s); err == nil {
			deps.Explainer = recommend.NewExplainer(llm.WithRetry(p, cfg.Retry), 0)
		} else {
			slog.Info("no generator configured, serving deterministic rationale", "reason", err)
		}
		ctrl, err := newHintController(ctx, s, svc)
		if err != nil {
			return err
		}
		deps.Hints = ctrl

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewHandler(deps),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("solvenext listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8572", "Address to listen on")
}
