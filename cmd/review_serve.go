package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crisislab/triage-cli/internal/review"
)

var (
	servePort   int
	serveQueue  string
	serveOutput string
)

var reviewServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser review form",
	Long:  "Serves the review form over the queue JSON. Every saved judgment is persisted immediately, so the server can be stopped and restarted at any point.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		session, err := review.OpenSession(serveQueue, serveOutput)
		if err != nil {
			return err
		}
		total, completed := session.Progress()
		zap.L().Info("review session opened",
			zap.String("queue", serveQueue),
			zap.String("output", serveOutput),
			zap.Int("total", total),
			zap.Int("completed", completed),
		)

		server, err := review.NewServer(session)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Router(),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("review server listening", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "review server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down review server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	reviewServeCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	reviewServeCmd.Flags().StringVar(&serveQueue, "queue", "review_queue.json", "review queue JSON")
	reviewServeCmd.Flags().StringVar(&serveOutput, "output", "reviewed.json", "reviewed output JSON")
	reviewCmd.AddCommand(reviewServeCmd)
}
