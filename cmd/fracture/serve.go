package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/dgallion1/fracture/internal/api"
	"github.com/dgallion1/fracture/internal/pipeline"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the split service over HTTP",
	Long: `Accept PDF uploads on POST /api/split, split them on a worker pool and
serve the resulting files until the job expires. Every route except /health
requires "Authorization: Bearer $FRACTURE_API_KEY".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The service logs JSON unless asked otherwise.
		if !cmd.Flags().Changed("json-logs") {
			log = newLogger(os.Stdout, verbose, true)
		}
		if err := cfg.ValidateServe(); err != nil {
			log.Error("invalid configuration", "error", err)
			return err
		}
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s, stats, closeFn, err := buildSplitter(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
			OutputDir:    cfg.OutputDir,
			WorkerCount:  cfg.WorkerCount,
			MaxQueueSize: cfg.MaxQueueSize,
			JobTTL:       cfg.JobTTL,
		}, s, log)
		orch.Start(ctx)

		srv := api.NewServer(orch, stats, log, cfg)
		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			log.Info("shutting down...")

			orch.Stop()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		log.Info("starting fracture", "port", cfg.Port, "output_dir", cfg.OutputDir,
			"workers", cfg.WorkerCount, "enrich", cfg.Enrich)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&cfg.Port, "port", "p", cfg.Port, "Listen port")
	serveCmd.Flags().IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "Concurrent split workers")
	rootCmd.AddCommand(serveCmd)
}
