package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/khaki/internal/api"
	"github.com/jon4hz/khaki/internal/api/auth"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/engine"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the khaki web server",
	Long:  `Start the khaki web server that serves the calendars and the admin views.`,
	Example: `khaki serve --config config.yml
khaki serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := auth.SeedAdmin(ctx, cfg, db); err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}

	engine, err := engine.New(cfg, db)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	server, err := api.New(ctx, cfg, db, engine, log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	go func() {
		if err := engine.Run(ctx); err != nil {
			log.Error("engine error", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("khaki started successfully", "from", engine.Period().Full.Start, "to", engine.Period().Full.End)
	select {
	case <-c:
		log.Info("shutting down gracefully...")
	case err := <-errCh:
		if err != nil {
			log.Error("API server error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down API server", "error", err)
	}
	cancel()
	if err := engine.Close(shutdownCtx); err != nil {
		log.Error("failed to stop engine", "error", err)
	}
}
