package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/casapps/cassupply/src/internal/backup"
	"github.com/casapps/cassupply/src/internal/config"
	"github.com/casapps/cassupply/src/internal/database"
	"github.com/casapps/cassupply/src/internal/database/models"
	"github.com/casapps/cassupply/src/internal/logger"
	"github.com/casapps/cassupply/src/internal/server"
	"github.com/casapps/cassupply/src/internal/snapshot"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cassupply",
	Short: "Supplier management backend with backup and restore",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and the auto-backup scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create one manual backup and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackup()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cassupply v%s\n", Version)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.GetString("log.level"), cfg.GetBool("debug"))
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Initialize(cfg)
	if err != nil {
		return err
	}
	if err := database.MigrateDB(db); err != nil {
		return err
	}

	srv, err := server.New(cfg, db, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func runBackup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.GetString("log.level"), cfg.GetBool("debug"))
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Initialize(cfg)
	if err != nil {
		return err
	}
	if err := database.MigrateDB(db); err != nil {
		return err
	}

	codec := snapshot.NewCodec(db, snapshot.DefaultRegistry())
	store, err := backup.NewStore(db, config.BackupDir(cfg), log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	doc, err := codec.Encode(ctx)
	if err != nil {
		return err
	}
	record, err := store.Create(ctx, doc, models.BackupSourceManual, "cli")
	if err != nil {
		return err
	}

	fmt.Printf("created backup %s (%s)\n", record.ID, record.HumanReadableSize())
	return nil
}
