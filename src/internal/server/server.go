package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/backup"
	"github.com/casapps/cassupply/src/internal/config"
	"github.com/casapps/cassupply/src/internal/snapshot"
)

// Server represents the main application server
type Server struct {
	echo      *echo.Echo
	config    *viper.Viper
	db        *gorm.DB
	log       *zap.Logger
	store     *backup.Store
	restorer  *backup.Restorer
	scheduler *backup.Scheduler
	codec     *snapshot.Codec
	startTime time.Time
}

// New creates a new server instance with all maintenance components wired.
func New(cfg *viper.Viper, db *gorm.DB, log *zap.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewEchoValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	codec := snapshot.NewCodec(db, snapshot.DefaultRegistry())

	store, err := backup.NewStore(db, config.BackupDir(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("initialize backup store: %w", err)
	}

	restorer := backup.NewRestorer(db, codec, store,
		cfg.GetBool("backup.strict_collections"), log)
	scheduler := backup.NewScheduler(db, store, codec, log)

	s := &Server{
		echo:      e,
		config:    cfg,
		db:        db,
		log:       log,
		store:     store,
		restorer:  restorer,
		scheduler: scheduler,
		codec:     codec,
		startTime: time.Now(),
	}
	s.setupRoutes()
	return s, nil
}

// Start begins serving requests and arms the auto-backup scheduler.
func (s *Server) Start(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.GetString("server.host"), s.config.GetInt("server.port"))
	s.log.Info("server starting", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops the scheduler and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	return s.echo.Shutdown(ctx)
}

// Scheduler exposes the auto-backup scheduler, for the CLI backup command.
func (s *Server) Scheduler() *backup.Scheduler {
	return s.scheduler
}
