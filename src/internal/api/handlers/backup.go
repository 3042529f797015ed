package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/casapps/cassupply/src/internal/backup"
	"github.com/casapps/cassupply/src/internal/snapshot"
)

// maxUploadBytes bounds an uploaded snapshot document.
const maxUploadBytes = 256 << 20

// BackupHandler exposes the backup and restore maintenance surface.
// Authentication is handled upstream; these handlers only consume the
// admin identity already placed in the request context.
type BackupHandler struct {
	store     *backup.Store
	restorer  *backup.Restorer
	scheduler *backup.Scheduler
	codec     *snapshot.Codec
	log       *zap.Logger
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(store *backup.Store, restorer *backup.Restorer, scheduler *backup.Scheduler, codec *snapshot.Codec, log *zap.Logger) *BackupHandler {
	return &BackupHandler{
		store:     store,
		restorer:  restorer,
		scheduler: scheduler,
		codec:     codec,
		log:       log,
	}
}

// CreateBackup creates a manual backup of the full datastore
func (h *BackupHandler) CreateBackup(c echo.Context) error {
	record, err := h.scheduler.TriggerNow(c.Request().Context(), adminIdentity(c))
	if err != nil {
		h.log.Error("manual backup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Backup creation failed")
	}
	return c.JSON(http.StatusCreated, record)
}

// TriggerBackup performs an immediate backup without altering the schedule
func (h *BackupHandler) TriggerBackup(c echo.Context) error {
	return h.CreateBackup(c)
}

// ListBackups returns the paginated backup history, newest first
func (h *BackupHandler) ListBackups(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	page, pageSize = backup.NormalizePage(page, pageSize)

	backups, total, err := h.store.List(page, pageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list backups")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"backups":   backups,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// DownloadBackup streams a stored snapshot document for download
func (h *BackupHandler) DownloadBackup(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Backup not found")
	}

	record, err := h.store.Get(id)
	if err != nil {
		return backupHTTPError(err)
	}
	raw, err := h.store.Fetch(id)
	if err != nil {
		return backupHTTPError(err)
	}

	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", record.Filename))
	return c.Blob(http.StatusOK, "application/json", raw)
}

// DeleteBackup deletes a backup record and its artifact
func (h *BackupHandler) DeleteBackup(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Backup not found")
	}
	if err := h.store.Delete(id); err != nil {
		return backupHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAutoBackupSettings returns the scheduled backup configuration
func (h *BackupHandler) GetAutoBackupSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Settings())
}

// autoBackupRequest is the settings update payload
type autoBackupRequest struct {
	Enabled       bool   `json:"enabled"`
	IntervalValue int    `json:"interval_value" validate:"min=1"`
	IntervalUnit  string `json:"interval_unit" validate:"oneof=hours days weeks"`
}

// UpdateAutoBackupSettings validates and applies a schedule change
func (h *BackupHandler) UpdateAutoBackupSettings(c echo.Context) error {
	var req autoBackupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	setting, err := h.scheduler.UpdateSettings(req.Enabled, req.IntervalValue, req.IntervalUnit)
	if err != nil {
		if errors.Is(err, backup.ErrInvalidSettings) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update settings")
	}
	return c.JSON(http.StatusOK, setting)
}

// RestoreBackup replaces all live data with an uploaded snapshot document.
// The confirmation flag is checked before the upload is even parsed.
func (h *BackupHandler) RestoreBackup(c echo.Context) error {
	if c.FormValue("confirmed") != "true" {
		return echo.NewHTTPError(http.StatusPreconditionRequired,
			"Restore requires explicit confirmation")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Snapshot file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Snapshot file too large")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Snapshot file is unreadable")
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Snapshot file is unreadable")
	}

	doc, err := h.codec.Decode(raw)
	if err != nil {
		return backupHTTPError(err)
	}

	h.log.Warn("restore requested",
		zap.String("requested_by", adminIdentity(c)),
		zap.Time("snapshot_generated_at", doc.GeneratedAt))

	report, err := h.restorer.Restore(c.Request().Context(), doc)
	if err != nil {
		return backupHTTPError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// RegisterRoutes registers backup routes
func (h *BackupHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/backups", h.ListBackups)
	g.POST("/backups", h.CreateBackup)
	g.POST("/backups/trigger", h.TriggerBackup)
	g.GET("/backups/settings", h.GetAutoBackupSettings)
	g.PUT("/backups/settings", h.UpdateAutoBackupSettings)
	g.POST("/backups/restore", h.RestoreBackup)
	g.GET("/backups/:id/download", h.DownloadBackup)
	g.DELETE("/backups/:id", h.DeleteBackup)
}

// backupHTTPError maps domain failures onto HTTP statuses.
func backupHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, backup.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Backup not found")
	case errors.Is(err, snapshot.ErrMalformedDocument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, snapshot.ErrUnsupportedVersion):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, backup.ErrValidationFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, backup.ErrInvalidSettings):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Storage failure")
	}
}

// adminIdentity returns the acting administrator set by the auth layer.
func adminIdentity(c echo.Context) string {
	if who, ok := c.Get("admin_user").(string); ok && who != "" {
		return who
	}
	return "admin"
}
