package upload

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
)

type UploadHTTP struct {
	Store *Storage
}

func (h *UploadHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload.create")

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn("upload_error", "status", 400, "reason", "no file", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
	}
	if fh.Size > MaxBytes {
		l.Warn("upload_error", "status", 413, "size", fh.Size)
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	src, err := fh.Open()
	if err != nil {
		l.Error("upload_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
	}
	defer src.Close()

	res, err := h.Store.Save(ctx, fh.Filename, src)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidFile):
		l.Warn("upload_error", "status", 400, "name", fh.Filename, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is not a supported image")
	case errors.Is(err, ErrTooLarge):
		l.Warn("upload_error", "status", 413, "name", fh.Filename)
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	default:
		l.Error("upload_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "upload failed")
	}

	l.Info("upload_saved", "file_id", res.FileID)
	return httpx.OK(c, http.StatusOK, res)
}

func (h *UploadHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload.delete")

	fileID := c.Param("fileId")
	if err := h.Store.Remove(ctx, fileID); err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("upload_delete_error", "status", 404, "file_id", fileID)
			return echo.NewHTTPError(http.StatusNotFound, "file not found")
		}
		l.Error("upload_delete_error", "status", 500, "file_id", fileID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete file")
	}
	return httpx.Message(c, http.StatusOK, "file deleted successfully")
}
