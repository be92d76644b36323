// Package files serves stored driver documents through HMAC-signed links.
package files

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"RideDesk/entity"
	"RideDesk/internal/lib/api/response"
	"RideDesk/internal/lib/fileurl"
	"RideDesk/internal/lib/sl"
)

type Core interface {
	DownloadDocument(ctx context.Context, fileID string) (string, entity.FileMetadata, io.ReadCloser, error)
}

// Download streams a stored document after verifying the URL signature.
func Download(log *slog.Logger, handler Core, signSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.files"))

		fileID := chi.URLParam(r, "id")
		expires := r.URL.Query().Get("expires")
		sig := r.URL.Query().Get("sig")

		if !fileurl.Verify(fileID, expires, sig, signSecret) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Link invalid or expired"))
			return
		}

		filename, meta, reader, err := handler.DownloadDocument(r.Context(), fileID)
		if err != nil {
			logger.Warn("download document", slog.String("file_id", fileID), sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Document not found"))
			return
		}
		defer reader.Close()

		if meta.MIMEType != "" {
			w.Header().Set("Content-Type", meta.MIMEType)
		}
		w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
		if _, err := io.Copy(w, reader); err != nil {
			logger.Warn("stream document", slog.String("file_id", fileID), sl.Err(err))
		}
	}
}
