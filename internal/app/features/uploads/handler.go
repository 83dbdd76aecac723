// internal/app/features/uploads/handler.go
// The uploads feature accepts file attachments for comments and messages.
// Clients upload first, then reference the returned URL in the comment or
// message body they create.
package uploads

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/teamline/internal/app/features/shared"
	"github.com/dalemusser/teamline/internal/app/system/apperrors"
	"github.com/dalemusser/teamline/internal/app/system/filestore"
	"github.com/dalemusser/teamline/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadBytes = 16 << 20

// Handler owns the upload endpoint.
type Handler struct {
	Storage filestore.Store
	Log     *zap.Logger
}

// NewHandler creates a new uploads Handler.
func NewHandler(store filestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Storage: store, Log: logger}
}

type uploadResponse struct {
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// ServeUpload handles POST /uploads. Multipart form with a "file" field.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	if h.Storage == nil {
		shared.RespondError(w, apperrors.NewData("file storage is not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondError(w, apperrors.NewData("invalid or oversized upload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil || header == nil || header.Size == 0 {
		shared.RespondError(w, apperrors.NewData("file field is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	key := storagePath(header.Filename)
	if err := h.Storage.Put(ctx, key, file, &filestore.PutOptions{ContentType: contentType}); err != nil {
		h.Log.Error("uploads: store failed", zap.String("path", key), zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	shared.RespondJSON(w, http.StatusCreated, uploadResponse{
		URL:         h.Storage.URL(key),
		FileName:    header.Filename,
		Size:        header.Size,
		ContentType: contentType,
	})
}

// storagePath builds a unique key: attachments/YYYY/MM/uuid-filename.
func storagePath(filename string) string {
	now := time.Now().UTC()
	dateDir := fmt.Sprintf("attachments/%04d/%02d", now.Year(), now.Month())
	unique := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(filename))
	return dateDir + "/" + unique
}

// sanitizeFilename strips path components and characters unsafe in keys.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return strings.ToLower(string(result))
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
