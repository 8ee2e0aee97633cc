package handlers

import (
	"net/http"

	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/services"
)

// multipartOverhead leaves room for form boundaries and headers around the file.
const multipartOverhead = 1 << 20

// UploadHandler accepts attachment uploads.
type UploadHandler struct {
	uploadService services.UploadService
	maxUploadSize int64
}

// NewUploadHandler creates the handler. maxUploadSize is in bytes.
func NewUploadHandler(uploadService services.UploadService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxUploadSize: maxUploadSize}
}

// Upload godoc
// POST /api/attachments
// Content-Type: multipart/form-data, field "file"
//
// The response is the attachment descriptor to send with the next message.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	attachment, err := h.uploadService.Upload(r.Context(), user.ID, file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, attachment)
}
