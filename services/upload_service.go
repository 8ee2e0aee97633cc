package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/pkg/storage"
)

// UploadService stores message attachments. The returned Attachment is what
// clients put in the attachments list of a new message.
type UploadService interface {
	Upload(ctx context.Context, userID string, file io.Reader, header *multipart.FileHeader) (*models.Attachment, error)
}

type uploadService struct {
	store   storage.Store
	maxSize int64
}

// NewUploadService creates the upload service. maxSize is in bytes.
func NewUploadService(store storage.Store, maxSize int64) UploadService {
	return &uploadService{store: store, maxSize: maxSize}
}

// allowedMimeTypes lists the accepted attachment types.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/webm":      true,
	"audio/mpeg":      true,
	"audio/ogg":       true,
	"application/pdf": true,
	"text/plain":      true,
	// lease paperwork
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

func (s *uploadService) Upload(ctx context.Context, userID string, file io.Reader, header *multipart.FileHeader) (*models.Attachment, error) {
	if header.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// drop parameters such as charset
	mimeBase := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if !allowedMimeTypes[mimeBase] {
		return nil, fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, mimeBase)
	}

	// {random_hex}_{original_filename}
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random filename: %w", err)
	}
	safeFilename := sanitizeFilename(header.Filename)
	objectName := hex.EncodeToString(randomBytes) + "_" + safeFilename

	url, err := s.store.Put(ctx, objectName, io.LimitReader(file, s.maxSize+1), header.Size, mimeBase)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment for %s: %w", userID, err)
	}

	return &models.Attachment{
		Name: safeFilename,
		URL:  url,
		Type: mimeBase,
		Size: header.Size,
	}, nil
}

// sanitizeFilename keeps the base name and strips path separators, so a
// name like ../../etc/passwd cannot escape the upload directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)

	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	return name
}
