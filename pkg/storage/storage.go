package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// StoredFile describes an uploaded file. Path is what clients use to fetch it.
type StoredFile struct {
	Filename string
	Path     string
}

// FileStorage is the attachment store (local disk or Cloudinary).
type FileStorage interface {
	Save(ctx context.Context, r io.Reader, folder, fileName string) (*StoredFile, error)
	Delete(ctx context.Context, path string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// storedName mirrors the upload naming used by the web client: <unix-ms>-<original>.
func storedName(now time.Time, original string) string {
	base := filepath.Base(original)
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}

// AllowedContentType accepts images and PDFs.
func AllowedContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || contentType == "application/pdf"
}
