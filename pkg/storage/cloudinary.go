package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type cloudinaryStorage struct {
	cld        *cloudinary.Cloudinary
	rootFolder string
}

// NewCloudinaryStorage creates a Cloudinary-backed FileStorage.
// It expects CLOUDINARY_URL or individual CLOUDINARY_CLOUD_NAME / CLOUDINARY_API_KEY / CLOUDINARY_API_SECRET
// to be configured in environment variables (see Cloudinary Go SDK docs).
func NewCloudinaryStorage(rootFolder string) (FileStorage, error) {
	// cloudinary.New() automatically reads CLOUDINARY_URL from environment if present.
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	// Ensure HTTPS URLs by default.
	cld.Config.URL.Secure = true

	// Optional: allow overriding cloud name via env if needed.
	if cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME"); cloudName != "" {
		cld.Config.Cloud.CloudName = cloudName
	}

	return &cloudinaryStorage{cld: cld, rootFolder: rootFolder}, nil
}

// Save uploads a file to Cloudinary; Path is the secure URL.
func (s *cloudinaryStorage) Save(ctx context.Context, r io.Reader, folder, fileName string) (*StoredFile, error) {
	if s == nil || s.cld == nil {
		return nil, fmt.Errorf("cloudinary storage is not initialized")
	}

	name := storedName(time.Now(), fileName)
	publicID := strings.TrimSuffix(name, filepath.Ext(name))

	params := uploader.UploadParams{
		Folder:       path.Join(s.rootFolder, folder),
		PublicID:     publicID,
		Overwrite:    api.Bool(false),
		ResourceType: "auto",
	}

	// Compress images only; PDFs keep their original bytes.
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif", ".webp":
		params.Transformation = "q_auto"
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to cloudinary: %w", err)
	}

	if resp.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}

	return &StoredFile{Filename: name, Path: resp.SecureURL}, nil
}

// Delete removes a file from Cloudinary using its URL.
func (s *cloudinaryStorage) Delete(ctx context.Context, fileURL string) error {
	if s == nil || s.cld == nil {
		return fmt.Errorf("cloudinary storage is not initialized")
	}

	publicID := s.extractPublicID(fileURL)
	if publicID == "" {
		// If we can't extract public ID, we can't delete it.
		// We could return error, but maybe just log it. Returns error for now.
		return fmt.Errorf("could not extract public ID from URL: %s", fileURL)
	}

	// Invalidate: true helps to clear CDN cache
	params := uploader.DestroyParams{
		PublicID:     publicID,
		Invalidate:   api.Bool(true),
		ResourceType: resourceType(fileURL),
	}

	resp, err := s.cld.Upload.Destroy(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to delete file from cloudinary: %w", err)
	}

	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}

	return nil
}

// extractPublicID attempts to extract the public ID from a Cloudinary URL.
// Example: https://res.cloudinary.com/demo/image/upload/v123456789/folder/sample.jpg -> folder/sample
func (s *cloudinaryStorage) extractPublicID(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}

	// Path is roughly /<cloud_name>/image/upload/v<version>/<folder>/<file>.<ext>
	// or /<cloud_name>/image/upload/<folder>/<file>.<ext>
	parts := strings.Split(u.Path, "/")
	uploadIndex := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIndex = i
			break
		}
	}

	if uploadIndex == -1 || uploadIndex+1 >= len(parts) {
		return ""
	}

	// Everything after "upload" is potential [version/]public_id.ext
	relevantParts := parts[uploadIndex+1:]

	// Check if the first part is a version (starts with 'v' and is numeric)
	// Cloudinary versions start with 'v' followed by numbers.
	if len(relevantParts) > 0 && strings.HasPrefix(relevantParts[0], "v") {
		// weak check, but okay for cloudinary
		relevantParts = relevantParts[1:] // skip version
	}

	if len(relevantParts) == 0 {
		return ""
	}

	// Join the rest back to get folder/filename.ext
	publicIDWithExt := strings.Join(relevantParts, "/")

	// Strip extension
	ext := filepath.Ext(publicIDWithExt)
	return strings.TrimSuffix(publicIDWithExt, ext)
}

// resourceType reads the image/raw/video segment that precedes "upload".
func resourceType(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "image"
	}
	parts := strings.Split(u.Path, "/")
	for i, p := range parts {
		if p == "upload" && i > 0 {
			return parts[i-1]
		}
	}
	return "image"
}
