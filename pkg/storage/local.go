package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type localStorage struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

// NewLocalStorage stores files under dir; they are served at urlPrefix.
func NewLocalStorage(dir, urlPrefix string) (FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localStorage{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		now:       time.Now,
	}, nil
}

func (s *localStorage) Save(ctx context.Context, r io.Reader, folder, fileName string) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	targetDir := filepath.Join(s.dir, filepath.Clean("/"+folder))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	name := storedName(s.now(), fileName)
	f, err := os.OpenFile(filepath.Join(targetDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return &StoredFile{
		Filename: name,
		Path:     path.Join(s.urlPrefix, path.Clean("/"+folder), name),
	}, nil
}

func (s *localStorage) Delete(ctx context.Context, p string) error {
	rel := strings.TrimPrefix(p, s.urlPrefix)
	full := filepath.Join(s.dir, filepath.Clean("/"+rel))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
