package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrOutsideBaseDir = errors.New("path escapes storage directory")

// FileStorage is the blob store used for uploaded images and logos.
// Paths are relative to the storage root and use forward slashes.
type FileStorage interface {
	Put(ctx context.Context, relPath string, r io.Reader) (int64, error)
	Save(ctx context.Context, file *multipart.FileHeader, subPath, name string) (filePath string, fileSize int64, err error)
	Delete(ctx context.Context, relPath string) error
	URL(relPath string) string
	PathFromURL(url string) (string, bool)
}

// LocalFileStorage keeps files on the local disk under baseDir and serves
// them from baseURL.
type LocalFileStorage struct {
	baseDir string
	baseURL string
}

func NewLocalFileStorage(baseDir, baseURL string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalFileStorage) resolve(relPath string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(relPath))
	if clean == "/" {
		return "", ErrOutsideBaseDir
	}

	full := filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	rel, err := filepath.Rel(s.baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideBaseDir
	}

	return full, nil
}

// Put writes r to relPath, creating parent directories. A partial file is
// removed when the copy fails or ctx is cancelled.
func (s *LocalFileStorage) Put(ctx context.Context, relPath string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fullPath, err := s.resolve(relPath)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directories: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	done := make(chan struct{})
	var size int64
	var copyErr error

	go func() {
		size, copyErr = io.Copy(dst, r)
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			_ = os.Remove(fullPath)
			return 0, fmt.Errorf("failed to copy file: %w", copyErr)
		}
	case <-ctx.Done():
		<-done
		_ = os.Remove(fullPath)
		return 0, ctx.Err()
	}

	return size, nil
}

// Save stores a multipart upload under subPath. An empty name keeps the
// client file name.
func (s *LocalFileStorage) Save(ctx context.Context, file *multipart.FileHeader, subPath, name string) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	if name == "" {
		name = filepath.Base(file.Filename)
	}
	relPath := path.Join(filepath.ToSlash(subPath), name)

	src, err := file.Open()
	if err != nil {
		return "", 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	size, err := s.Put(ctx, relPath, src)
	if err != nil {
		return "", 0, err
	}

	return relPath, size, nil
}

// Delete removes a stored file. A file that is already gone is not an error.
func (s *LocalFileStorage) Delete(ctx context.Context, relPath string) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func (s *LocalFileStorage) URL(relPath string) string {
	return s.baseURL + "/" + strings.TrimPrefix(filepath.ToSlash(relPath), "/")
}

// PathFromURL maps a public URL back to a storage path. URLs served from
// elsewhere report false.
func (s *LocalFileStorage) PathFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}

	rel := strings.TrimPrefix(url, prefix)
	if rel == "" {
		return "", false
	}

	return rel, true
}

func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(relativePath))
}

func (s *LocalFileStorage) BaseURL() string {
	return s.baseURL
}

func (s *LocalFileStorage) GetBaseDir() string {
	return s.baseDir
}
