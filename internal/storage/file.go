package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"catalog_service/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImageSegments is the directory below the web root holding product images.
var ImageSegments = []string{"assets", "images", "website-images"}

func ValidateType(upload *domain.Upload, expectedPrefix string) bool {
	return upload != nil && strings.HasPrefix(upload.ContentType, expectedPrefix)
}

func ValidateSize(upload *domain.Upload, unit domain.FileSize, maxValue int64) bool {
	return upload != nil && upload.Size <= maxValue*int64(unit)
}

// ValidateContent sniffs the uploaded bytes instead of trusting the declared content type.
func ValidateContent(upload *domain.Upload, expectedPrefix string) (bool, error) {
	src, err := upload.Open()
	if err != nil {
		return false, fmt.Errorf("could not open upload %s: %w", upload.Filename, err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return false, fmt.Errorf("could not detect content type of %s: %w", upload.Filename, err)
	}
	return strings.HasPrefix(mtype.String(), expectedPrefix), nil
}

func FromMultipart(field string, fh *multipart.FileHeader) *domain.Upload {
	if fh == nil {
		return nil
	}
	return &domain.Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

type LocalStore struct {
	webRoot string
	log     *logrus.Logger
}

func NewLocalStore(webRoot string, logger *logrus.Logger) *LocalStore {
	return &LocalStore{
		webRoot: webRoot,
		log:     logger,
	}
}

func (s *LocalStore) dir(segments []string) string {
	return filepath.Join(append([]string{s.webRoot}, segments...)...)
}

// CreateFile writes the upload under webRoot/segments with a fresh unique
// name that keeps the original extension, and returns that name.
func (s *LocalStore) CreateFile(ctx context.Context, upload *domain.Upload, segments ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := s.dir(segments)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Errorf("Storage: Failed to create directory %s: %v", dir, err)
		return "", &domain.StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	name := uuid.NewString() + filepath.Ext(upload.Filename)
	path := filepath.Join(dir, name)

	src, err := upload.Open()
	if err != nil {
		s.log.Errorf("Storage: Failed to open upload %s: %v", upload.Filename, err)
		return "", &domain.StorageError{Op: "open", Path: upload.Filename, Err: err}
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.log.Errorf("Storage: Failed to create file %s: %v", path, err)
		return "", &domain.StorageError{Op: "create", Path: path, Err: err}
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		s.log.Errorf("Storage: Failed to write file %s: %v", path, err)
		return "", &domain.StorageError{Op: "write", Path: path, Err: err}
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", &domain.StorageError{Op: "close", Path: path, Err: err}
	}

	s.log.Infof("Storage: Stored upload %s as %s", upload.Filename, path)
	return name, nil
}

func checkName(op, name string) error {
	if filepath.Base(name) != name || name == ".." {
		return &domain.StorageError{Op: op, Path: name, Err: errors.New("path escapes image directory")}
	}
	return nil
}

// MoveFile renames a file created by CreateFile inside its directory.
func (s *LocalStore) MoveFile(from, to string, segments ...string) error {
	if err := checkName("move", from); err != nil {
		return err
	}
	if err := checkName("move", to); err != nil {
		return err
	}

	dir := s.dir(segments)
	if err := os.Rename(filepath.Join(dir, from), filepath.Join(dir, to)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Errorf("Storage: Failed to move file %s to %s: %v", from, to, err)
		}
		return &domain.StorageError{Op: "move", Path: filepath.Join(dir, from), Err: err}
	}
	s.log.Debugf("Storage: Moved file %s to %s in %s", from, to, dir)
	return nil
}

// DeleteFile removes a file created by CreateFile. A missing file is not an error.
func (s *LocalStore) DeleteFile(relativePath string, segments ...string) error {
	if relativePath == "" {
		return nil
	}
	if err := checkName("delete", relativePath); err != nil {
		return err
	}

	path := filepath.Join(s.dir(segments), relativePath)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debugf("Storage: File %s already absent", path)
			return nil
		}
		s.log.Errorf("Storage: Failed to delete file %s: %v", path, err)
		return &domain.StorageError{Op: "delete", Path: path, Err: err}
	}
	s.log.Infof("Storage: Deleted file %s", path)
	return nil
}
