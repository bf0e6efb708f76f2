package domain

import (
	"context"
	"io"
)

// FileSize is a multiplier turning a size in some unit into bytes.
type FileSize int64

const (
	Byte FileSize = 1
	KB            = 1024 * Byte
	MB            = 1024 * KB
	GB            = 1024 * MB
)

// Upload is a file received with a form submission.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type FileStore interface {
	CreateFile(ctx context.Context, upload *Upload, segments ...string) (string, error)
	DeleteFile(relativePath string, segments ...string) error
	// MoveFile renames a stored file within the same directory. A missing
	// source is reported with an error matching fs.ErrNotExist.
	MoveFile(from, to string, segments ...string) error
}
