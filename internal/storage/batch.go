package storage

import (
	"context"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

// Batch tracks the files written while handling one request. Unless Keep is
// called, Discard removes them again, so a failed request leaves no uploads behind.
type Batch struct {
	store    domain.FileStore
	segments []string
	created  []string
	kept     bool
	log      *logrus.Logger
}

func NewBatch(store domain.FileStore, logger *logrus.Logger, segments ...string) *Batch {
	return &Batch{
		store:    store,
		segments: segments,
		log:      logger,
	}
}

func (b *Batch) Create(ctx context.Context, upload *domain.Upload) (string, error) {
	name, err := b.store.CreateFile(ctx, upload, b.segments...)
	if err != nil {
		return "", err
	}
	b.created = append(b.created, name)
	return name, nil
}

func (b *Batch) Created() []string {
	return b.created
}

func (b *Batch) Keep() {
	b.kept = true
}

func (b *Batch) Discard() {
	if b.kept {
		return
	}
	for _, name := range b.created {
		if err := b.store.DeleteFile(name, b.segments...); err != nil {
			b.log.Warnf("Storage: Failed to clean up file %s after failed request: %v", name, err)
		}
	}
	b.created = nil
}
