package storage

import (
	"errors"
	"io/fs"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

const stagedPrefix = ".deleting-"

// Removal deletes stored files together with the rows that point at them.
// Stage moves the files aside while the rows are still being deleted; after
// the rows are gone Commit removes the staged copies, otherwise Restore puts
// every staged file back under its old name.
type Removal struct {
	store    domain.FileStore
	segments []string
	staged   []string
	log      *logrus.Logger
}

func NewRemoval(store domain.FileStore, logger *logrus.Logger, segments ...string) *Removal {
	return &Removal{
		store:    store,
		segments: segments,
		log:      logger,
	}
}

func stagedName(name string) string {
	return stagedPrefix + name
}

// Stage moves each named file aside. Files already absent are skipped.
// On error the files staged so far stay staged until Restore is called.
func (r *Removal) Stage(names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := r.store.MoveFile(name, stagedName(name), r.segments...); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				r.log.Debugf("Storage: File %s already absent, nothing to stage", name)
				continue
			}
			return err
		}
		r.staged = append(r.staged, name)
	}
	return nil
}

func (r *Removal) Staged() []string {
	return r.staged
}

// Commit deletes the staged files. A failure leaves an unreferenced file behind and is only logged.
func (r *Removal) Commit() {
	for _, name := range r.staged {
		if err := r.store.DeleteFile(stagedName(name), r.segments...); err != nil {
			r.log.Warnf("Storage: Failed to delete staged file %s: %v", stagedName(name), err)
		}
	}
	r.staged = nil
}

func (r *Removal) Restore() {
	for i := len(r.staged) - 1; i >= 0; i-- {
		name := r.staged[i]
		if err := r.store.MoveFile(stagedName(name), name, r.segments...); err != nil {
			r.log.Errorf("Storage: Failed to restore file %s: %v", name, err)
		}
	}
	r.staged = nil
}
