package usecase_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sync"

	"catalog_service/internal/domain"
)

type fakeLookupRepo struct {
	rows map[domain.LookupKind][]domain.Lookup
}

func newFakeLookupRepo() *fakeLookupRepo {
	return &fakeLookupRepo{rows: map[domain.LookupKind][]domain.Lookup{
		domain.LookupCategory: {{ID: 1, Name: "Plants"}, {ID: 2, Name: "Pots"}, {ID: 9, Name: "Retired", IsDeleted: true}},
		domain.LookupTag:      {{ID: 1, Name: "indoor"}, {ID: 2, Name: "outdoor"}, {ID: 3, Name: "sale"}, {ID: 8, Name: "old", IsDeleted: true}},
		domain.LookupColor:    {{ID: 1, Name: "green"}, {ID: 2, Name: "red"}},
		domain.LookupSize:     {{ID: 1, Name: "S"}, {ID: 2, Name: "M"}},
	}}
}

func (r *fakeLookupRepo) ListActive(_ context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	active := []domain.Lookup{}
	for _, row := range r.rows[kind] {
		if !row.IsDeleted {
			active = append(active, row)
		}
	}
	return active, nil
}

func (r *fakeLookupRepo) ExistsActive(_ context.Context, kind domain.LookupKind, id int) (bool, error) {
	for _, row := range r.rows[kind] {
		if row.ID == id && !row.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLookupRepo) softDelete(kind domain.LookupKind, id int) {
	for i := range r.rows[kind] {
		if r.rows[kind][i].ID == id {
			r.rows[kind][i].IsDeleted = true
		}
	}
}

type fakeProductRepo struct {
	mu          sync.Mutex
	products    map[int]*domain.Product
	categories  map[int]string
	nextID      int
	nextImageID int
	nextJoinID  int
	failWrites  error
	failCommit  error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:   map[int]*domain.Product{},
		categories: map[int]string{1: "Plants", 2: "Pots", 9: "Retired"},
	}
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Images = append([]domain.ProductImage(nil), p.Images...)
	c.Tags = append([]domain.Association(nil), p.Tags...)
	c.Colors = append([]domain.Association(nil), p.Colors...)
	c.Sizes = append([]domain.Association(nil), p.Sizes...)
	return &c
}

func (r *fakeProductRepo) assignIDs(p *domain.Product) {
	for i := range p.Images {
		if p.Images[i].ID == 0 {
			r.nextImageID++
			p.Images[i].ID = r.nextImageID
			p.Images[i].ProductID = p.ID
		}
	}
	for _, rows := range [][]domain.Association{p.Tags, p.Colors, p.Sizes} {
		for i := range rows {
			if rows[i].ID == 0 {
				r.nextJoinID++
				rows[i].ID = r.nextJoinID
				rows[i].ProductID = p.ID
			}
		}
	}
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return nil, r.failWrites
	}
	r.nextID++
	product.ID = r.nextID
	r.assignIDs(product)
	r.products[product.ID] = cloneProduct(product)
	return product, nil
}

func (r *fakeProductRepo) GetActiveProduct(_ context.Context, id int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.IsDeleted {
		return nil, &domain.NotFoundError{Entity: "product", ID: id}
	}
	return cloneProduct(p), nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, update *domain.ProductUpdate, beforeCommit func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return r.failWrites
	}
	stored, ok := r.products[update.Product.ID]
	if !ok || stored.IsDeleted {
		return &domain.NotFoundError{Entity: "product", ID: update.Product.ID}
	}

	next := cloneProduct(stored)
	next.Name = update.Product.Name
	next.SKU = update.Product.SKU
	next.Description = update.Product.Description
	next.Price = update.Product.Price
	next.CategoryID = update.Product.CategoryID

	removed := map[int]bool{}
	for _, id := range update.RemoveImageIDs {
		removed[id] = true
	}
	images := []domain.ProductImage{}
	for _, image := range next.Images {
		if !removed[image.ID] {
			images = append(images, image)
		}
	}
	next.Images = append(images, update.AddImages...)

	apply := func(rows []domain.Association, change domain.AssociationChange) []domain.Association {
		drop := map[int]bool{}
		for _, id := range change.RemoveLookupIDs {
			drop[id] = true
		}
		kept := []domain.Association{}
		for _, row := range rows {
			if !drop[row.LookupID] {
				kept = append(kept, row)
			}
		}
		for _, id := range change.AddLookupIDs {
			for _, row := range kept {
				if row.LookupID == id {
					panic(fmt.Sprintf("duplicate association for lookup %d", id))
				}
			}
			kept = append(kept, domain.Association{LookupID: id})
		}
		return kept
	}
	next.Tags = apply(next.Tags, update.Associations[domain.LookupTag])
	next.Colors = apply(next.Colors, update.Associations[domain.LookupColor])
	next.Sizes = apply(next.Sizes, update.Associations[domain.LookupSize])

	if beforeCommit != nil {
		if err := beforeCommit(); err != nil {
			return err
		}
	}
	if r.failCommit != nil {
		return r.failCommit
	}
	r.assignIDs(next)
	r.products[next.ID] = next
	return nil
}

func (r *fakeProductRepo) SoftDeleteProduct(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.IsDeleted {
		return &domain.NotFoundError{Entity: "product", ID: id}
	}
	p.IsDeleted = true
	return nil
}

func (r *fakeProductRepo) ListProducts(_ context.Context, primaryImageOnly bool) ([]domain.ProductListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []domain.ProductListItem{}
	for id := 1; id <= r.nextID; id++ {
		p, ok := r.products[id]
		if !ok || p.IsDeleted {
			continue
		}
		item := domain.ProductListItem{ID: p.ID, Name: p.Name, Price: p.Price, CategoryName: r.categories[p.CategoryID]}
		for _, image := range p.Images {
			if !primaryImageOnly || image.Kind == domain.ImageMain {
				item.Image = image.ImageURL
				break
			}
		}
		items = append(items, item)
	}
	return items, nil
}

type fakeFileStore struct {
	mu         sync.Mutex
	files      map[string][]byte
	counter    int
	failCreate error
	failDelete map[string]error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string][]byte{}}
}

func (s *fakeFileStore) CreateFile(_ context.Context, upload *domain.Upload, _ ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return "", &domain.StorageError{Op: "create", Path: upload.Filename, Err: s.failCreate}
	}
	src, err := upload.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	s.counter++
	name := fmt.Sprintf("stored-%d%s", s.counter, filepath.Ext(upload.Filename))
	s.files[name] = data
	return name, nil
}

func (s *fakeFileStore) DeleteFile(relativePath string, _ ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failDelete[relativePath]; ok {
		return &domain.StorageError{Op: "delete", Path: relativePath, Err: err}
	}
	delete(s.files, relativePath)
	return nil
}

// MoveFile fails for names listed in failDelete, since moving aside is the first step of deleting.
func (s *fakeFileStore) MoveFile(from, to string, _ ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failDelete[from]; ok {
		return &domain.StorageError{Op: "move", Path: from, Err: err}
	}
	data, ok := s.files[from]
	if !ok {
		return &domain.StorageError{Op: "move", Path: from, Err: fs.ErrNotExist}
	}
	delete(s.files, from)
	s.files[to] = data
	return nil
}

func (s *fakeFileStore) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok
}

func (s *fakeFileStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

func newUpload(field, filename, contentType string, size int64) *domain.Upload {
	data := []byte("fake image bytes for " + filename)
	return &domain.Upload{
		Field:       field,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
