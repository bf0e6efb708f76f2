package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog_service/internal/domain"
	"catalog_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const imagePrefix = "image/"

var ErrInvalidProductID = errors.New("invalid product ID")

var associationKinds = []domain.LookupKind{domain.LookupTag, domain.LookupColor, domain.LookupSize}

type ProductUseCase interface {
	CreateForm(ctx context.Context) (*domain.FormLookups, error)
	CreateProduct(ctx context.Context, form *domain.ProductForm) (*Outcome, error)
	UpdateForm(ctx context.Context, id int) (*UpdateFormView, error)
	UpdateProduct(ctx context.Context, id int, form *domain.ProductForm) (*Outcome, error)
	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context) ([]domain.ProductListItem, error)
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
}

type ProductOptions struct {
	MaxPhotoSizeMB int64
	SniffContent   bool
	// PrimaryImageOnly makes the listing show the main image instead of the first stored one.
	PrimaryImageOnly bool
}

// Outcome of a successful create or update. Warning lists gallery photos that were skipped.
type Outcome struct {
	ProductID int    `json:"product_id"`
	Warning   string `json:"warning,omitempty"`
}

type UpdateFormView struct {
	Form    domain.ProductForm    `json:"form"`
	Images  []domain.ProductImage `json:"images"`
	Lookups domain.FormLookups    `json:"lookups"`
}

type productUseCase struct {
	productRepo domain.ProductRepository
	lookupRepo  domain.LookupRepository
	files       domain.FileStore
	validate    *validator.Validate
	opts        ProductOptions
	log         *logrus.Logger
}

func NewProductUseCase(pRepo domain.ProductRepository, lRepo domain.LookupRepository, files domain.FileStore, opts ProductOptions, logger *logrus.Logger) ProductUseCase {
	if opts.MaxPhotoSizeMB <= 0 {
		opts.MaxPhotoSizeMB = 2
	}
	return &productUseCase{
		productRepo: pRepo,
		lookupRepo:  lRepo,
		files:       files,
		validate:    newFormValidator(),
		opts:        opts,
		log:         logger,
	}
}

func (uc *productUseCase) loadLookups(ctx context.Context) (*domain.FormLookups, error) {
	var lookups domain.FormLookups
	var err error
	if lookups.Categories, err = uc.lookupRepo.ListActive(ctx, domain.LookupCategory); err != nil {
		return nil, fmt.Errorf("could not load categories: %w", err)
	}
	if lookups.Colors, err = uc.lookupRepo.ListActive(ctx, domain.LookupColor); err != nil {
		return nil, fmt.Errorf("could not load colors: %w", err)
	}
	if lookups.Sizes, err = uc.lookupRepo.ListActive(ctx, domain.LookupSize); err != nil {
		return nil, fmt.Errorf("could not load sizes: %w", err)
	}
	if lookups.Tags, err = uc.lookupRepo.ListActive(ctx, domain.LookupTag); err != nil {
		return nil, fmt.Errorf("could not load tags: %w", err)
	}
	return &lookups, nil
}

func (uc *productUseCase) checkCategory(ctx context.Context, id int) error {
	exists, err := uc.lookupRepo.ExistsActive(ctx, domain.LookupCategory, id)
	if err != nil {
		return err
	}
	if !exists {
		return &domain.ReferenceError{Field: domain.FieldFor(domain.LookupCategory), Kind: domain.LookupCategory, ID: id}
	}
	return nil
}

// storeGallery stores every acceptable extra photo. Photos failing validation
// are skipped and reported in the returned warning instead of failing the request.
func (uc *productUseCase) storeGallery(ctx context.Context, batch *storage.Batch, photos []*domain.Upload) ([]domain.ProductImage, string, error) {
	var images []domain.ProductImage
	var skipped []string
	for _, photo := range photos {
		if photo == nil {
			continue
		}
		if err := uc.checkPhoto(photo, "Photos"); err != nil {
			var fileErr *domain.FileValidationError
			if errors.As(err, &fileErr) {
				uc.log.Warnf("Use Case: Skipping gallery photo '%s': %s", photo.Filename, fileErr.Message)
				skipped = append(skipped, fmt.Sprintf("%s %s", photo.Filename, fileErr.Message))
				continue
			}
			return nil, "", err
		}
		name, err := batch.Create(ctx, photo)
		if err != nil {
			return nil, "", err
		}
		images = append(images, domain.ProductImage{ImageURL: name, Kind: domain.ImageGallery})
	}
	return images, strings.Join(skipped, "; "), nil
}

func (uc *productUseCase) CreateForm(ctx context.Context) (*domain.FormLookups, error) {
	lookups, err := uc.loadLookups(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to load lookups for create form: %v", err)
		return nil, err
	}
	return lookups, nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, form *domain.ProductForm) (*Outcome, error) {
	lookups, err := uc.loadLookups(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to load lookups for product creation: %v", err)
		return nil, err
	}
	reject := func(err error) error {
		uc.log.Warnf("Use Case: Product form for '%s' rejected: %v", form.Name, err)
		return &domain.FormRejection{Err: err, Form: form.WithoutFiles(), Lookups: *lookups}
	}

	price, err := uc.validateFields(form, true)
	if err != nil {
		return nil, reject(err)
	}
	if err := uc.checkPhoto(form.MainPhoto, "MainPhoto"); err != nil {
		return nil, reject(err)
	}
	if err := uc.checkPhoto(form.HoverPhoto, "HoverPhoto"); err != nil {
		return nil, reject(err)
	}
	if err := uc.checkCategory(ctx, form.CategoryID); err != nil {
		var refErr *domain.ReferenceError
		if errors.As(err, &refErr) {
			return nil, reject(err)
		}
		uc.log.Errorf("Use Case: Failed to check category ID %d: %v", form.CategoryID, err)
		return nil, err
	}
	if err := checkReferences(form, lookups); err != nil {
		return nil, reject(err)
	}

	batch := storage.NewBatch(uc.files, uc.log, storage.ImageSegments...)
	defer batch.Discard()

	mainURL, err := batch.Create(ctx, form.MainPhoto)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to store main photo: %v", err)
		return nil, err
	}
	hoverURL, err := batch.Create(ctx, form.HoverPhoto)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to store hover photo: %v", err)
		return nil, err
	}
	gallery, warning, err := uc.storeGallery(ctx, batch, form.Photos)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to store gallery photos: %v", err)
		return nil, err
	}

	product := &domain.Product{
		Name:        form.Name,
		SKU:         form.SKU,
		Description: form.Description,
		Price:       price,
		CategoryID:  form.CategoryID,
		Images: append([]domain.ProductImage{
			{ImageURL: mainURL, Kind: domain.ImageMain},
			{ImageURL: hoverURL, Kind: domain.ImageHover},
		}, gallery...),
		Tags:   associationsFor(form.TagIDs),
		Colors: associationsFor(form.ColorIDs),
		Sizes:  associationsFor(form.SizeIDs),
	}

	uc.log.Infof("Use Case: Attempting to create product '%s'", product.Name)
	created, err := uc.productRepo.CreateProduct(ctx, product)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", product.Name, err)
		return nil, err
	}
	batch.Keep()

	uc.log.Infof("Use Case: Product '%s' created successfully with ID %d (%d files stored)",
		created.Name, created.ID, len(batch.Created()))
	return &Outcome{ProductID: created.ID, Warning: warning}, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get product with invalid ID: %d", id)
		return nil, ErrInvalidProductID
	}
	product, err := uc.productRepo.GetActiveProduct(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get product ID %d: %v", id, err)
		return nil, err
	}
	return product, nil
}

func (uc *productUseCase) UpdateForm(ctx context.Context, id int) (*UpdateFormView, error) {
	product, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	lookups, err := uc.loadLookups(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to load lookups for update form of product ID %d: %v", id, err)
		return nil, err
	}

	view := &UpdateFormView{
		Form: domain.ProductForm{
			Name:        product.Name,
			SKU:         product.SKU,
			Description: product.Description,
			Price:       product.Price.StringFixed(2),
			CategoryID:  product.CategoryID,
			TagIDs:      domain.LookupIDs(product.Tags),
			ColorIDs:    domain.LookupIDs(product.Colors),
			SizeIDs:     domain.LookupIDs(product.Sizes),
			ImageIDs:    []int{},
		},
		Images:  product.Images,
		Lookups: *lookups,
	}
	for _, image := range product.Images {
		if image.Kind == domain.ImageGallery {
			view.Form.ImageIDs = append(view.Form.ImageIDs, image.ID)
		}
	}
	return view, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id int, form *domain.ProductForm) (*Outcome, error) {
	existing, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	lookups, err := uc.loadLookups(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to load lookups for update of product ID %d: %v", id, err)
		return nil, err
	}
	reject := func(err error) error {
		uc.log.Warnf("Use Case: Update form for product ID %d rejected: %v", id, err)
		return &domain.FormRejection{Err: err, Form: form.WithoutFiles(), Lookups: *lookups}
	}

	price, err := uc.validateFields(form, false)
	if err != nil {
		return nil, reject(err)
	}
	if form.MainPhoto != nil {
		if err := uc.checkPhoto(form.MainPhoto, "MainPhoto"); err != nil {
			return nil, reject(err)
		}
	}
	if form.HoverPhoto != nil {
		if err := uc.checkPhoto(form.HoverPhoto, "HoverPhoto"); err != nil {
			return nil, reject(err)
		}
	}
	if form.CategoryID != existing.CategoryID {
		if err := uc.checkCategory(ctx, form.CategoryID); err != nil {
			var refErr *domain.ReferenceError
			if errors.As(err, &refErr) {
				return nil, reject(err)
			}
			uc.log.Errorf("Use Case: Failed to check category ID %d: %v", form.CategoryID, err)
			return nil, err
		}
	}
	if err := checkReferences(form, lookups); err != nil {
		return nil, reject(err)
	}

	batch := storage.NewBatch(uc.files, uc.log, storage.ImageSegments...)
	defer batch.Discard()

	update := &domain.ProductUpdate{
		Product: &domain.Product{
			ID:          existing.ID,
			Name:        form.Name,
			SKU:         form.SKU,
			Description: form.Description,
			Price:       price,
			CategoryID:  form.CategoryID,
		},
		Associations: map[domain.LookupKind]domain.AssociationChange{},
	}
	var obsoleteFiles []string

	replace := func(upload *domain.Upload, kind domain.ImageKind) error {
		name, err := batch.Create(ctx, upload)
		if err != nil {
			return err
		}
		update.AddImages = append(update.AddImages, domain.ProductImage{ImageURL: name, Kind: kind})
		if old := existing.ImageOf(kind); old != nil {
			update.RemoveImageIDs = append(update.RemoveImageIDs, old.ID)
			obsoleteFiles = append(obsoleteFiles, old.ImageURL)
		}
		return nil
	}
	if form.MainPhoto != nil {
		if err := replace(form.MainPhoto, domain.ImageMain); err != nil {
			uc.log.Errorf("Use Case: Failed to store main photo for product ID %d: %v", id, err)
			return nil, err
		}
	}
	if form.HoverPhoto != nil {
		if err := replace(form.HoverPhoto, domain.ImageHover); err != nil {
			uc.log.Errorf("Use Case: Failed to store hover photo for product ID %d: %v", id, err)
			return nil, err
		}
	}

	keep := make(map[int]bool, len(form.ImageIDs))
	for _, imageID := range form.ImageIDs {
		keep[imageID] = true
	}
	for _, image := range existing.Images {
		if image.Kind == domain.ImageGallery && !keep[image.ID] {
			update.RemoveImageIDs = append(update.RemoveImageIDs, image.ID)
			obsoleteFiles = append(obsoleteFiles, image.ImageURL)
		}
	}

	gallery, warning, err := uc.storeGallery(ctx, batch, form.Photos)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to store gallery photos for product ID %d: %v", id, err)
		return nil, err
	}
	update.AddImages = append(update.AddImages, gallery...)

	for _, kind := range associationKinds {
		change := ReconcileAssociations(existing.Associations(kind), form.SelectedIDs(kind))
		if !change.Empty() {
			update.Associations[kind] = change
		}
	}

	// obsolete files are moved aside inside the transaction and only deleted
	// once the rows referencing them are gone for good
	removal := storage.NewRemoval(uc.files, uc.log, storage.ImageSegments...)

	uc.log.Infof("Use Case: Attempting update of product ID %d", id)
	err = uc.productRepo.UpdateProduct(ctx, update, func() error {
		return removal.Stage(obsoleteFiles)
	})
	if err != nil {
		removal.Restore()
		uc.log.Errorf("Use Case: Repository failed to update product ID %d: %v", id, err)
		return nil, err
	}
	removed := len(removal.Staged())
	removal.Commit()
	batch.Keep()

	uc.log.Infof("Use Case: Product updated successfully for ID %d (%d files stored, %d removed)",
		id, len(batch.Created()), removed)
	return &Outcome{ProductID: id, Warning: warning}, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id int) error {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid product ID: %d", id)
		return ErrInvalidProductID
	}
	uc.log.Infof("Use Case: Attempting to delete product ID %d", id)
	if err := uc.productRepo.SoftDeleteProduct(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete product ID %d: %v", id, err)
		return err
	}
	uc.log.Infof("Use Case: Product deleted successfully for ID %d", id)
	return nil
}

func (uc *productUseCase) ListProducts(ctx context.Context) ([]domain.ProductListItem, error) {
	uc.log.Info("Use Case: Attempting to list products")
	items, err := uc.productRepo.ListProducts(ctx, uc.opts.PrimaryImageOnly)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products: %v", err)
		return nil, fmt.Errorf("could not retrieve products: %w", err)
	}
	uc.log.Infof("Use Case: Retrieved %d products", len(items))
	return items, nil
}
