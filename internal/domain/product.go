// domain/product.go
package domain

import "context"

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)

	// GetActiveProduct loads a non-deleted product with its images and join rows.
	GetActiveProduct(ctx context.Context, id int) (*Product, error)

	// UpdateProduct applies every change in one transaction. beforeCommit runs
	// inside the transaction after all statements succeeded; an error from it
	// rolls the transaction back.
	UpdateProduct(ctx context.Context, update *ProductUpdate, beforeCommit func() error) error

	SoftDeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context, primaryImageOnly bool) ([]ProductListItem, error)
}

// AssociationChange is the outcome of reconciling one many-to-many relation.
type AssociationChange struct {
	RemoveLookupIDs []int
	AddLookupIDs    []int
}

func (c AssociationChange) Empty() bool {
	return len(c.RemoveLookupIDs) == 0 && len(c.AddLookupIDs) == 0
}

type ProductUpdate struct {
	Product        *Product // carries id and new field values
	RemoveImageIDs []int
	AddImages      []ProductImage
	Associations   map[LookupKind]AssociationChange
}
