package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int             `json:"category_id"`
	CreatedTime time.Time       `json:"created_time"`
	IsDeleted   bool            `json:"is_deleted"`

	Images []ProductImage `json:"images"`
	Tags   []Association  `json:"tags"`
	Colors []Association  `json:"colors"`
	Sizes  []Association  `json:"sizes"`
}

// ImageKind says which role an image plays on its product page.
type ImageKind int

const (
	ImageGallery ImageKind = iota
	ImageMain
	ImageHover
)

func (k ImageKind) String() string {
	switch k {
	case ImageMain:
		return "main"
	case ImageHover:
		return "hover"
	default:
		return "gallery"
	}
}

func (k ImageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type ProductImage struct {
	ID          int       `json:"id"`
	ProductID   int       `json:"product_id"`
	ImageURL    string    `json:"image_url"`
	Kind        ImageKind `json:"kind"`
	CreatedTime time.Time `json:"created_time"`
}

// ImageOf returns the first image of the given kind, or nil.
func (p *Product) ImageOf(kind ImageKind) *ProductImage {
	for i := range p.Images {
		if p.Images[i].Kind == kind {
			return &p.Images[i]
		}
	}
	return nil
}

// Associations returns the join rows held by p for the lookup kind.
func (p *Product) Associations(kind LookupKind) []Association {
	switch kind {
	case LookupTag:
		return p.Tags
	case LookupColor:
		return p.Colors
	case LookupSize:
		return p.Sizes
	default:
		return nil
	}
}

// Association is one row of a product_tags / product_colors / product_sizes join table.
type Association struct {
	ID        int `json:"id"`
	ProductID int `json:"product_id"`
	LookupID  int `json:"lookup_id"`
}

// LookupIDs projects join rows onto the referenced lookup ids.
func LookupIDs(rows []Association) []int {
	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.LookupID)
	}
	return ids
}

// ProductListItem is the flattened row shown in the admin product table.
type ProductListItem struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	CategoryName string          `json:"category_name"`
	Image        string          `json:"image"`
}
