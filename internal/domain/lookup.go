package domain

import "context"

type LookupKind int

const (
	LookupCategory LookupKind = iota
	LookupColor
	LookupSize
	LookupTag
)

func (k LookupKind) String() string {
	switch k {
	case LookupCategory:
		return "category"
	case LookupColor:
		return "color"
	case LookupSize:
		return "size"
	case LookupTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Lookup is a row of one of the reference tables (categories, colors, sizes, tags).
type Lookup struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDeleted bool   `json:"-"`
}

type LookupRepository interface {
	ListActive(ctx context.Context, kind LookupKind) ([]Lookup, error)
	ExistsActive(ctx context.Context, kind LookupKind, id int) (bool, error)
}

// FormLookups is the read-only set of selectable reference rows attached to a product form.
type FormLookups struct {
	Categories []Lookup `json:"categories"`
	Colors     []Lookup `json:"colors"`
	Sizes      []Lookup `json:"sizes"`
	Tags       []Lookup `json:"tags"`
}

func (l FormLookups) Of(kind LookupKind) []Lookup {
	switch kind {
	case LookupCategory:
		return l.Categories
	case LookupColor:
		return l.Colors
	case LookupSize:
		return l.Sizes
	case LookupTag:
		return l.Tags
	default:
		return nil
	}
}

// Has reports whether id is among the loaded rows of the given kind.
func (l FormLookups) Has(kind LookupKind, id int) bool {
	for _, row := range l.Of(kind) {
		if row.ID == id {
			return true
		}
	}
	return false
}
