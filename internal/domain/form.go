package domain

// ProductForm is the submitted shape of the create and update product forms.
// Field names in the form tags are the names reported in field errors.
type ProductForm struct {
	Name        string `json:"name"        form:"Name"        validate:"required,max=100"`
	SKU         string `json:"sku"         form:"SKU"         validate:"required,max=50"`
	Description string `json:"description" form:"Description" validate:"required,max=1000"`
	Price       string `json:"price"       form:"Price"       validate:"required,numeric"`
	CategoryID  int    `json:"category_id" form:"CategoryId"  validate:"required"`

	TagIDs   []int `json:"tag_ids"   form:"TagIds"`
	ColorIDs []int `json:"color_ids" form:"ColorIds"`
	SizeIDs  []int `json:"size_ids"  form:"SizeIds"`
	ImageIDs []int `json:"image_ids" form:"ImageIds"` // gallery images to keep, update only

	MainPhoto  *Upload   `json:"-" form:"MainPhoto"  validate:"-"`
	HoverPhoto *Upload   `json:"-" form:"HoverPhoto" validate:"-"`
	Photos     []*Upload `json:"-" form:"Photos"     validate:"-"`

	// BindErrors are values the transport could not convert, e.g. a non-numeric id.
	BindErrors []FieldError `json:"-" form:"-" validate:"-"`
}

// SelectedIDs returns the submitted lookup ids for a many-to-many relation.
func (f *ProductForm) SelectedIDs(kind LookupKind) []int {
	switch kind {
	case LookupTag:
		return f.TagIDs
	case LookupColor:
		return f.ColorIDs
	case LookupSize:
		return f.SizeIDs
	default:
		return nil
	}
}

// FieldFor names the form field that carries ids of the lookup kind.
func FieldFor(kind LookupKind) string {
	switch kind {
	case LookupCategory:
		return "CategoryId"
	case LookupColor:
		return "ColorIds"
	case LookupSize:
		return "SizeIds"
	case LookupTag:
		return "TagIds"
	default:
		return ""
	}
}

// WithoutFiles copies the form dropping uploaded files, for echoing it back.
func (f ProductForm) WithoutFiles() ProductForm {
	f.MainPhoto = nil
	f.HoverPhoto = nil
	f.Photos = nil
	return f
}
