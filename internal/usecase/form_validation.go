package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalog_service/internal/domain"
	"catalog_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var maxPrice = decimal.RequireFromString("99999999.99")

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be a number", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// validateFields runs the field level checks of a product form and returns the parsed price.
func (uc *productUseCase) validateFields(form *domain.ProductForm, photosRequired bool) (decimal.Decimal, error) {
	fields := append([]domain.FieldError(nil), form.BindErrors...)
	flagged := map[string]bool{}
	for _, fe := range form.BindErrors {
		flagged[fe.Field] = true
	}

	if err := uc.validate.Struct(form); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return decimal.Zero, fmt.Errorf("could not validate product form: %w", err)
		}
		for _, fe := range validationErrs {
			if flagged[fe.Field()] {
				continue
			}
			fields = append(fields, domain.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
			flagged[fe.Field()] = true
		}
	}

	var price decimal.Decimal
	if !flagged["Price"] {
		parsed, err := decimal.NewFromString(form.Price)
		switch {
		case err != nil:
			fields = append(fields, domain.FieldError{Field: "Price", Message: "Price must be a number"})
		case !parsed.IsPositive():
			fields = append(fields, domain.FieldError{Field: "Price", Message: "Price must be greater than 0"})
		case !parsed.Equal(parsed.Round(2)):
			fields = append(fields, domain.FieldError{Field: "Price", Message: "Price can have at most 2 decimal places"})
		case parsed.GreaterThan(maxPrice):
			fields = append(fields, domain.FieldError{Field: "Price", Message: "Price is too large"})
		default:
			price = parsed
		}
	}

	if photosRequired {
		if form.MainPhoto == nil {
			fields = append(fields, domain.FieldError{Field: "MainPhoto", Message: "MainPhoto is required"})
		}
		if form.HoverPhoto == nil {
			fields = append(fields, domain.FieldError{Field: "HoverPhoto", Message: "HoverPhoto is required"})
		}
	}

	if len(fields) > 0 {
		return decimal.Zero, &domain.ValidationError{Fields: fields}
	}
	return price, nil
}

// checkPhoto validates one uploaded image against the type and size limits.
func (uc *productUseCase) checkPhoto(upload *domain.Upload, field string) error {
	if !storage.ValidateType(upload, imagePrefix) {
		return &domain.FileValidationError{Field: field, Message: "file type incorrect"}
	}
	if !storage.ValidateSize(upload, domain.MB, uc.opts.MaxPhotoSizeMB) {
		return &domain.FileValidationError{
			Field:   field,
			Message: fmt.Sprintf("file size incorrect (<= %dmb)", uc.opts.MaxPhotoSizeMB),
		}
	}
	if uc.opts.SniffContent {
		ok, err := storage.ValidateContent(upload, imagePrefix)
		if err != nil {
			uc.log.Warnf("Use Case: Could not sniff content of %s: %v", upload.Filename, err)
			return &domain.FileValidationError{Field: field, Message: "file could not be read"}
		}
		if !ok {
			return &domain.FileValidationError{Field: field, Message: "file content is not an image"}
		}
	}
	return nil
}

// checkReferences makes sure every submitted tag, color and size id is one of the selectable rows.
func checkReferences(form *domain.ProductForm, lookups *domain.FormLookups) error {
	for _, kind := range associationKinds {
		for _, id := range form.SelectedIDs(kind) {
			if !lookups.Has(kind, id) {
				return &domain.ReferenceError{Field: domain.FieldFor(kind), Kind: kind, ID: id}
			}
		}
	}
	return nil
}
