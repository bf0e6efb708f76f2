package delivery_test

import (
	"context"

	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"
)

type stubUseCase struct {
	lookups  domain.FormLookups
	products []domain.ProductListItem
	outcome  usecase.Outcome
	err      error

	lastForm  *domain.ProductForm
	lastID    int
	deletedID int
}

func (s *stubUseCase) CreateForm(_ context.Context) (*domain.FormLookups, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.lookups, nil
}

// rejectBindErrors answers a form carrying conversion errors the way the product use case does.
func (s *stubUseCase) rejectBindErrors(form *domain.ProductForm) error {
	if len(form.BindErrors) == 0 {
		return nil
	}
	return &domain.FormRejection{
		Err:     &domain.ValidationError{Fields: form.BindErrors},
		Form:    form.WithoutFiles(),
		Lookups: s.lookups,
	}
}

func (s *stubUseCase) CreateProduct(_ context.Context, form *domain.ProductForm) (*usecase.Outcome, error) {
	s.lastForm = form
	if err := s.rejectBindErrors(form); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &s.outcome, nil
}

func (s *stubUseCase) UpdateForm(_ context.Context, id int) (*usecase.UpdateFormView, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &usecase.UpdateFormView{Lookups: s.lookups}, nil
}

func (s *stubUseCase) UpdateProduct(_ context.Context, id int, form *domain.ProductForm) (*usecase.Outcome, error) {
	s.lastID = id
	s.lastForm = form
	if err := s.rejectBindErrors(form); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &s.outcome, nil
}

func (s *stubUseCase) DeleteProduct(_ context.Context, id int) error {
	s.deletedID = id
	return s.err
}

func (s *stubUseCase) ListProducts(_ context.Context) ([]domain.ProductListItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func (s *stubUseCase) GetProduct(_ context.Context, id int) (*domain.Product, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Product{ID: id}, nil
}
