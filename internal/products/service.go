package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/enums"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/storage/publicurl"
)

// Service exposes catalog reads for shoppers and full CRUD for the admin
// console.
type Service interface {
	Catalog(ctx context.Context) ([]ProductDTO, error)
	GetCatalogProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)

	ListAll(ctx context.Context) ([]ProductDTO, error)
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	resolver *publicurl.Resolver
}

// NewService builds a product service backed by the provided stack.
func NewService(repo Repository, resolver *publicurl.Resolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("image resolver required")
	}
	return &service{repo: repo, resolver: resolver}, nil
}

// CreateInput captures a new catalog listing.
type CreateInput struct {
	Name          string
	Description   *string
	Price         int
	OriginalPrice *int
	Image         string
	SortOrder     int
}

// UpdateInput carries a partial edit; nil fields are left untouched.
type UpdateInput struct {
	Name          *string
	Description   *string
	Price         *int
	OriginalPrice *int
	ClearOriginal bool
	Image         *string
	Status        *enums.ProductStatus
	SortOrder     *int
}

func (s *service) Catalog(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListVisible(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list catalog")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row, s.resolver))
	}
	return dtos, nil
}

func (s *service) GetCatalogProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := toDTO(*row, s.resolver)
	return &dto, nil
}

func (s *service) ListAll(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row, s.resolver))
	}
	return dtos, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.OriginalPrice != nil && *input.OriginalPrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "original price must be non-negative")
	}

	row := &models.Product{
		Name:          name,
		Description:   input.Description,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Image:         strings.TrimSpace(input.Image),
		Status:        enums.ProductStatusActive,
		SortOrder:     input.SortOrder,
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := toDTO(*created, s.resolver)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	row, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be blank")
		}
		row.Name = name
	}
	if input.Description != nil {
		row.Description = input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		row.Price = *input.Price
	}
	if input.ClearOriginal {
		row.OriginalPrice = nil
	} else if input.OriginalPrice != nil {
		if *input.OriginalPrice < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "original price must be non-negative")
		}
		row.OriginalPrice = input.OriginalPrice
	}
	if input.Image != nil {
		row.Image = strings.TrimSpace(*input.Image)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product status")
		}
		row.Status = *input.Status
	}
	if input.SortOrder != nil {
		row.SortOrder = *input.SortOrder
	}

	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	dto := toDTO(*updated, s.resolver)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) findProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return row, nil
}
