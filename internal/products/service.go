package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/hauler-backend/internal/cart"
	"github.com/angelmondragon/hauler-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
	"github.com/angelmondragon/hauler-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	minNameLength        = 3
	minDescriptionLength = 10
	// MaxImageDataURLBytes bounds the embedded image text.
	MaxImageDataURLBytes = 2 * 1024 * 1024
	imageDataURLPrefix   = "data:image/"
)

// Service exposes the catalog to suppliers (CRUD) and clients (browse, lookup).
type Service interface {
	CreateProduct(ctx context.Context, supplier Supplier, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, supplierID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, supplierID, productID uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListInStock(ctx context.Context, params pagination.Params) (*ListResult, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, params pagination.Params) (*ListResult, error)
	Lookup(ctx context.Context, id uuid.UUID) (cart.ProductSnapshot, error)
}

// Supplier identifies the acting supplier; Name is denormalized onto the product.
type Supplier struct {
	ID   uuid.UUID
	Name string
}

// CreateProductInput holds the payload to create a product. A nil MOQ defaults to 1.
type CreateProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	MOQ           *int
	ImageDataURL  *string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
	MOQ           *int
	ImageDataURL  *string
	ClearImage    bool
}

type service struct {
	repo *Repository
}

// NewService constructs a product service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, supplier Supplier, input CreateProductInput) (*ProductDTO, error) {
	if supplier.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "supplier identity required")
	}
	moq := 1
	if input.MOQ != nil {
		moq = *input.MOQ
	}
	product := &models.Product{
		SupplierID:    supplier.ID,
		SupplierName:  strings.TrimSpace(supplier.Name),
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		MOQ:           moq,
		ImageDataURL:  normalizeImage(input.ImageDataURL),
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, supplierID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.ownedProduct(ctx, supplierID, productID)
	if err != nil {
		return nil, err
	}

	applyUpdate(product, input)
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return NewProductDTO(product), nil
}

func (s *service) DeleteProduct(ctx context.Context, supplierID, productID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, supplierID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) ListInStock(ctx context.Context, params pagination.Params) (*ListResult, error) {
	return s.list(ctx, listQuery{InStockOnly: true, Pagination: params})
}

func (s *service) ListBySupplier(ctx context.Context, supplierID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier_id is required")
	}
	return s.list(ctx, listQuery{SupplierID: &supplierID, Pagination: params})
}

// Lookup resolves the live product for a cart add.
func (s *service) Lookup(ctx context.Context, id uuid.UUID) (cart.ProductSnapshot, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return cart.ProductSnapshot{}, err
	}
	return Snapshot(product), nil
}

func (s *service) list(ctx context.Context, query listQuery) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor
	rows, err := s.repo.list(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return newListResult(rows, query.Pagination.Limit), nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ownedProduct(ctx context.Context, supplierID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.find(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SupplierID != supplierID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to supplier")
	}
	return product, nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.MOQ != nil {
		product.MOQ = *input.MOQ
	}
	if input.ClearImage {
		product.ImageDataURL = nil
	} else if input.ImageDataURL != nil {
		product.ImageDataURL = normalizeImage(input.ImageDataURL)
	}
}

func normalizeImage(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// validateProduct collects every failing field so forms can show them together.
func validateProduct(p *models.Product) error {
	fields := map[string]string{}
	if utf8.RuneCountInString(p.Name) < minNameLength {
		fields["name"] = fmt.Sprintf("must be at least %d characters", minNameLength)
	}
	if utf8.RuneCountInString(p.Description) < minDescriptionLength {
		fields["description"] = fmt.Sprintf("must be at least %d characters", minDescriptionLength)
	}
	if !p.Price.IsPositive() {
		fields["price"] = "must be greater than 0"
	} else if !p.Price.Equal(p.Price.Round(2)) {
		fields["price"] = "must have at most 2 decimal places"
	}
	if p.StockQuantity < 0 {
		fields["stock_quantity"] = "must be 0 or more"
	}
	if p.MOQ < 1 {
		fields["moq"] = "must be at least 1"
	}
	if p.ImageDataURL != nil {
		switch {
		case len(*p.ImageDataURL) > MaxImageDataURLBytes:
			fields["image_data_url"] = "must be 2MB or smaller"
		case !strings.HasPrefix(*p.ImageDataURL, imageDataURLPrefix):
			fields["image_data_url"] = "must be an embedded image data url"
		}
	}
	if p.SupplierName == "" {
		fields["supplier_name"] = "is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(fields)
}
