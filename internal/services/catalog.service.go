package services

import (
	"context"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/pkg/errors"
)

// PartyService covers the party records the ledger hangs off.
type PartyService struct {
	parties PartyRepository
}

func NewPartyService(parties PartyRepository) *PartyService {
	return &PartyService{parties: parties}
}

func (s *PartyService) Create(ctx context.Context, req model.PartyCreateRequest) (*model.Party, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid("name", "is required")
	}
	party, err := s.parties.Create(ctx, &model.Party{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return nil, storeError("create party", err)
	}
	return party, nil
}

func (s *PartyService) GetByID(ctx context.Context, id int64) (*model.Party, error) {
	party, err := s.parties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPartyNotFound) {
			return nil, notFound("party", id)
		}
		return nil, storeError("get party", err)
	}
	return party, nil
}

func (s *PartyService) List(ctx context.Context) ([]*model.Party, error) {
	parties, err := s.parties.List(ctx)
	if err != nil {
		return nil, storeError("list parties", err)
	}
	return parties, nil
}

// ProductService creates products; stock is changed only by OrderService.
type ProductService struct {
	products ProductRepository
}

func NewProductService(products ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) Create(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	product, err := s.products.Create(ctx, &model.Product{
		Name:     req.Name,
		Quantity: req.Quantity,
		Price:    req.Price,
		Category: req.Category,
	})
	if err != nil {
		return nil, storeError("create product", err)
	}
	return product, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, notFound("product", id)
		}
		return nil, storeError("get product", err)
	}
	return product, nil
}
