package services

import (
	"context"
	"errors"

	"shopdesk/internal/catalog"
	"shopdesk/internal/domain"
	"shopdesk/internal/repos"
)

var ErrInvalidStock = errors.New("stock must be zero or more")

type InventoryService struct {
	Inv        *repos.InventoryRepo
	Products   *repos.ProductRepo
	Businesses *repos.BusinessRepo
	Catalog    *catalog.Catalog
}

func NewInventoryService(inv *repos.InventoryRepo, prods *repos.ProductRepo, biz *repos.BusinessRepo, cat *catalog.Catalog) *InventoryService {
	return &InventoryService{Inv: inv, Products: prods, Businesses: biz, Catalog: cat}
}

// CheckAvailability converts stock to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, businessID, productID string) (domain.Availability, error) {
	qty, minStock, err := s.Inv.Stock(ctx, businessID, productID)
	if err != nil {
		// unknown products are simply not available
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AvailabilityOf(0, 0), nil
		}
		return domain.Availability{}, err
	}
	return domain.AvailabilityOf(qty, minStock), nil
}

// SetStock overwrites a product's stock and drops every cached catalog
// that lists it.
func (s *InventoryService) SetStock(ctx context.Context, businessID, productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidStock
	}
	p, err := s.Products.Get(ctx, businessID, productID)
	if err != nil {
		return err
	}
	if err := s.Inv.SetStock(ctx, businessID, productID, qty); err != nil {
		return err
	}
	branches := []string{p.BranchID}
	if p.BranchID == "" {
		all, err := s.Businesses.ActiveBranches(ctx, businessID)
		if err != nil {
			return err
		}
		branches = branches[:0]
		for _, b := range all {
			branches = append(branches, b.ID)
		}
	}
	return s.Catalog.Invalidate(ctx, businessID, branches...)
}

func (s *InventoryService) List(ctx context.Context, businessID string) ([]repos.InventoryRow, error) {
	return s.Inv.ListAll(ctx, businessID)
}
