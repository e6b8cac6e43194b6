package services

import (
	"context"

	"shopdesk/internal/catalog"
	"shopdesk/internal/domain"
	"shopdesk/internal/repos"
)

type CatalogService struct {
	Catalog    *catalog.Catalog
	Cats       *repos.CategoryRepo
	Businesses *repos.BusinessRepo
}

func NewCatalogService(cat *catalog.Catalog, cats *repos.CategoryRepo, biz *repos.BusinessRepo) *CatalogService {
	return &CatalogService{Catalog: cat, Cats: cats, Businesses: biz}
}

type ProductView struct {
	domain.Product
	Availability string `json:"availability"`
}

// List returns the branch catalog filtered by query and category.
func (s *CatalogService) List(ctx context.Context, businessID, branchID, q, category string) ([]ProductView, error) {
	snap, err := s.Catalog.Snapshot(ctx, businessID, branchID)
	if err != nil {
		return nil, err
	}
	ps := snap.Filter(q, category)
	out := make([]ProductView, len(ps))
	for i, p := range ps {
		out[i] = ProductView{Product: p, Availability: domain.AvailabilityOf(p.Stock, p.MinStock).Status}
	}
	return out, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, businessID string) ([]string, error) {
	return s.Cats.List(ctx, businessID)
}

func (s *CatalogService) Branches(ctx context.Context, businessID string) ([]domain.Branch, error) {
	return s.Businesses.ActiveBranches(ctx, businessID)
}
