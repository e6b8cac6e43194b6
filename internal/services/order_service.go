package services

import (
	"context"

	"shopdesk/internal/receipt"
	"shopdesk/internal/repos"
)

type OrderService struct {
	Orders     *repos.OrderRepo
	Businesses *repos.BusinessRepo
}

func NewOrderService(orders *repos.OrderRepo, biz *repos.BusinessRepo) *OrderService {
	return &OrderService{Orders: orders, Businesses: biz}
}

// Receipt rebuilds a stored order's receipt with the current business profile.
func (s *OrderService) Receipt(ctx context.Context, businessID, orderID string) (receipt.Receipt, error) {
	o, lines, err := s.Orders.Get(ctx, businessID, orderID)
	if err != nil {
		return receipt.Receipt{}, err
	}
	b, err := s.Businesses.Business(ctx, businessID)
	if err != nil {
		return receipt.Receipt{}, err
	}
	br, err := s.Businesses.Branch(ctx, businessID, o.BranchID)
	if err != nil {
		return receipt.Receipt{}, err
	}
	return receipt.Receipt{Business: b, Branch: br, Order: o, Lines: lines}, nil
}

func (s *OrderService) History(ctx context.Context, businessID, branchID string, limit int) ([]repos.OrderSummary, error) {
	return s.Orders.ListLatest(ctx, businessID, branchID, limit)
}
