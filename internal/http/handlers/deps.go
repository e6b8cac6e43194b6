package handlers

import (
	"github.com/jmoiron/sqlx"

	"shopdesk/internal/catalog"
	"shopdesk/internal/checkout"
	"shopdesk/internal/config"
	"shopdesk/internal/repos"
	"shopdesk/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	RegisterHandler  *RegisterHandler
	CatalogHandler   *CatalogHandler
	InventoryHandler *InventoryHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, cat *catalog.Catalog, events checkout.Publisher) *Deps {
	bizRepo := repos.NewBusinessRepo(db)
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	catRepo := repos.NewCategoryRepo(db)

	sessions := services.NewSessions(checkout.Deps{
		Ledger:   repos.NewSalesStore(db),
		Profiles: bizRepo,
		Catalog:  cat,
		Events:   events,
	}, cfg.DefaultTaxPercent)
	authSvc := &services.AuthService{Users: userRepo, Businesses: bizRepo, Sessions: sessions}

	cartSvc := services.NewCartService(cat, bizRepo, userRepo)
	catalogSvc := services.NewCatalogService(cat, catRepo, bizRepo)
	invSvc := services.NewInventoryService(invRepo, prodRepo, bizRepo, cat)
	orderSvc := services.NewOrderService(orderRepo, bizRepo)

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc, Cart: cartSvc},
		RegisterHandler:  &RegisterHandler{Cart: cartSvc},
		CatalogHandler:   &CatalogHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		OrderHandler:     &OrderHandler{Orders: orderSvc, Cart: cartSvc},
		AdminHandler:     &AdminHandler{Inv: invSvc, Orders: orderSvc},
	}
}
