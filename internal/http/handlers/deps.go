package handlers

import (
	"maplecart/internal/cache"
	"maplecart/internal/config"
	"maplecart/internal/gateway"
	"maplecart/internal/repos"
	"maplecart/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	PaymentHandler  *PaymentHandler
	TrackingHandler *TrackingHandler
	WishlistHandler *WishlistHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, gw gateway.Client, cch *cache.Cache) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	wishRepo := repos.NewWishlistRepo(db)
	userRepo := repos.NewUserRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(orderRepo, prodRepo, cartRepo, cch, cfg.ShippingCents, cfg.TaxBasisPts)
	paySvc := services.NewPaymentService(payRepo, orderRepo, gw,
		cfg.GatewaySecret, cfg.GatewayCallback, cfg.Currency, cfg.PaymentWindow)
	wishSvc := services.NewWishlistService(wishRepo)

	return &Deps{
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		OrderHandler:    &OrderHandler{Order: orderSvc, Auth: auth},
		PaymentHandler:  &PaymentHandler{Pay: paySvc, Auth: auth},
		TrackingHandler: &TrackingHandler{Order: orderSvc},
		WishlistHandler: &WishlistHandler{Wish: wishSvc},
		AdminHandler: &AdminHandler{
			Orders: orderSvc, Pay: paySvc,
			OrderRepo: orderRepo, PayRepo: payRepo, Prods: prodRepo, Users: userRepo,
		},
	}
}
