package handlers

import (
	"github.com/jmoiron/sqlx"

	"kinshop/internal/repos"
	"kinshop/internal/services"
)

type Deps struct {
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	CheckoutHandler  *CheckoutHandler
	OrderHandler     *OrderHandler
	AuthHandler      *AuthHandler
}

func NewDeps(db *sqlx.DB) *Deps {
	prodRepo := repos.NewProductRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	addrRepo := repos.NewAddressRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	cartRepo := repos.NewCartStorageRepo(db)

	invSvc := services.NewInventoryService(prodRepo)
	cartSvc := services.NewCartService(invSvc, cartRepo, prodRepo)
	authSvc := services.NewAuthService(custRepo, addrRepo)
	checkoutSvc := services.NewCheckoutService(prodRepo, custRepo, addrRepo, orderRepo)

	return &Deps{
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		CheckoutHandler:  &CheckoutHandler{Checkout: checkoutSvc, Cart: cartSvc, Auth: authSvc},
		OrderHandler:     &OrderHandler{Orders: orderRepo, Customers: custRepo, Auth: authSvc},
		AuthHandler:      &AuthHandler{Auth: authSvc},
	}
}
