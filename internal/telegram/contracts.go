package telegram

import (
	"context"

	"aeza-bot/internal/gates/aeza"
)

// ProviderAPI - часть клиента Aeza, нужная обработчикам бота.
type ProviderAPI interface {
	ListProducts(ctx context.Context) ([]aeza.Product, error)
	ListOS(ctx context.Context) ([]aeza.OS, error)
	ListRecipes(ctx context.Context) ([]aeza.Recipe, error)
	ListMyServices(ctx context.Context) ([]aeza.Service, error)
	ControlService(ctx context.Context, serviceID int64, action string) error
	ChangePassword(ctx context.Context, serviceID int64, password string) error
}
