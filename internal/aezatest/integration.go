package aezatest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aeza-bot/internal/gates/aeza"
)

// ProviderAPI - часть клиента Aeza, нужная проверкам доступности.
type ProviderAPI interface {
	GetCurrencies(ctx context.Context) (aeza.Rates, error)
	ListOS(ctx context.Context) ([]aeza.OS, error)
	ListProducts(ctx context.Context) ([]aeza.Product, error)
}

// IntegrationTest представляет тест подключения к API Aeza
type IntegrationTest struct {
	client   ProviderAPI
	notifyFn func(message string)
}

// NewIntegrationTest создает новый интеграционный тест
func NewIntegrationTest(client ProviderAPI, notifyFn func(string)) *IntegrationTest {
	return &IntegrationTest{
		client:   client,
		notifyFn: notifyFn,
	}
}

// RunStartupTest запускает тест подключения при старте приложения
func (it *IntegrationTest) RunStartupTest(ctx context.Context) error {
	slog.Info("Starting Aeza API integration test")

	// Тест 1: Основное подключение
	if err := it.testConnection(ctx); err != nil {
		errorMsg := fmt.Sprintf("🚨 API Aeza недоступен при старте!\n\n❌ Ошибка: %v\n\n⚠️ Заказы не смогут выполняться!", err)
		it.notifyFn(errorMsg)
		return err
	}

	// Тест 2: Проверка каталогов API
	if err := it.testAPIFunctions(ctx); err != nil {
		errorMsg := fmt.Sprintf("⚠️ API Aeza подключен, но каталоги работают некорректно!\n\n❌ Ошибка: %v", err)
		it.notifyFn(errorMsg)
		return err
	}

	slog.Info("Aeza API integration test passed successfully")
	it.notifyFn("✅ API Aeza подключен успешно!\n\n🔧 Каталоги и курсы валют доступны")
	return nil
}

// testConnection проверяет базовое подключение
func (it *IntegrationTest) testConnection(ctx context.Context) error {
	slog.Info("Testing Aeza API connection")

	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := it.client.GetCurrencies(testCtx); err != nil {
		slog.Error("Aeza API connection test failed", "error", err)
		return fmt.Errorf("тест подключения: %w", err)
	}

	slog.Info("Aeza API connection test passed")
	return nil
}

// testAPIFunctions проверяет каталоги, нужные для заказов
func (it *IntegrationTest) testAPIFunctions(ctx context.Context) error {
	slog.Info("Testing Aeza API catalogs")

	testCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Тест 1: Список ОС
	osList, err := it.client.ListOS(testCtx)
	if err != nil {
		slog.Error("OS catalog test failed", "error", err)
		return fmt.Errorf("каталог ОС: %w", err)
	}
	if len(osList) == 0 {
		return fmt.Errorf("получен пустой каталог ОС")
	}

	// Тест 2: Список тарифов
	products, err := it.client.ListProducts(testCtx)
	if err != nil {
		slog.Error("Products catalog test failed", "error", err)
		return fmt.Errorf("каталог тарифов: %w", err)
	}
	if len(products) == 0 {
		slog.Warn("Products catalog is empty")
		// Не возвращаем ошибку, каталог может быть пуст временно
	}

	slog.Info("Aeza API catalogs test passed", "os", len(osList), "products", len(products))
	return nil
}

// RunPeriodicHealthCheck запускает периодическую проверку доступности API
func (it *IntegrationTest) RunPeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	slog.Info("Starting periodic Aeza API health check", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	consecutiveFailures := 0
	const maxFailures = 3

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping Aeza API health check")
			return
		case <-ticker.C:
			if err := it.testConnection(ctx); err != nil {
				consecutiveFailures++
				slog.Error("Aeza API health check failed", "error", err, "consecutive_failures", consecutiveFailures)

				if consecutiveFailures >= maxFailures {
					criticalMsg := fmt.Sprintf("🚨 КРИТИЧЕСКАЯ ОШИБКА: API Aeza недоступен уже %d раз подряд!\n\n❌ Ошибка: %v\n\n⚠️ Немедленно проверьте доступ!", consecutiveFailures, err)
					it.notifyFn(criticalMsg)
					consecutiveFailures = 0 // Сбрасываем счетчик чтобы не спамить
				}
			} else {
				if consecutiveFailures > 0 {
					slog.Info("Aeza API health check recovered", "after_failures", consecutiveFailures)
					it.notifyFn(fmt.Sprintf("✅ API Aeza восстановлен после %d неудачных попыток", consecutiveFailures))
				}
				consecutiveFailures = 0
			}
		}
	}
}
