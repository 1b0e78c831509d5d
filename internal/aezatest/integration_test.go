package aezatest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeza-bot/internal/gates/aeza"
)

type stubProvider struct {
	mu          sync.Mutex
	currenciesE error
	osList      []aeza.OS
	products    []aeza.Product
}

func (s *stubProvider) GetCurrencies(_ context.Context) (aeza.Rates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currenciesE != nil {
		return nil, s.currenciesE
	}
	return aeza.Rates{"RUB": {Multiplier: decimal.NewFromInt(1), Round: 2}}, nil
}

func (s *stubProvider) ListOS(_ context.Context) ([]aeza.OS, error) {
	return s.osList, nil
}

func (s *stubProvider) ListProducts(_ context.Context) ([]aeza.Product, error) {
	return s.products, nil
}

func (s *stubProvider) setCurrenciesError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currenciesE = err
}

func TestStartupTestPasses(t *testing.T) {
	provider := &stubProvider{
		osList:   []aeza.OS{{ID: 4320, Name: "Debian 12"}},
		products: []aeza.Product{{ID: 163, Name: "Promo"}},
	}

	var messages []string
	it := NewIntegrationTest(provider, func(msg string) {
		messages = append(messages, msg)
	})

	require.NoError(t, it.RunStartupTest(context.Background()))
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "успешно")
}

func TestStartupTestFailsWhenProviderDown(t *testing.T) {
	provider := &stubProvider{currenciesE: errors.New("connection refused")}

	var messages []string
	it := NewIntegrationTest(provider, func(msg string) {
		messages = append(messages, msg)
	})

	require.Error(t, it.RunStartupTest(context.Background()))
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "недоступен")
}

func TestStartupTestFailsOnEmptyOSCatalog(t *testing.T) {
	// Подключение есть, но каталог ОС пуст: заказывать не из чего
	provider := &stubProvider{}

	it := NewIntegrationTest(provider, func(string) {})
	require.Error(t, it.RunStartupTest(context.Background()))
}

func TestPeriodicHealthCheckEscalatesAfterConsecutiveFailures(t *testing.T) {
	provider := &stubProvider{}
	provider.setCurrenciesError(errors.New("connection refused"))

	notify := make(chan string, 1)
	it := NewIntegrationTest(provider, func(msg string) {
		select {
		case notify <- msg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go it.RunPeriodicHealthCheck(ctx, 5*time.Millisecond)

	select {
	case msg := <-notify:
		assert.Contains(t, msg, "недоступен")
	case <-time.After(2 * time.Second):
		t.Fatal("эскалация не произошла после серии сбоев")
	}
}
