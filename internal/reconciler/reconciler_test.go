package reconciler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeza-bot/internal/db"
	"aeza-bot/internal/gates/aeza"
)

type mockProvider struct {
	mu          sync.Mutex
	createCalls int
	deleteCalls int
	createFn    func(req aeza.CreateServiceRequest) (*aeza.Order, error)
	deleteFn    func(serviceID int64) error
}

func (m *mockProvider) CreateService(_ context.Context, req aeza.CreateServiceRequest) (*aeza.Order, error) {
	m.mu.Lock()
	m.createCalls++
	n := int64(m.createCalls)
	m.mu.Unlock()

	if m.createFn != nil {
		return m.createFn(req)
	}
	return &aeza.Order{
		ID:        700 + n,
		Status:    "active",
		ProductID: req.ProductID,
		Items: []aeza.Service{
			{ID: 4000 + n, Name: req.Name, IP: "45.10.0.7", Status: "active"},
		},
	}, nil
}

func (m *mockProvider) DeleteService(_ context.Context, serviceID int64) error {
	m.mu.Lock()
	m.deleteCalls++
	m.mu.Unlock()

	if m.deleteFn != nil {
		return m.deleteFn(serviceID)
	}
	return nil
}

func (m *mockProvider) creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) NotifyAdmin(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

const testUserID int64 = 123456789

func setupTest(t *testing.T, dsn string) (*Reconciler, *db.Repository, *mockProvider, *mockNotifier) {
	t.Helper()

	repo, err := db.NewRepository(dsn)
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate())

	require.NoError(t, repo.Users().Register(testUserID, "testuser"))
	require.NoError(t, repo.DB().Model(&db.User{}).Where("id = ?", testUserID).
		Update("balance", decimal.NewFromInt(500)).Error)

	provider := &mockProvider{}
	notifier := &mockNotifier{}
	return New(provider, repo, notifier), repo, provider, notifier
}

func orderRequest(price int64) OrderRequest {
	return OrderRequest{
		UserID:    testUserID,
		ProductID: 163,
		Term:      aeza.TermHour,
		Name:      "bot-proxy",
		Price:     decimal.NewFromInt(price),
		Parameters: map[string]any{
			"os": 4320,
		},
	}
}

func TestPlaceOrderInsufficientBalance(t *testing.T) {
	rec, repo, provider, _ := setupTest(t, ":memory:")

	result, err := rec.PlaceOrder(context.Background(), orderRequest(1000))

	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, StateRequested, result.State)
	assert.Zero(t, provider.createCalls, "провайдер не должен вызываться")

	user, err := repo.Users().Get(testUserID)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(500)))
	assert.Zero(t, user.ProxyCount)
}

func TestPlaceOrderRemoteRejected(t *testing.T) {
	rec, repo, provider, notifier := setupTest(t, ":memory:")
	provider.createFn = func(aeza.CreateServiceRequest) (*aeza.Order, error) {
		return nil, &aeza.RemoteError{Status: 402, Body: "insufficient provider balance"}
	}

	result, err := rec.PlaceOrder(context.Background(), orderRequest(100))

	require.Error(t, err)
	assert.Equal(t, StateRemoteRejected, result.State)
	assert.Equal(t, 1, provider.createCalls)
	assert.Zero(t, notifier.count(), "обычный отказ не требует оповещения оператора")

	user, err := repo.Users().Get(testUserID)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(500)))
	assert.Zero(t, user.ProxyCount)

	proxies, err := repo.Proxies().ListByUser(testUserID)
	require.NoError(t, err)
	assert.Empty(t, proxies)
}

func TestPlaceOrderTimeoutWarnsOperator(t *testing.T) {
	rec, _, provider, notifier := setupTest(t, ":memory:")
	provider.createFn = func(aeza.CreateServiceRequest) (*aeza.Order, error) {
		return nil, &aeza.RemoteError{Err: context.DeadlineExceeded}
	}

	result, err := rec.PlaceOrder(context.Background(), orderRequest(100))

	require.Error(t, err)
	assert.Equal(t, StateRemoteRejected, result.State)
	assert.Equal(t, 1, notifier.count(), "таймаут должен предупреждать оператора о возможной услуге-сироте")
}

func TestPlaceOrderSuccess(t *testing.T) {
	rec, repo, provider, notifier := setupTest(t, ":memory:")

	result, err := rec.PlaceOrder(context.Background(), orderRequest(100))

	require.NoError(t, err)
	assert.Equal(t, StateLocallyRecorded, result.State)
	require.NotNil(t, result.Proxy)
	assert.Equal(t, 1, provider.createCalls)
	assert.Zero(t, notifier.count())

	user, err := repo.Users().Get(testUserID)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(400)),
		"баланс должен уменьшиться ровно на цену, получено %s", user.Balance)
	assert.Equal(t, 1, user.ProxyCount)

	proxies, err := repo.Proxies().ListByUser(testUserID)
	require.NoError(t, err)
	require.Len(t, proxies, 1)
	assert.Equal(t, "45.10.0.7", proxies[0].ServerIP)
	assert.NotEmpty(t, proxies[0].UUID)
	assert.NotEmpty(t, proxies[0].ShortID)
	assert.False(t, proxies[0].IsFrozen)

	bank, err := repo.Bank().ListByUser(testUserID)
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.True(t, bank[0].Amount.Equal(decimal.NewFromInt(-100)))
	assert.Equal(t, "RUB", bank[0].Currency)

	journal, err := repo.Journal().ListByUser(testUserID)
	require.NoError(t, err)
	require.Len(t, journal, 1)
	assert.Equal(t, db.ActionCreate, journal[0].Action)
	require.NotNil(t, journal[0].ProxyID)
	assert.Equal(t, proxies[0].UUID, *journal[0].ProxyID)
}

func TestPlaceOrderPersistenceFailureEscalates(t *testing.T) {
	rec, repo, provider, notifier := setupTest(t, ":memory:")

	// Ломаем локальную запись после успешного заказа у провайдера
	require.NoError(t, repo.DB().Exec("DROP TABLE proxies").Error)

	result, err := rec.PlaceOrder(context.Background(), orderRequest(100))

	var recErr *ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, StateReconciliationPending, result.State)
	assert.Equal(t, testUserID, recErr.UserID)
	assert.NotZero(t, recErr.ServiceID)

	assert.Equal(t, 1, provider.createCalls, "заказ не должен повторяться автоматически")
	assert.Equal(t, 1, notifier.count(), "оператор должен быть оповещен")

	// Транзакция откатилась целиком: баланс не тронут, движений нет
	user, userErr := repo.Users().Get(testUserID)
	require.NoError(t, userErr)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(500)))

	bank, bankErr := repo.Bank().ListByUser(testUserID)
	require.NoError(t, bankErr)
	assert.Empty(t, bank)
}

func TestPlaceOrderWithoutServiceItemsEscalates(t *testing.T) {
	rec, repo, provider, notifier := setupTest(t, ":memory:")

	// Заказ подтвержден, но провайдер не вернул ни одной услуги:
	// идентификатор заказа не должен попасть в локальные записи как
	// идентификатор услуги
	provider.createFn = func(aeza.CreateServiceRequest) (*aeza.Order, error) {
		return &aeza.Order{ID: 900, Status: "processing", ProductID: 163}, nil
	}

	result, err := rec.PlaceOrder(context.Background(), orderRequest(100))

	var recErr *ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, StateReconciliationPending, result.State)
	assert.Zero(t, recErr.ServiceID)
	assert.Equal(t, 1, notifier.count(), "оператор должен быть оповещен")

	// Средства не списаны, локальных записей нет
	user, userErr := repo.Users().Get(testUserID)
	require.NoError(t, userErr)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(500)))

	proxies, listErr := repo.Proxies().ListByUser(testUserID)
	require.NoError(t, listErr)
	assert.Empty(t, proxies)

	bank, bankErr := repo.Bank().ListByUser(testUserID)
	require.NoError(t, bankErr)
	assert.Empty(t, bank)
}

func TestDeleteProxyRemoteFailureKeepsLocalState(t *testing.T) {
	rec, repo, provider, _ := setupTest(t, ":memory:")

	result, err := rec.PlaceOrder(context.Background(), orderRequest(100))
	require.NoError(t, err)
	shortID := result.Proxy.ShortID

	provider.deleteFn = func(int64) error {
		return &aeza.RemoteError{Status: 500, Body: "internal error"}
	}

	err = rec.DeleteProxy(context.Background(), shortID)
	require.Error(t, err)

	// Локальная запись не тронута: услуга может продолжать тарифицироваться
	proxy, err := repo.Proxies().GetByShortID(shortID)
	require.NoError(t, err)
	assert.Equal(t, result.Proxy.UUID, proxy.UUID)

	journal, err := repo.Journal().ListByUser(testUserID)
	require.NoError(t, err)
	require.Len(t, journal, 1)
	assert.Equal(t, db.ActionCreate, journal[0].Action)
}

func TestDeleteProxySuccess(t *testing.T) {
	rec, repo, provider, _ := setupTest(t, ":memory:")

	result, err := rec.PlaceOrder(context.Background(), orderRequest(100))
	require.NoError(t, err)

	require.NoError(t, rec.DeleteProxy(context.Background(), result.Proxy.ShortID))
	assert.Equal(t, 1, provider.deleteCalls)

	_, err = repo.Proxies().GetByShortID(result.Proxy.ShortID)
	require.Error(t, err)

	user, err := repo.Users().Get(testUserID)
	require.NoError(t, err)
	assert.Zero(t, user.ProxyCount)

	journal, err := repo.Journal().ListByUser(testUserID)
	require.NoError(t, err)
	require.Len(t, journal, 2)

	actions := []string{journal[0].Action, journal[1].Action}
	assert.Contains(t, actions, db.ActionCreate)
	assert.Contains(t, actions, db.ActionDelete)
}

func TestFreezeUnfreeze(t *testing.T) {
	rec, repo, provider, _ := setupTest(t, ":memory:")

	result, err := rec.PlaceOrder(context.Background(), orderRequest(100))
	require.NoError(t, err)
	shortID := result.Proxy.ShortID

	require.NoError(t, rec.Freeze(shortID))
	proxy, err := repo.Proxies().GetByShortID(shortID)
	require.NoError(t, err)
	assert.True(t, proxy.IsFrozen)

	require.NoError(t, rec.Unfreeze(shortID))
	proxy, err = repo.Proxies().GetByShortID(shortID)
	require.NoError(t, err)
	assert.False(t, proxy.IsFrozen)

	// Заморозка локальная, провайдер не вызывается
	assert.Equal(t, 1, provider.createCalls)
	assert.Zero(t, provider.deleteCalls)

	journal, err := repo.Journal().ListByUser(testUserID)
	require.NoError(t, err)
	assert.Len(t, journal, 3)
}

func TestCredit(t *testing.T) {
	rec, repo, _, _ := setupTest(t, ":memory:")

	require.NoError(t, rec.Credit(testUserID, decimal.NewFromInt(250), "пополнение администратором"))

	user, err := repo.Users().Get(testUserID)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(750)))

	bank, err := repo.Bank().ListByUser(testUserID)
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.True(t, bank[0].Amount.Equal(decimal.NewFromInt(250)))

	require.Error(t, rec.Credit(testUserID, decimal.NewFromInt(-10), "отрицательная сумма"))
}

func TestLedgerMatchesBalanceAfterOperations(t *testing.T) {
	rec, repo, _, _ := setupTest(t, ":memory:")

	require.NoError(t, rec.Credit(testUserID, decimal.NewFromInt(300), "пополнение"))
	_, err := rec.PlaceOrder(context.Background(), orderRequest(150))
	require.NoError(t, err)

	user, err := repo.Users().Get(testUserID)
	require.NoError(t, err)

	sum, err := repo.Bank().SumForUser(testUserID)
	require.NoError(t, err)

	// Стартовый баланс 500 засеян напрямую, движения должны сходиться
	// с его изменением: 300 - 150 = 150
	assert.True(t, sum.Equal(decimal.NewFromInt(150)))
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(650)))
}

func TestConcurrentDebitsSerialize(t *testing.T) {
	// Файловая база: конкурентные транзакции из разных соединений
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	rec, repo, provider, _ := setupTest(t, dsn)

	const workers = 2
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = rec.PlaceOrder(context.Background(), orderRequest(100))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "заказ %d", i)
	}
	assert.Equal(t, workers, provider.creates())

	// Оба списания отражены: потерянных обновлений нет
	user, err := repo.Users().Get(testUserID)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(300)),
		"ожидался баланс 300, получен %s", user.Balance)
	assert.Equal(t, workers, user.ProxyCount)

	bank, err := repo.Bank().ListByUser(testUserID)
	require.NoError(t, err)
	assert.Len(t, bank, workers)
}
