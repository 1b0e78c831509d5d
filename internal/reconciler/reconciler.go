package reconciler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"aeza-bot/internal/db"
	"aeza-bot/internal/gates/aeza"
)

// Provider - часть API Aeza, нужная для согласования заказов.
type Provider interface {
	CreateService(ctx context.Context, req aeza.CreateServiceRequest) (*aeza.Order, error)
	DeleteService(ctx context.Context, serviceID int64) error
}

// Notifier - канал для громких оповещений оператора. Рассинхронизация
// локальных записей с провайдером не должна тонуть в обычных логах.
type Notifier interface {
	NotifyAdmin(message string)
}

// OrderState - состояние заказа.
type OrderState string

const (
	StateRequested             OrderState = "requested"
	StateRemoteProvisioning    OrderState = "remote_provisioning"
	StateRemoteConfirmed       OrderState = "remote_confirmed"
	StateLocallyRecorded       OrderState = "locally_recorded"
	StateRemoteRejected        OrderState = "remote_rejected"
	StateReconciliationPending OrderState = "reconciliation_pending"
)

// OrderRequest - запрос на покупку услуги. Price - цена в базовой валюте,
// уже рассчитанная вызывающим по тарифу и периоду.
type OrderRequest struct {
	UserID     int64
	ProductID  int64
	Term       string
	Name       string
	Price      decimal.Decimal
	Parameters map[string]any
}

// OrderResult - исход заказа.
type OrderResult struct {
	State OrderState
	Proxy *db.Proxy
}

// Reconciler согласует заказы между провайдером и локальной базой:
// сначала услуга создается у провайдера, затем одной транзакцией
// списывается баланс и записываются Proxy, Bank и Journal.
type Reconciler struct {
	provider Provider
	repo     *db.Repository
	notifier Notifier
}

func New(provider Provider, repo *db.Repository, notifier Notifier) *Reconciler {
	return &Reconciler{
		provider: provider,
		repo:     repo,
		notifier: notifier,
	}
}

// PlaceOrder проводит покупку по фиксированной последовательности:
// проверка баланса -> заказ у провайдера -> локальная запись.
func (r *Reconciler) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	// Requested: проверяем баланс до любого сетевого вызова
	user, err := r.repo.Users().Get(req.UserID)
	if err != nil {
		return &OrderResult{State: StateRequested}, fmt.Errorf("получение пользователя: %w", err)
	}
	if user.Balance.LessThan(req.Price) {
		return &OrderResult{State: StateRequested}, fmt.Errorf("%w: баланс %s, цена %s",
			ErrInsufficientBalance, user.Balance.String(), req.Price.String())
	}

	// RemoteProvisioning: заказываем услугу
	order, err := r.provider.CreateService(ctx, aeza.CreateServiceRequest{
		Count:      1,
		Term:       req.Term,
		Name:       req.Name,
		ProductID:  req.ProductID,
		Parameters: req.Parameters,
		Method:     "balance",
	})
	if err != nil {
		// По таймауту услуга могла быть создана, хотя ответа мы не
		// получили. Локально заказ отклоняем, но оператора предупреждаем.
		var remoteErr *aeza.RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Timeout() {
			r.notifier.NotifyAdmin(fmt.Sprintf(
				"⏱ Таймаут заказа у провайдера (пользователь %d, тариф %d). Услуга могла быть создана без локальной записи, проверьте список услуг.",
				req.UserID, req.ProductID))
		}
		return &OrderResult{State: StateRemoteRejected}, err
	}

	// RemoteConfirmed: услуга существует и тарифицируется
	service, ok := serviceFromOrder(order)
	if !ok {
		// Заказ подтвержден, но услуг в ответе нет: идентификатор услуги
		// неизвестен, локальную запись делать не из чего. Идентификатор
		// заказа не подменяет идентификатор услуги, это разные пространства.
		recErr := &ReconciliationError{
			UserID: req.UserID,
			Err:    fmt.Errorf("заказ %d подтвержден, но не содержит услуг", order.ID),
		}
		r.notifier.NotifyAdmin(fmt.Sprintf(
			"🚨 Заказ %d (пользователь %d) подтвержден провайдером, но в ответе нет услуг. Средства не списаны, сверьте список услуг вручную.",
			order.ID, req.UserID))
		return &OrderResult{State: StateReconciliationPending}, recErr
	}
	proxy := &db.Proxy{
		UUID:      uuid.NewString(),
		ShortID:   generateShortID(),
		UserID:    req.UserID,
		ServiceID: service.ID,
		ServerIP:  service.IP,
		Link:      serviceLink(service),
	}

	err = r.repo.Transaction(func(tx *gorm.DB) error {
		users := db.NewUserManager(tx)
		if err := users.ChangeBalance(req.UserID, req.Price.Neg()); err != nil {
			return err
		}
		if err := users.ChangeProxyCount(req.UserID, 1); err != nil {
			return err
		}
		if err := db.NewBankManager(tx).Append(&db.Bank{
			UserID:   req.UserID,
			Currency: "RUB",
			Amount:   req.Price.Neg(),
		}); err != nil {
			return err
		}
		if err := db.NewProxyManager(tx).Add(proxy); err != nil {
			return err
		}
		return db.NewJournalManager(tx).Append(&db.Journal{
			UserID:      req.UserID,
			Action:      db.ActionCreate,
			ProxyID:     &proxy.UUID,
			Description: fmt.Sprintf("заказ услуги %d, тариф %d", service.ID, req.ProductID),
		})
	})
	if err != nil {
		// Услуга создана и тарифицируется, но локально не записана.
		// Заказ нельзя повторять как новый: это создаст вторую услугу.
		recErr := &ReconciliationError{
			ServiceID: service.ID,
			UserID:    req.UserID,
			Err:       err,
		}
		r.notifier.NotifyAdmin(fmt.Sprintf(
			"🚨 РАССИНХРОНИЗАЦИЯ: услуга %d создана у провайдера, но не записана локально (пользователь %d). Требуется ручная сверка.\n\nОшибка: %v",
			service.ID, req.UserID, err))
		return &OrderResult{State: StateReconciliationPending}, recErr
	}

	return &OrderResult{State: StateLocallyRecorded, Proxy: proxy}, nil
}

// DeleteProxy удаляет услугу: сначала у провайдера, затем локально.
// При ошибке удаленного вызова локальная запись остается нетронутой:
// услуга может продолжать существовать и тарифицироваться.
func (r *Reconciler) DeleteProxy(ctx context.Context, shortID string) error {
	proxy, err := r.repo.Proxies().GetByShortID(shortID)
	if err != nil {
		return fmt.Errorf("получение прокси %s: %w", shortID, err)
	}

	if err := r.provider.DeleteService(ctx, proxy.ServiceID); err != nil {
		return fmt.Errorf("удаление услуги %d у провайдера: %w", proxy.ServiceID, err)
	}

	err = r.repo.Transaction(func(tx *gorm.DB) error {
		if err := db.NewProxyManager(tx).Remove(shortID); err != nil {
			return err
		}
		if err := db.NewUserManager(tx).ChangeProxyCount(proxy.UserID, -1); err != nil {
			return err
		}
		return db.NewJournalManager(tx).Append(&db.Journal{
			UserID:      proxy.UserID,
			Action:      db.ActionDelete,
			ProxyID:     &proxy.UUID,
			Description: fmt.Sprintf("удаление услуги %d", proxy.ServiceID),
		})
	})
	if err != nil {
		recErr := &ReconciliationError{
			ServiceID: proxy.ServiceID,
			UserID:    proxy.UserID,
			Err:       err,
		}
		r.notifier.NotifyAdmin(fmt.Sprintf(
			"🚨 РАССИНХРОНИЗАЦИЯ: услуга %d удалена у провайдера, но локальная запись %s осталась (пользователь %d).\n\nОшибка: %v",
			proxy.ServiceID, shortID, proxy.UserID, err))
		return recErr
	}

	return nil
}

// Freeze замораживает прокси локально. Провайдер не вызывается:
// приостановка на его стороне - отдельная операция через ControlService.
func (r *Reconciler) Freeze(shortID string) error {
	return r.setFrozen(shortID, true, db.ActionFreeze)
}

// Unfreeze размораживает прокси локально.
func (r *Reconciler) Unfreeze(shortID string) error {
	return r.setFrozen(shortID, false, db.ActionUnfreeze)
}

func (r *Reconciler) setFrozen(shortID string, frozen bool, action string) error {
	proxy, err := r.repo.Proxies().GetByShortID(shortID)
	if err != nil {
		return fmt.Errorf("получение прокси %s: %w", shortID, err)
	}

	return r.repo.Transaction(func(tx *gorm.DB) error {
		if err := db.NewProxyManager(tx).SetFrozen(shortID, frozen); err != nil {
			return err
		}
		return db.NewJournalManager(tx).Append(&db.Journal{
			UserID:  proxy.UserID,
			Action:  action,
			ProxyID: &proxy.UUID,
		})
	})
}

// Credit пополняет баланс пользователя: изменение баланса, запись в Bank
// и запись в журнал проходят одной транзакцией.
func (r *Reconciler) Credit(userID int64, amount decimal.Decimal, description string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("сумма пополнения должна быть положительной: %s", amount.String())
	}

	return r.repo.Transaction(func(tx *gorm.DB) error {
		if err := db.NewUserManager(tx).ChangeBalance(userID, amount); err != nil {
			return err
		}
		if err := db.NewBankManager(tx).Append(&db.Bank{
			UserID:   userID,
			Currency: "RUB",
			Amount:   amount,
		}); err != nil {
			return err
		}
		return db.NewJournalManager(tx).Append(&db.Journal{
			UserID:      userID,
			Action:      db.ActionCredit,
			Description: description,
		})
	})
}

func serviceFromOrder(order *aeza.Order) (aeza.Service, bool) {
	if len(order.Items) == 0 {
		return aeza.Service{}, false
	}
	return order.Items[0], true
}

func serviceLink(service aeza.Service) string {
	if service.Link != "" {
		return service.Link
	}
	return fmt.Sprintf("https://my.aeza.net/services/%d", service.ID)
}

func generateShortID() string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
