package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - пользователи бота. Баланс никогда не уходит в минус:
// списание сверх баланса отклоняется до обращения к провайдеру.
type User struct {
	ID         int64           `gorm:"primaryKey"`
	Name       string          `gorm:"not null"`
	Balance    decimal.Decimal `gorm:"type:numeric;not null;default:0"`
	ProxyCount int             `gorm:"not null;default:0"`
	CreatedAt  time.Time       `gorm:"default:CURRENT_TIMESTAMP"`
}

// Proxy - купленная услуга у провайдера, привязанная к пользователю.
// UUID выдается локально, ServiceID - идентификатор услуги на стороне Aeza.
type Proxy struct {
	UUID      string    `gorm:"primaryKey"`
	ShortID   string    `gorm:"unique;not null"`
	UserID    int64     `gorm:"not null;index"`
	ServiceID int64     `gorm:"not null"`
	ServerIP  string    `gorm:"not null"`
	Link      string    `gorm:"not null"`
	IsFrozen  bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relations
	User User `gorm:"foreignKey:UserID"`
}

// Journal - журнал действий, только на добавление.
type Journal struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      int64  `gorm:"not null;index"`
	Action      string `gorm:"not null;check:action IN ('create','delete','freeze','unfreeze','credit')"`
	ProxyID     *string
	Description string
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

// Bank - денежные движения пользователя, только на добавление.
// Сумма записей пользователя должна сходиться с его балансом.
type Bank struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    int64           `gorm:"not null;index"`
	Currency  string          `gorm:"not null;default:'RUB'"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null"`
	CreatedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP"`

	// Relations
	User User `gorm:"foreignKey:UserID"`
}

// Действия журнала
const (
	ActionCreate   = "create"
	ActionDelete   = "delete"
	ActionFreeze   = "freeze"
	ActionUnfreeze = "unfreeze"
	ActionCredit   = "credit"
)
