package db

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInsufficientBalance возвращается при попытке списать больше, чем есть.
var ErrInsufficientBalance = errors.New("недостаточно средств на балансе")

// UserManager - операции над пользователями. Менеджер может быть привязан
// как к общему пулу, так и к открытой транзакции.
type UserManager struct {
	db *gorm.DB
}

func NewUserManager(db *gorm.DB) *UserManager {
	return &UserManager{db: db}
}

// Register создает пользователя при первом обращении.
func (m *UserManager) Register(id int64, name string) error {
	user := &User{
		ID:      id,
		Name:    name,
		Balance: decimal.Zero,
	}
	return m.db.FirstOrCreate(user, "id = ?", id).Error
}

func (m *UserManager) Get(id int64) (*User, error) {
	var user User
	if err := m.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *UserManager) List() ([]User, error) {
	var users []User
	if err := m.db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ChangeBalance сдвигает баланс на delta одним условным UPDATE: строка
// блокируется самим обновлением, поэтому конкурентные списания для одного
// пользователя не теряются. Отрицательная delta, уводящая баланс ниже
// нуля, отклоняется с ErrInsufficientBalance.
func (m *UserManager) ChangeBalance(id int64, delta decimal.Decimal) error {
	result := m.db.Model(&User{}).
		Where("id = ? AND balance + ? >= 0", id, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		user, err := m.Get(id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: баланс %s, изменение %s",
			ErrInsufficientBalance, user.Balance.String(), delta.String())
	}
	return nil
}

func (m *UserManager) ChangeProxyCount(id int64, delta int) error {
	return m.db.Model(&User{}).Where("id = ?", id).
		Update("proxy_count", gorm.Expr("proxy_count + ?", delta)).Error
}
