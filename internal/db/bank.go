package db

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BankManager - денежные движения. Записи не обновляются и не удаляются.
type BankManager struct {
	db *gorm.DB
}

func NewBankManager(db *gorm.DB) *BankManager {
	return &BankManager{db: db}
}

func (m *BankManager) Append(entry *Bank) error {
	return m.db.Create(entry).Error
}

func (m *BankManager) ListByUser(userID int64) ([]Bank, error) {
	var entries []Bank
	err := m.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SumForUser суммирует движения пользователя. Используется для сверки
// с текущим балансом.
func (m *BankManager) SumForUser(userID int64) (decimal.Decimal, error) {
	var entries []Bank
	if err := m.db.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, entry := range entries {
		sum = sum.Add(entry.Amount)
	}
	return sum, nil
}
