package db

import "gorm.io/gorm"

// JournalManager - журнал действий. Записи не обновляются и не удаляются.
type JournalManager struct {
	db *gorm.DB
}

func NewJournalManager(db *gorm.DB) *JournalManager {
	return &JournalManager{db: db}
}

func (m *JournalManager) Append(entry *Journal) error {
	return m.db.Create(entry).Error
}

func (m *JournalManager) Recent(limit int) ([]Journal, error) {
	var entries []Journal
	err := m.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (m *JournalManager) ListByUser(userID int64) ([]Journal, error) {
	var entries []Journal
	err := m.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
