package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(dsn string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return &Repository{db: db}, nil
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Transaction выполняет fn в одной транзакции: commit при nil,
// rollback при любой ошибке. Частичные записи не остаются видимыми.
func (r *Repository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func (r *Repository) AutoMigrate() error {
	return Migrate(r.db)
}

// Ping проверяет соединение с базой. Используется проверкой готовности.
func (r *Repository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (r *Repository) Users() *UserManager {
	return NewUserManager(r.db)
}

func (r *Repository) Proxies() *ProxyManager {
	return NewProxyManager(r.db)
}

func (r *Repository) Journal() *JournalManager {
	return NewJournalManager(r.db)
}

func (r *Repository) Bank() *BankManager {
	return NewBankManager(r.db)
}
