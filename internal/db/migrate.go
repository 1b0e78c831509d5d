package db

import (
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// Сначала выполняем обычную миграцию
	err := db.AutoMigrate(
		&User{},
		&Proxy{},
		&Journal{},
		&Bank{},
	)
	if err != nil {
		return err
	}

	// Обновляем constraint для действий журнала
	return updateJournalActionConstraint(db)
}

func updateJournalActionConstraint(db *gorm.DB) error {
	// Проверяем тип базы данных
	switch db.Dialector.Name() {
	case "sqlite":
		// SQLite не поддерживает изменение constraints, пересоздаем таблицу
		return recreateJournalTableSQLite(db)
	case "postgres":
		// PostgreSQL
		return db.Exec("ALTER TABLE journals DROP CONSTRAINT IF EXISTS chk_journals_action; ALTER TABLE journals ADD CONSTRAINT chk_journals_action CHECK (action IN ('create','delete','freeze','unfreeze','credit'))").Error
	case "mysql":
		// MySQL
		return db.Exec("ALTER TABLE journals DROP CHECK chk_journals_action; ALTER TABLE journals ADD CONSTRAINT chk_journals_action CHECK (action IN ('create','delete','freeze','unfreeze','credit'))").Error
	}
	return nil
}

func recreateJournalTableSQLite(db *gorm.DB) error {
	// Для SQLite создаем новую таблицу с правильным constraint
	return db.Transaction(func(tx *gorm.DB) error {
		// Создаем временную таблицу
		if err := tx.Exec(`CREATE TABLE journals_new (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			action TEXT NOT NULL CHECK (action IN ('create','delete','freeze','unfreeze','credit')),
			proxy_id TEXT,
			description TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`).Error; err != nil {
			return err
		}

		// Копируем данные
		if err := tx.Exec("INSERT INTO journals_new (id, user_id, action, proxy_id, description, created_at) SELECT id, user_id, action, proxy_id, description, created_at FROM journals WHERE action IN ('create','delete','freeze','unfreeze','credit')").Error; err != nil {
			return err
		}

		// Удаляем старую таблицу
		if err := tx.Exec("DROP TABLE journals").Error; err != nil {
			return err
		}

		// Переименовываем новую таблицу
		return tx.Exec("ALTER TABLE journals_new RENAME TO journals").Error
	})
}
