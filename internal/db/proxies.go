package db

import "gorm.io/gorm"

// ProxyManager - операции над купленными услугами.
type ProxyManager struct {
	db *gorm.DB
}

func NewProxyManager(db *gorm.DB) *ProxyManager {
	return &ProxyManager{db: db}
}

func (m *ProxyManager) Add(proxy *Proxy) error {
	return m.db.Create(proxy).Error
}

func (m *ProxyManager) GetByShortID(shortID string) (*Proxy, error) {
	var proxy Proxy
	if err := m.db.First(&proxy, "short_id = ?", shortID).Error; err != nil {
		return nil, err
	}
	return &proxy, nil
}

func (m *ProxyManager) ListByUser(userID int64) ([]Proxy, error) {
	var proxies []Proxy
	if err := m.db.Where("user_id = ?", userID).Find(&proxies).Error; err != nil {
		return nil, err
	}
	return proxies, nil
}

func (m *ProxyManager) List() ([]Proxy, error) {
	var proxies []Proxy
	if err := m.db.Find(&proxies).Error; err != nil {
		return nil, err
	}
	return proxies, nil
}

// Remove удаляет локальную запись. Вызывается только после подтвержденного
// удаления услуги на стороне провайдера.
func (m *ProxyManager) Remove(shortID string) error {
	return m.db.Where("short_id = ?", shortID).Delete(&Proxy{}).Error
}

func (m *ProxyManager) SetFrozen(shortID string, frozen bool) error {
	return m.db.Model(&Proxy{}).Where("short_id = ?", shortID).
		Update("is_frozen", frozen).Error
}
