package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"aeza-bot/internal/config"
	"aeza-bot/internal/db"
	"aeza-bot/internal/gates/aeza"
)

// ProviderAPI - часть клиента Aeza, нужная фоновым задачам.
type ProviderAPI interface {
	ListMyServices(ctx context.Context) ([]aeza.Service, error)
}

type Scheduler struct {
	cron     *cron.Cron
	repo     *db.Repository
	bot      *tgbotapi.BotAPI
	cfg      *config.Config
	provider ProviderAPI
}

func NewScheduler(repo *db.Repository, bot *tgbotapi.BotAPI, cfg *config.Config, provider ProviderAPI) (*Scheduler, error) {
	return &Scheduler{
		cron:     cron.New(),
		repo:     repo,
		bot:      bot,
		cfg:      cfg,
		provider: provider,
	}, nil
}

func (s *Scheduler) Start() error {
	// Cron-задача: сверка услуг провайдера с локальными записями (ежедневно в 00:15)
	_, err := s.cron.AddFunc("15 0 * * *", s.checkServiceDrift)
	if err != nil {
		return fmt.Errorf("failed to add service drift job: %w", err)
	}

	// Cron-задача: сверка балансов с движениями Bank (ежедневно в 03:00)
	// Доступность API провайдера отслеживает периодическая проверка
	// из aezatest, у нее есть эскалация по серии сбоев
	_, err = s.cron.AddFunc("0 3 * * *", s.auditLedger)
	if err != nil {
		return fmt.Errorf("failed to add ledger audit job: %w", err)
	}

	// Запускаем планировщик
	s.cron.Start()
	slog.Info("Cron scheduler started")

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("Cron scheduler stopped")
}

// checkServiceDrift сравнивает список услуг на стороне провайдера с
// локальными записями. Услуга без локальной записи - возможный след
// незавершенного заказа: ее никогда не дозаказывают автоматически,
// оператор сверяет вручную.
func (s *Scheduler) checkServiceDrift() {
	slog.Info("Running provider service drift check...")

	ctx := context.Background()
	services, err := s.provider.ListMyServices(ctx)
	if err != nil {
		slog.Error("Error fetching provider services", "error", err)
		s.sendHealthAlert(fmt.Sprintf("Не удалось получить список услуг провайдера: %v", err))
		return
	}

	proxies, err := s.repo.Proxies().List()
	if err != nil {
		slog.Error("Error fetching local proxies", "error", err)
		return
	}

	known := make(map[int64]bool, len(proxies))
	for _, proxy := range proxies {
		known[proxy.ServiceID] = true
	}

	var orphans []aeza.Service
	for _, service := range services {
		if !known[service.ID] {
			orphans = append(orphans, service)
		}
	}

	var stale []db.Proxy
	remote := make(map[int64]bool, len(services))
	for _, service := range services {
		remote[service.ID] = true
	}
	for _, proxy := range proxies {
		if !remote[proxy.ServiceID] {
			stale = append(stale, proxy)
		}
	}

	if len(orphans) == 0 && len(stale) == 0 {
		slog.Info("Service drift check passed", "services", len(services), "proxies", len(proxies))
		return
	}

	report := "🔍 Сверка услуг с провайдером:\n"
	for _, service := range orphans {
		report += fmt.Sprintf("\n🚨 Услуга %d (%s, %s) тарифицируется, но не записана локально",
			service.ID, service.Name, service.IP)
	}
	for _, proxy := range stale {
		report += fmt.Sprintf("\n⚠️ Прокси %s ссылается на услугу %d, которой нет у провайдера",
			proxy.ShortID, proxy.ServiceID)
	}
	report += "\n\nТребуется ручная сверка."

	slog.Warn("Service drift detected", "orphans", len(orphans), "stale", len(stale))
	s.sendAdminReport(report)
}

// auditLedger сверяет баланс каждого пользователя с суммой его движений
func (s *Scheduler) auditLedger() {
	slog.Info("Running ledger audit...")

	users, err := s.repo.Users().List()
	if err != nil {
		slog.Error("Error fetching users for ledger audit", "error", err)
		return
	}

	mismatches := 0
	report := "📒 Сверка балансов с движениями:\n"

	for _, user := range users {
		sum, err := s.repo.Bank().SumForUser(user.ID)
		if err != nil {
			slog.Error("Error summing bank entries", "user_id", user.ID, "error", err)
			continue
		}

		if !sum.Equal(user.Balance) {
			mismatches++
			report += fmt.Sprintf("\n⚠️ Пользователь %d: баланс %s, сумма движений %s",
				user.ID, user.Balance.String(), sum.String())
		}
	}

	if mismatches == 0 {
		slog.Info("Ledger audit passed", "users", len(users))
		return
	}

	slog.Warn("Ledger audit found mismatches", "count", mismatches)
	s.sendAdminReport(report)
}

// sendAdminReport отправляет отчет супер-админу
func (s *Scheduler) sendAdminReport(message string) {
	if s.cfg.SuperAdminID == "" {
		return
	}

	adminID, err := strconv.ParseInt(s.cfg.SuperAdminID, 10, 64)
	if err != nil {
		return
	}

	msg := tgbotapi.NewMessage(adminID, message)
	s.bot.Send(msg)
}

// sendHealthAlert отправляет алерт о проблемах со здоровьем системы
func (s *Scheduler) sendHealthAlert(message string) {
	slog.Warn("Health alert", "message", message)
	s.sendAdminReport("🚨 " + message)
}
