package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aeza-bot/internal/config"
	"aeza-bot/internal/db"
	"aeza-bot/internal/reconciler"
)

type Service struct {
	bot      *tgbotapi.BotAPI
	repo     *db.Repository
	cfg      *config.Config
	provider ProviderAPI
	rec      *reconciler.Reconciler
}

func New(cfg *config.Config, bot *tgbotapi.BotAPI, repo *db.Repository, provider ProviderAPI, rec *reconciler.Reconciler) (*Service, error) {
	// Удаляем webhook чтобы использовать long-polling
	_, err := bot.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		slog.Warn("Не удалось удалить webhook", "error", err)
	} else {
		slog.Info("Webhook удален, переключились на long-polling")
	}

	slog.Info("Авторизован как телеграм бот", "username", bot.Self.UserName)

	service := &Service{bot: bot, repo: repo, cfg: cfg, provider: provider, rec: rec}

	// Устанавливаем меню команд
	if err := service.setCommands(); err != nil {
		slog.Warn("Не удалось установить меню команд", "error", err)
	}

	return service, nil
}

func (s *Service) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := s.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			s.handleUpdate(ctx, upd)
		}
	}
}

func (s *Service) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		// Регистрируем пользователя при первом обращении
		if err := s.repo.Users().Register(upd.Message.From.ID, upd.Message.From.UserName); err != nil {
			slog.Error("Не удалось зарегистрировать пользователя", "user_id", upd.Message.From.ID, "error", err)
		}

		if upd.Message.IsCommand() {
			s.handleCommand(ctx, upd.Message)
		}
		return
	}

	if upd.CallbackQuery != nil {
		s.handleCallbackQuery(ctx, upd.CallbackQuery)
		return
	}
}

func (s *Service) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	data := callback.Data

	if strings.HasPrefix(data, CallbackBuyProduct.String()) ||
		strings.HasPrefix(data, CallbackBuyTerm.String()) ||
		strings.HasPrefix(data, CallbackBuyConfirm.String()) ||
		strings.HasPrefix(data, CallbackBuyCancel.String()) {
		s.handleBuyCallback(ctx, callback)
		return
	}

	if strings.HasPrefix(data, CallbackProxyDel.String()) {
		s.handleProxyDeleteCallback(ctx, callback)
		return
	}
}

func (s *Service) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := Command(msg.Command())

	// Проверяем валидность команды
	if !cmd.IsValid() {
		s.handleUnknown(msg)
		return
	}

	// Проверяем права для админских команд
	if cmd.IsAdminOnly() && !s.isAdmin(msg.From.ID) {
		s.reply(msg.Chat.ID, "У вас нет прав для этой команды")
		return
	}

	switch cmd {
	case CmdStart:
		s.handleStart(msg)
	case CmdHelp:
		s.handleHelp(msg)
	case CmdBalance:
		s.handleBalance(msg)
	case CmdBuy:
		s.handleBuy(ctx, msg)
	case CmdMyProxies:
		s.handleMyProxies(msg)
	case CmdCredit:
		s.handleCredit(msg)
	case CmdFreeze:
		s.handleFreeze(msg)
	case CmdUnfreeze:
		s.handleUnfreeze(msg)
	case CmdInfo:
		s.handleInfo(msg)
	case CmdServices:
		s.handleServices(ctx, msg)
	case CmdOS:
		s.handleOS(ctx, msg)
	case CmdRecipes:
		s.handleRecipes(ctx, msg)
	case CmdCtl:
		s.handleCtl(ctx, msg)
	case CmdPasswd:
		s.handlePasswd(ctx, msg)
	case CmdJournal:
		s.handleJournal(msg)
	}
}

func (s *Service) handleStart(msg *tgbotapi.Message) {
	text := `Добро пожаловать! 🌐

Здесь можно купить прокси на серверах Aeza и управлять ими.

Доступные команды:
/buy - купить прокси
/balance - баланс
/myproxies - мои прокси
/help - справка`
	s.reply(msg.Chat.ID, text)
}

func (s *Service) handleHelp(msg *tgbotapi.Message) {
	text := `🌐 Прокси на серверах Aeza

👤 Команды пользователя:
/buy - купить прокси
/myproxies - мои прокси
/balance - баланс и история операций
/help - справка`

	if s.isAdmin(msg.From.ID) {
		text += `

⚡ Администраторские команды:
/credit <id> <сумма> - пополнить баланс пользователя
/freeze <short_id> - заморозить прокси
/unfreeze <short_id> - разморозить прокси
/info <id> - информация о пользователе
/services - услуги на стороне провайдера
/os - список доступных ОС
/recipes - список доступного ПО
/ctl <short_id> <resume|suspend|reboot> - управление сервером
/passwd <short_id> <пароль> - сменить пароль сервера
/journal - последние записи журнала`
	}

	s.reply(msg.Chat.ID, text)
}

func (s *Service) handleUnknown(msg *tgbotapi.Message) {
	s.reply(msg.Chat.ID, "Неизвестная команда. Используйте /help")
}

func (s *Service) reply(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}

func (s *Service) isAdmin(userID int64) bool {
	superAdminID, err := strconv.ParseInt(s.cfg.SuperAdminID, 10, 64)
	return err == nil && superAdminID == userID
}

func (s *Service) answerCallback(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	s.bot.Request(callback)
}

func (s *Service) Bot() *tgbotapi.BotAPI {
	return s.bot
}

func (s *Service) setCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "🚀 Начать работу"},
		{Command: "help", Description: "❓ Справка"},
		{Command: "buy", Description: "💳 Купить прокси"},
		{Command: "myproxies", Description: "🌐 Мои прокси"},
		{Command: "balance", Description: "💰 Баланс"},
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	_, err := s.bot.Request(config)
	return err
}
