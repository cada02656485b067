// internal/bot/bot.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"paycheck-tracker/internal/auth"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/finance"
	"paycheck-tracker/internal/period"
	"paycheck-tracker/internal/storage"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
)

const helpText = "💸 *Paycheck tracker*\n\n" +
	"Account:\n" +
	"`/register email password name`\n" +
	"`/login email password`\n" +
	"`/logout`\n\n" +
	"Balance:\n" +
	"`/balance [first|second]` - current pay period\n" +
	"`/history` - balance per month\n\n" +
	"Records:\n" +
	"`/paycheck 5000`\n" +
	"`/expense 120.50 Groceries`\n" +
	"`/fixed 14 1500 Rent` - day, amount, name\n" +
	"`/card Visa 3200 25 5` - name, debt, closing day, due day\n" +
	"`/saving 10000` - current savings balance"

// Sender is the part of the telegram client the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// chat is the state of one telegram chat: its session and, while signed in,
// a tracker following the user's records.
type chat struct {
	session *auth.Session
	tracker *finance.Tracker
	stop    context.CancelFunc
}

type Bot struct {
	api     Sender
	auth    *auth.Service
	finance *finance.Service
	store   storage.RecordStorage
	loc     *time.Location
	format  formatter

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	chats map[int64]*chat
}

type Option func(*Bot)

// WithLanguage sets the language amounts are formatted in.
func WithLanguage(tag language.Tag) Option {
	return func(b *Bot) { b.format = newFormatter(tag) }
}

func WithLocation(loc *time.Location) Option {
	return func(b *Bot) {
		if loc != nil {
			b.loc = loc
		}
	}
}

func New(api Sender, authSvc *auth.Service, fin *finance.Service, store storage.RecordStorage, opts ...Option) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		api:     api,
		auth:    authSvc,
		finance: fin,
		store:   store,
		loc:     time.Local,
		format:  newFormatter(language.AmericanEnglish),
		ctx:     ctx,
		cancel:  cancel,
		chats:   make(map[int64]*chat),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Close stops every chat tracker.
func (b *Bot) Close() {
	b.cancel()
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.chats {
		if c.stop != nil {
			c.stop()
		}
		delete(b.chats, id)
	}
}

// Run long-polls telegram until ctx is done.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	slog.Info("Bot started", "username", api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("update channel closed")
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers one update, from the webhook or the long poll.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	reply := b.Handle(ctx, chatID, update.Message.Text)

	msg := tgbotapi.NewMessage(chatID, reply)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("Failed to send reply", "error", err, "chat_id", chatID)
	}
}

func (b *Bot) chat(chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chats[chatID]
	if !ok {
		c = &chat{session: auth.NewSession(b.auth)}
		b.chats[chatID] = c
	}
	return c
}

// Handle runs one command and returns the reply text.
func (b *Bot) Handle(ctx context.Context, chatID int64, text string) string {
	cmd, args := splitCommand(text)
	slog.Info("Bot command", "chat_id", chatID, "command", cmd)
	c := b.chat(chatID)

	switch cmd {
	case "/start", "/help":
		return helpText
	case "/register":
		if len(args) < 2 {
			return "❌ Use: /register email password name"
		}
		err := c.session.CreateAccount(ctx, args[0], args[1], strings.Join(args[2:], " "))
		return b.afterSignIn(chatID, c, err)
	case "/login":
		if len(args) != 2 {
			return "❌ Use: /login email password"
		}
		err := c.session.SignIn(ctx, args[0], args[1])
		return b.afterSignIn(chatID, c, err)
	case "/logout":
		b.stopTracker(chatID)
		if c.session.Current() == nil {
			return "You are not signed in."
		}
		if err := c.session.SignOut(ctx); err != nil {
			slog.Warn("Sign-out failed", "error", err, "chat_id", chatID)
		}
		return "👋 Signed out"
	}

	id := c.session.Current()
	if id == nil {
		if cmd == "" || !strings.HasPrefix(cmd, "/") {
			return "Unknown command. Send /help"
		}
		return "🔒 Please /login or /register first."
	}

	var reply string
	var err error
	switch cmd {
	case "/balance":
		reply, err = b.balance(ctx, chatID, args)
	case "/history":
		reply, err = b.history(ctx, chatID)
	case "/paycheck":
		reply, err = b.addPaycheck(ctx, id.UserID, args)
	case "/expense":
		reply, err = b.addExpense(ctx, id.UserID, args)
	case "/fixed":
		reply, err = b.addFixed(ctx, id.UserID, args)
	case "/card":
		reply, err = b.addCard(ctx, id.UserID, args)
	case "/saving":
		reply, err = b.setSaving(ctx, id.UserID, args)
	default:
		return "Unknown command. Send /help"
	}
	if err != nil {
		return b.errorReply(chatID, err)
	}
	return reply
}

func (b *Bot) errorReply(chatID int64, err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "❌ Amounts look like 1234.56"
	case errors.Is(err, domain.ErrInvalidDay):
		return "❌ Days go from 1 to 31"
	case errors.Is(err, domain.ErrMissingName):
		return "❌ A name is required"
	case errors.Is(err, domain.ErrUnauthorized):
		return "🔒 " + auth.Message(err)
	default:
		slog.Error("Bot command failed", "error", err, "chat_id", chatID)
		return "❌ Something went wrong. Please try again."
	}
}

func (b *Bot) afterSignIn(chatID int64, c *chat, err error) string {
	if err != nil {
		return "❌ " + c.session.ErrorMessage()
	}
	id := c.session.Current()
	b.startTracker(chatID, c, id.UserID)

	name := id.DisplayName
	if name == "" {
		name = id.Email
	}
	return fmt.Sprintf("✅ Welcome, %s! Send /balance to see your pay period.", escape(name))
}

func (b *Bot) startTracker(chatID int64, c *chat, userID string) {
	b.stopTracker(chatID)

	ctx, stop := context.WithCancel(b.ctx)
	tr := finance.NewTracker(b.store, userID, finance.WithLocation(b.loc))
	go func() {
		if err := tr.Run(ctx); err != nil {
			slog.Error("Chat tracker stopped", "error", err, "chat_id", chatID)
		}
	}()

	b.mu.Lock()
	c.tracker = tr
	c.stop = stop
	b.mu.Unlock()
}

func (b *Bot) stopTracker(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chats[chatID]
	if !ok || c.stop == nil {
		return
	}
	c.stop()
	c.stop = nil
	c.tracker = nil
}

// readyTracker returns the chat tracker once it has loaded every collection.
func (b *Bot) readyTracker(ctx context.Context, chatID int64) (*finance.Tracker, error) {
	b.mu.Lock()
	tr := b.chats[chatID].tracker
	b.mu.Unlock()
	if tr == nil {
		return nil, domain.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	select {
	case <-tr.Ready():
		return tr, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for records: %w", ctx.Err())
	}
}

func (b *Bot) balance(ctx context.Context, chatID int64, args []string) (string, error) {
	tr, err := b.readyTracker(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(args) > 0 {
		p, err := period.Parse(args[0])
		if err != nil {
			return "❌ Use: /balance first or /balance second", nil
		}
		if err := tr.SetPeriod(p); err != nil {
			return "", err
		}
	}
	return b.format.summary(tr.Summary()), nil
}

func (b *Bot) history(ctx context.Context, chatID int64) (string, error) {
	tr, err := b.readyTracker(ctx, chatID)
	if err != nil {
		return "", err
	}
	return b.format.history(tr.History()), nil
}

func (b *Bot) addPaycheck(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) != 1 {
		return "❌ Use: /paycheck 5000", nil
	}
	amount, err := finance.ParseAmount(args[0])
	if err != nil {
		return "", err
	}
	p, err := b.finance.AddPaycheck(ctx, userID, domain.Paycheck{Amount: amount})
	if err != nil {
		return "", err
	}
	return "✅ Paycheck saved: " + b.format.money(p.Amount), nil
}

func (b *Bot) addExpense(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) < 2 {
		return "❌ Use: /expense 120.50 Groceries", nil
	}
	amount, err := finance.ParseAmount(args[0])
	if err != nil {
		return "", err
	}
	e, err := b.finance.AddExpense(ctx, userID, domain.Expense{Name: strings.Join(args[1:], " "), Amount: amount})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Expense saved: %s %s", escape(e.Name), b.format.money(e.Amount)), nil
}

func (b *Bot) addFixed(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) < 3 {
		return "❌ Use: /fixed 14 1500 Rent", nil
	}
	day, err := finance.ParseDay(args[0])
	if err != nil {
		return "", err
	}
	amount, err := finance.ParseAmount(args[1])
	if err != nil {
		return "", err
	}
	f, err := b.finance.AddFixedExpense(ctx, userID, domain.FixedExpense{Name: strings.Join(args[2:], " "), Amount: amount, DayOfMonth: day})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Fixed expense saved: %s on day %d (%s)", escape(f.Name), f.DayOfMonth, period.Classify(f.DayOfMonth).DisplayName()), nil
}

func (b *Bot) addCard(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) < 4 {
		return "❌ Use: /card Visa 3200 25 5", nil
	}
	// the name may contain spaces; the last three fields are numbers
	n := len(args)
	debt, err := finance.ParseAmount(args[n-3])
	if err != nil {
		return "", err
	}
	closing, err := finance.ParseDay(args[n-2])
	if err != nil {
		return "", err
	}
	due, err := finance.ParseDay(args[n-1])
	if err != nil {
		return "", err
	}
	c, err := b.finance.AddCreditCard(ctx, userID, domain.CreditCard{
		Name:          strings.Join(args[:n-3], " "),
		CurrentDebt:   debt,
		ClosingDay:    closing,
		PaymentDueDay: due,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Card saved: %s, %s due on day %d", escape(c.Name), b.format.money(c.CurrentDebt), c.PaymentDueDay), nil
}

func (b *Bot) setSaving(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) != 1 {
		return "❌ Use: /saving 10000", nil
	}
	amount, err := finance.ParseAmount(args[0])
	if err != nil {
		return "", err
	}
	sv, err := b.finance.SetSavings(ctx, userID, amount)
	if err != nil {
		return "", err
	}
	return "✅ Savings updated: " + b.format.money(sv.Amount), nil
}
