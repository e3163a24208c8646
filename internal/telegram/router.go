package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
)

// Pending steps used in conversational flows.
const (
	stepMedName  = "await_med_name"
	stepTime     = "await_time_text"
	stepDays     = "await_days_text"
	stepRuleTZ   = "await_rule_tz_text"
	stepUserTZ   = "await_user_tz_text"
	stepStock    = "await_stock_text"
	stepConfirm  = "await_confirm"
	stepDaysPick = "await_days_pick"
	stepTZPick   = "await_tz_pick"
)

// Bot is the part of the Telegram API the router uses. *tgbotapi.BotAPI satisfies it.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// pending is one chat's in-progress flow. The rule fields fill in as the
// add-time flow advances.
type pending struct {
	step  string
	medID int64
	tod   string
	days  string
	tz    string
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot       Bot
	log       *zap.Logger
	repo      store.Repo
	defaultTZ string
	now       func() time.Time

	state map[int64]*pending // chatID -> pending flow
	mu    sync.RWMutex
}

// NewRouter creates a new Telegram router. defaultTZ seeds new users' zone.
func NewRouter(bot Bot, log *zap.Logger, repo store.Repo, defaultTZ string) *Router {
	return &Router{
		bot:       bot,
		log:       log,
		repo:      repo,
		defaultTZ: defaultTZ,
		now:       time.Now,
		state:     make(map[int64]*pending),
	}
}

// setPending replaces the pending flow for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, p *pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = p
}

// getPending returns a copy of the chat's pending flow, or nil.
func (r *Router) getPending(chatID int64) *pending {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.state[chatID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// clearPending clears a pending flow for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil && upd.Message.Chat != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.clearPending(chatID)
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/meds"):
			r.clearPending(chatID)
			r.handleMeds(ctx, chatID)
		case strings.HasPrefix(text, "/add"):
			r.clearPending(chatID)
			r.handleAdd(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/add")))
		case strings.HasPrefix(text, "/next"):
			r.handleNext(ctx, chatID)
		case strings.HasPrefix(text, "/tz"):
			r.clearPending(chatID)
			r.handleTZ(ctx, chatID)
		case strings.HasPrefix(text, "/cancel"):
			r.clearPending(chatID)
			r.sendText(chatID, "Cancelled.")
		default:
			// Free-form text answers the pending step, if any.
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil {
		cb := upd.CallbackQuery
		data := cb.Data
		chatID := cb.Message.Chat.ID

		switch {
		case strings.HasPrefix(data, "addtime:"):
			r.handleAddTimeCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, "days:"):
			r.handleDaysCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, "ruletz:"):
			r.handleRuleTZCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, "confirm:"):
			r.handleConfirmCallback(ctx, chatID, data, cb.ID)

		case strings.HasPrefix(data, "toggle:"):
			r.handleToggleCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, "delrule:"):
			r.handleDeleteRuleCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, "delmed:"):
			r.handleDeleteMedCallback(ctx, chatID, data, cb.ID)
		case strings.HasPrefix(data, "stock:"):
			r.handleStockCallback(ctx, chatID, data, cb.ID)

		case strings.HasPrefix(data, "tz:"):
			r.handleUserTZCallback(ctx, chatID, data, cb.ID)

		default:
			// Unknown callback: acknowledge so the client stops spinning.
			_ = r.answerCallback(cb.ID, "")
		}
		return
	}
}

// SendMessage sends a plain text message to the given chat.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
