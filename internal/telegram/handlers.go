package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/metrics"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
)

const (
	maxNameLen    = 128
	dayPresetWork = "mon,tue,wed,thu,fri"
	dayPresetWknd = "sat,sun"
)

// ensureUser makes sure a user row exists; if not, creates it with defaults.
func (r *Router) ensureUser(ctx context.Context, chatID int64) (*domain.User, error) {
	u, err := r.repo.GetUser(ctx, chatID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	u = &domain.User{
		ChatID:    chatID,
		TZ:        r.defaultTZ,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.repo.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendWithMarkup(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, _ = r.bot.Send(msg)
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// callbackID extracts the numeric id after prefix in callback data.
func callbackID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id, err == nil && id > 0
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	if _, err := r.ensureUser(ctx, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}
	r.sendWithMarkup(chatID, startText, mainMenuKeyboard())
}

func (r *Router) handleMeds(ctx context.Context, chatID int64) {
	meds, err := r.repo.ListMedications(ctx, chatID)
	if err != nil {
		r.log.Error("list medications failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, "Error reading your pillbox.")
		return
	}
	if len(meds) == 0 {
		r.sendText(chatID, emptyPillboxText)
		return
	}
	for i := range meds {
		r.sendWithMarkup(chatID, medicationText(&meds[i]), medicationKeyboard(&meds[i]))
	}
}

func (r *Router) handleAdd(ctx context.Context, chatID int64, name string) {
	if name == "" {
		r.setPending(chatID, &pending{step: stepMedName})
		r.sendText(chatID, "What is the medication called?")
		return
	}
	r.createMedication(ctx, chatID, name)
}

func (r *Router) createMedication(ctx context.Context, chatID int64, name string) {
	if len(name) > maxNameLen {
		r.sendText(chatID, "Too long. Please keep the name under 128 characters.")
		return
	}
	m := &domain.Medication{ChatID: chatID, Name: name, LowStockThreshold: 5}
	if err := r.repo.CreateMedication(ctx, m); err != nil {
		r.log.Error("create medication failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save medication.")
		return
	}
	r.sendWithMarkup(chatID, "Added "+m.Name+". Set a reminder time?", addTimeKeyboard(m.ID))
}

func (r *Router) handleNext(ctx context.Context, chatID int64) {
	meds, err := r.repo.ListMedications(ctx, chatID)
	if err != nil {
		r.log.Error("list medications failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, "Error reading your pillbox.")
		return
	}
	entries := countdown.Compute(countdown.Snapshot(meds), r.now())
	metrics.RecordRecompute("bot", len(entries))
	r.sendText(chatID, countdownText(entries))
}

func (r *Router) handleTZ(ctx context.Context, chatID int64) {
	u, err := r.ensureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Error reading your settings.")
		return
	}
	r.sendWithMarkup(chatID, "Your default timezone: "+u.TZ+"\nChoose a new one or enter your own (Region/City):",
		tzPresetsKeyboard("tz:", u.TZ))
}

// --- Free-form dispatcher (for every typed answer) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	p := r.getPending(chatID)
	if p == nil {
		// No pending flow: ignore free-form message
		return
	}

	switch p.step {
	case stepMedName:
		r.clearPending(chatID)
		if text == "" {
			r.sendText(chatID, "The name cannot be empty.")
			return
		}
		r.createMedication(ctx, chatID, text)

	case stepTime:
		t, err := domain.ParseTimeOfDay(text)
		if err != nil {
			r.sendText(chatID, "Invalid time. Use 24h HH:MM, e.g. 08:00 or 21:30.")
			return
		}
		p.tod = t.String()
		p.step = stepDaysPick
		r.setPending(chatID, p)
		r.sendWithMarkup(chatID, "On which days?", daysKeyboard())

	case stepDays:
		days, err := domain.NormalizeDays(text)
		if err != nil {
			r.sendText(chatID, "Invalid days. Example: mon,wed,fri")
			return
		}
		p.days = days
		r.askRuleTZ(ctx, chatID, p)

	case stepRuleTZ:
		tz, err := domain.ValidateTZ(text)
		if err != nil {
			r.sendText(chatID, "Invalid timezone. Example: America/New_York")
			return
		}
		p.tz = tz
		r.showPreview(chatID, p)

	case stepUserTZ:
		r.clearPending(chatID)
		tz, err := domain.ValidateTZ(text)
		if err != nil {
			r.sendText(chatID, "Invalid timezone. Example: America/New_York")
			return
		}
		r.updateUserTZ(ctx, chatID, tz)

	case stepStock:
		r.clearPending(chatID)
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			r.sendText(chatID, "Stock must be a whole number, 0 or more.")
			return
		}
		if err := r.repo.SetStock(ctx, chatID, p.medID, n); err != nil {
			r.log.Error("set stock failed", zap.Int64("med_id", p.medID), zap.Error(err))
			r.sendText(chatID, "Could not update stock.")
			return
		}
		r.sendText(chatID, "Stock updated: "+strconv.Itoa(n))

	default:
		// Waiting on a button press; typed text is ignored.
	}
}

// --- Add-time flow: time -> days -> zone -> preview -> confirm ---

func (r *Router) handleAddTimeCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	medID, ok := callbackID(data, "addtime:")
	if !ok {
		return
	}
	m, err := r.repo.GetMedication(ctx, chatID, medID)
	if err != nil {
		r.sendText(chatID, "That medication is no longer in your pillbox.")
		return
	}
	r.setPending(chatID, &pending{step: stepTime, medID: medID})
	r.sendText(chatID, "Reminder time for "+m.Name+"? Send HH:MM (24h), e.g. 08:00")
}

func (r *Router) handleDaysCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	p := r.getPending(chatID)
	if p == nil || p.step != stepDaysPick {
		return
	}
	switch strings.TrimPrefix(data, "days:") {
	case "custom":
		p.step = stepDays
		r.setPending(chatID, p)
		r.sendText(chatID, "Enter days separated by commas, e.g. mon,wed,fri")
		return
	case "weekdays":
		p.days = dayPresetWork
	case "weekends":
		p.days = dayPresetWknd
	default:
		p.days = domain.Daily
	}
	r.askRuleTZ(ctx, chatID, p)
}

func (r *Router) askRuleTZ(ctx context.Context, chatID int64, p *pending) {
	current := r.defaultTZ
	if u, err := r.ensureUser(ctx, chatID); err == nil {
		current = u.TZ
	}
	p.step = stepTZPick
	r.setPending(chatID, p)
	r.sendWithMarkup(chatID, "Which timezone should this reminder follow?", tzPresetsKeyboard("ruletz:", current))
}

func (r *Router) handleRuleTZCallback(_ context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	p := r.getPending(chatID)
	if p == nil || p.step != stepTZPick {
		return
	}
	val := strings.TrimPrefix(data, "ruletz:")
	if val == "custom" {
		p.step = stepRuleTZ
		r.setPending(chatID, p)
		r.sendText(chatID, "Enter timezone (e.g., America/New_York):")
		return
	}
	tz, err := domain.ValidateTZ(val)
	if err != nil {
		r.sendText(chatID, "Invalid timezone. Example: America/New_York")
		return
	}
	p.tz = tz
	r.showPreview(chatID, p)
}

// showPreview resolves the drafted rule's next occurrence and asks for confirmation.
func (r *Router) showPreview(chatID int64, p *pending) {
	rule, err := domain.NewRule(p.medID, p.tod, p.days, p.tz)
	if err != nil {
		metrics.RecordPreview("invalid")
		r.clearPending(chatID)
		r.log.Warn("draft rule rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, "That reminder is not valid. Please start again.")
		return
	}
	p.step = stepConfirm
	r.setPending(chatID, p)

	now := r.now()
	occ, ok := rule.Next(now)
	if ok {
		metrics.RecordPreview("found")
	} else {
		metrics.RecordPreview("none")
	}
	r.sendWithMarkup(chatID, previewText(rule, occ, ok, now), confirmKeyboard())
}

func (r *Router) handleConfirmCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	p := r.getPending(chatID)
	if p == nil || p.step != stepConfirm {
		return
	}
	r.clearPending(chatID)
	if data != "confirm:yes" {
		r.sendText(chatID, "Discarded.")
		return
	}

	rule, err := domain.NewRule(p.medID, p.tod, p.days, p.tz)
	if err != nil {
		r.sendText(chatID, "That reminder is not valid. Please start again.")
		return
	}
	if err := r.repo.CreateRule(ctx, chatID, &rule); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.sendText(chatID, "That medication is no longer in your pillbox.")
			return
		}
		r.log.Error("create rule failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save reminder.")
		return
	}
	r.log.Info("rule created",
		zap.Int64("chat_id", chatID),
		zap.Int64("rule_id", rule.ID),
		zap.String("cron", rule.CronSpec()),
	)
	r.sendText(chatID, "Saved: "+ruleText(rule))
}

// --- Pillbox management ---

func (r *Router) handleToggleCallback(ctx context.Context, chatID int64, data, cbID string) {
	ruleID, ok := callbackID(data, "toggle:")
	if !ok {
		_ = r.answerCallback(cbID, "")
		return
	}
	m, rule, found := r.findRule(ctx, chatID, ruleID)
	if !found {
		_ = r.answerCallback(cbID, "Not found")
		return
	}
	if err := r.repo.SetRuleEnabled(ctx, chatID, ruleID, !rule.Enabled); err != nil {
		r.log.Error("toggle rule failed", zap.Int64("rule_id", ruleID), zap.Error(err))
		_ = r.answerCallback(cbID, "Failed")
		return
	}
	if rule.Enabled {
		_ = r.answerCallback(cbID, "Paused ⏸")
	} else {
		_ = r.answerCallback(cbID, "Resumed ✅")
	}
	if fresh, err := r.repo.GetMedication(ctx, chatID, m.ID); err == nil {
		r.sendWithMarkup(chatID, medicationText(fresh), medicationKeyboard(fresh))
	}
}

// findRule looks a rule up through the chat's pillbox.
func (r *Router) findRule(ctx context.Context, chatID, ruleID int64) (domain.Medication, domain.Rule, bool) {
	meds, err := r.repo.ListMedications(ctx, chatID)
	if err != nil {
		r.log.Error("list medications failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return domain.Medication{}, domain.Rule{}, false
	}
	for _, m := range meds {
		for _, rule := range m.Rules {
			if rule.ID == ruleID {
				return m, rule, true
			}
		}
	}
	return domain.Medication{}, domain.Rule{}, false
}

func (r *Router) handleDeleteRuleCallback(ctx context.Context, chatID int64, data, cbID string) {
	ruleID, ok := callbackID(data, "delrule:")
	if !ok {
		_ = r.answerCallback(cbID, "")
		return
	}
	if err := r.repo.DeleteRule(ctx, chatID, ruleID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Error("delete rule failed", zap.Int64("rule_id", ruleID), zap.Error(err))
		}
		_ = r.answerCallback(cbID, "Not deleted")
		return
	}
	_ = r.answerCallback(cbID, "Deleted")
	r.sendText(chatID, "Reminder deleted.")
}

func (r *Router) handleDeleteMedCallback(ctx context.Context, chatID int64, data, cbID string) {
	medID, ok := callbackID(data, "delmed:")
	if !ok {
		_ = r.answerCallback(cbID, "")
		return
	}
	if err := r.repo.DeleteMedication(ctx, chatID, medID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Error("delete medication failed", zap.Int64("med_id", medID), zap.Error(err))
		}
		_ = r.answerCallback(cbID, "Not deleted")
		return
	}
	_ = r.answerCallback(cbID, "Deleted")
	r.sendText(chatID, "Medication and its reminders deleted.")
}

func (r *Router) handleStockCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	medID, ok := callbackID(data, "stock:")
	if !ok {
		return
	}
	if _, err := r.repo.GetMedication(ctx, chatID, medID); err != nil {
		r.sendText(chatID, "That medication is no longer in your pillbox.")
		return
	}
	r.setPending(chatID, &pending{step: stepStock, medID: medID})
	r.sendText(chatID, "How many doses are left?")
}

// --- Default timezone ---

func (r *Router) handleUserTZCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	val := strings.TrimPrefix(data, "tz:")
	if val == "custom" {
		r.setPending(chatID, &pending{step: stepUserTZ})
		r.sendText(chatID, "Enter timezone (e.g., America/New_York):")
		return
	}
	tz, err := domain.ValidateTZ(val)
	if err != nil {
		r.sendText(chatID, "Invalid timezone. Example: America/New_York")
		return
	}
	r.updateUserTZ(ctx, chatID, tz)
}

func (r *Router) updateUserTZ(ctx context.Context, chatID int64, tz string) {
	u, err := r.ensureUser(ctx, chatID)
	if err == nil {
		u.TZ = tz
		err = r.repo.UpsertUser(ctx, u)
	}
	if err != nil {
		r.log.Error("updateTZ failed", zap.Error(err))
		r.sendText(chatID, "Could not save timezone.")
		return
	}
	r.sendText(chatID, "Timezone updated: "+tz)
}
