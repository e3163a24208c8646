package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
)

// UI texts in English
const (
	startText = "💊 I keep track of your pillbox.\n\n" +
		"/add - add a medication\n" +
		"/meds - your medications and reminder times\n" +
		"/next - countdown to upcoming doses\n" +
		"/tz - default timezone for new reminders"
	emptyPillboxText = "Your pillbox is empty. Use /add to add a medication."
	noDosesText      = "No upcoming doses. Add a reminder time from /meds."
)

// presetZones are offered next to the chat's own zone.
var presetZones = []string{"America/New_York", "America/Los_Angeles", "Europe/London", "Asia/Tokyo", "UTC"}

// ruleText renders one rule, e.g. "08:00 mon,wed,fri (Asia/Tokyo)".
func ruleText(r domain.Rule) string {
	s := fmt.Sprintf("%s %s (%s)", r.TimeOfDay, r.DaysOfWeek, r.TZ)
	if !r.Enabled {
		s += " ⏸"
	}
	return s
}

func medicationText(m *domain.Medication) string {
	var b strings.Builder
	b.WriteString("💊 " + m.Name)
	if m.Purpose != "" {
		b.WriteString(" - " + m.Purpose)
	}
	b.WriteString("\n• Stock: " + strconv.Itoa(m.StockCount))
	if m.LowStock() {
		b.WriteString(" ⚠️ low")
	}
	if m.DosageNotes != "" {
		b.WriteString("\n• Notes: " + m.DosageNotes)
	}
	if len(m.Rules) == 0 {
		b.WriteString("\n• No reminder times yet")
	}
	for _, r := range m.Rules {
		b.WriteString("\n• ⏰ " + ruleText(r))
	}
	return b.String()
}

// countdownText lists upcoming doses in the order given.
func countdownText(entries []countdown.Entry) string {
	if len(entries) == 0 {
		return noDosesText
	}
	var b strings.Builder
	b.WriteString("⏳ Upcoming doses:")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n• %s - %s (%s)", e.Medication, countdown.FormatRemaining(e.Remaining), e.Occurrence.Label)
	}
	return b.String()
}

func previewText(r domain.Rule, occ domain.Occurrence, ok bool, now time.Time) string {
	if !ok {
		return "⏰ " + ruleText(r) + "\nThis reminder never fires.\n\nSave it?"
	}
	return fmt.Sprintf("⏰ %s\nNext dose: %s\nIn: %s\n\nSave it?",
		ruleText(r), occ.Label, countdown.FormatRemaining(occ.At.Sub(now)))
}

// mainMenuKeyboard builds the persistent reply keyboard.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/next"),
			tgbotapi.NewKeyboardButton("/meds"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/add"),
			tgbotapi.NewKeyboardButton("/tz"),
		),
	)
}

// Inline keyboards

func medicationKeyboard(m *domain.Medication) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(m.ID, 10)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.Rules)+1)
	for _, r := range m.Rules {
		rid := strconv.FormatInt(r.ID, 10)
		toggle := "⏸ " + r.TimeOfDay.String()
		if !r.Enabled {
			toggle = "▶️ " + r.TimeOfDay.String()
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggle, "toggle:"+rid),
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+r.TimeOfDay.String(), "delrule:"+rid),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏰ Add time", "addtime:"+id),
		tgbotapi.NewInlineKeyboardButtonData("📦 Stock", "stock:"+id),
		tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", "delmed:"+id),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func addTimeKeyboard(medID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Add time", "addtime:"+strconv.FormatInt(medID, 10)),
		),
	)
}

func daysKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Every day", "days:daily"),
			tgbotapi.NewInlineKeyboardButtonData("Mon–Fri", "days:weekdays"),
			tgbotapi.NewInlineKeyboardButtonData("Sat–Sun", "days:weekends"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "days:custom"),
		),
	)
}

// tzPresetsKeyboard offers current first, then the presets, under the given callback prefix.
func tzPresetsKeyboard(prefix, current string) tgbotapi.InlineKeyboardMarkup {
	zones := []string{current}
	for _, z := range presetZones {
		if z != current {
			zones = append(zones, z)
		}
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(zones); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardButtonData(zones[i], prefix+zones[i])}
		if i+1 < len(zones) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(zones[i+1], prefix+zones[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", prefix+"custom"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Save", "confirm:yes"),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Discard", "confirm:no"),
		),
	)
}
