package notify

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends due-review reminders through a Telegram bot. Users
// opt in by saving their chat id in their notification settings.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

// NewTelegramNotifier creates a notifier from a bot token
func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}
	return &TelegramNotifier{api: api}, nil
}

// SendDueReminder sends one summary message listing how many problems are
// waiting for review on each sheet
func (n *TelegramNotifier) SendDueReminder(chatID int64, userID string, dueCounts map[string]int) error {
	if chatID == 0 || len(dueCounts) == 0 {
		return nil
	}

	// Стабильный порядок листов в сообщении
	sheets := make([]string, 0, len(dueCounts))
	total := 0
	for sheet, count := range dueCounts {
		sheets = append(sheets, sheet)
		total += count
	}
	sort.Strings(sheets)

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ You have %d problem(s) due for review:\n", total)
	for _, sheet := range sheets {
		fmt.Fprintf(&b, "• %s: %d\n", sheet, dueCounts[sheet])
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder to user %s: %v", userID, err)
	}
	return nil
}
