package bot

import (
	"fmt"

	"github.com/mrcodeacademy/enrollbot/internal/enroll"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

func mainMenuKB() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnEnroll, btnSchedule},
		[]string{btnAsk, btnContacts},
	)
}

func phoneKB() *tele.ReplyMarkup {
	return keyboard.ContactRequest(btnSharePhone)
}

func confirmKB() *tele.ReplyMarkup {
	return keyboard.ReplyButtonsOneTime([]string{btnConfirm, btnEdit})
}

// groupKB offers only groups that still have seats, one button per row.
func groupKB(remaining map[string]int) *tele.ReplyMarkup {
	var rows [][]string
	for _, g := range enroll.Groups {
		if remaining[g] > 0 {
			rows = append(rows, []string{g})
		}
	}
	return keyboard.ReplyButtonsOneTime(rows...)
}

// askDirectorKB links straight to the director's chat, preferring the
// public username over a tg://user deep link. Returns nil when neither is
// configured; callers must not show a button that leads nowhere.
func askDirectorKB(username string, adminID int64) *tele.ReplyMarkup {
	if username != "" {
		return keyboard.URLButton("💬 Message the director", "https://t.me/"+username)
	}
	if adminID != 0 {
		return keyboard.URLButton("💬 Message the director", fmt.Sprintf("tg://user?id=%d", adminID))
	}
	return nil
}
