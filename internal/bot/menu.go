package bot

import (
	"fmt"
	"log/slog"

	"github.com/mrcodeacademy/enrollbot/internal/buildinfo"
	"github.com/mrcodeacademy/enrollbot/internal/enroll"
	"github.com/mrcodeacademy/enrollbot/internal/logger"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func (a *App) handleStart(c tele.Context) error {
	// A restart aborts any half-finished dialogue.
	a.states.Clear(c.Sender().ID)
	return helpers.SendKB(c, msgGreeting, mainMenuKB())
}

func (a *App) handleSchedule(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	remaining, err := a.store.RemainingAll(ctx)
	if err != nil {
		logger.Warn(ctx, "service.enrollments", "schedule.remaining_failed",
			slog.String("err", err.Error()),
		)
		// Schedule itself is static, show it without seat counts.
		remaining = nil
	}
	return helpers.SendKB(c, fmtSchedule(remaining), mainMenuKB())
}

func (a *App) handleAsk(c tele.Context) error {
	kb := askDirectorKB(a.cfg.Enroll.DirectorUsername, a.cfg.Telegram.AdminID)
	if kb == nil {
		return helpers.SendKB(c, msgAskUnavailable, mainMenuKB())
	}
	return helpers.SendKB(c, msgAskQuestion, kb)
}

func (a *App) handleContacts(c tele.Context) error {
	if phone := a.cfg.Enroll.AdminPhone; phone != "" {
		if err := helpers.SendContactCard(c, phone, "MR Code Academy"); err != nil {
			ctx := helpers.BuildContext(c)
			logger.Warn(ctx, "service.enrollments", "contacts.card_failed",
				slog.String("err", err.Error()),
			)
		}
	}
	text := "MR Code Academy"
	if a.cfg.Enroll.DirectorUsername != "" {
		text += "\nDirector: @" + a.cfg.Enroll.DirectorUsername
	}
	if a.cfg.Enroll.AdminPhone != "" {
		text += "\nPhone: " + a.cfg.Enroll.AdminPhone
	}
	kb := askDirectorKB(a.cfg.Enroll.DirectorUsername, a.cfg.Telegram.AdminID)
	if kb == nil {
		kb = mainMenuKB()
	}
	return helpers.SendKB(c, text, kb)
}

func (a *App) handleSeats(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	counts := make(map[string][2]int, len(enroll.Groups))
	for _, g := range enroll.Groups {
		enrolled, err := a.store.CountEnrollments(ctx, g)
		if err != nil {
			return helpers.SendText(c, msgStoreError)
		}
		limit, err := a.store.GroupLimit(ctx, g)
		if err != nil {
			return helpers.SendText(c, msgStoreError)
		}
		counts[g] = [2]int{enrolled, limit}
	}
	return helpers.SendText(c, fmtSeats(counts))
}

func (a *App) handleVersion(c tele.Context) error {
	return helpers.SendText(c, fmt.Sprintf("enrollbot %s (%s, built %s)",
		buildinfo.Version, buildinfo.Commit, buildinfo.Date))
}

func (a *App) handleUnknown(c tele.Context) error {
	return helpers.SendKB(c, msgUnknownText, mainMenuKB())
}
