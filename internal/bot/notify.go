package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mrcodeacademy/enrollbot/internal/enroll"
	"github.com/mrcodeacademy/enrollbot/internal/logger"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// notifyAdmin delivers the new-enrollment notice asynchronously.
// The enrollment is already committed; a delivery failure is logged only.
func (a *App) notifyAdmin(c tele.Context, req enroll.Request) {
	adminID := a.cfg.Telegram.AdminID
	if adminID == 0 {
		return
	}

	text := fmtAdminNotice(req, time.Now().UTC())
	if err := helpers.SendTo(c, tele.ChatID(adminID), text); err != nil {
		ctx := helpers.BuildContext(c)
		logger.Warn(ctx, "service.enrollments", "notify.enqueue_failed",
			slog.String("err", err.Error()),
			slog.String("age_group", req.AgeGroup),
		)
	}
}

func fmtAdminNotice(req enroll.Request, at time.Time) string {
	from := fmt.Sprintf("id %d", req.UserID)
	if req.Username != "" {
		from = "@" + req.Username + " (" + from + ")"
	}
	return fmt.Sprintf(
		"🆕 New enrollment\n\n👶 Child: %s\n👥 Group: %s\n📞 Phone: %s\n👤 From: %s\n🕒 %s UTC",
		req.ChildFull, req.AgeGroup, req.Phone, from, at.Format(enroll.TimeLayout),
	)
}
