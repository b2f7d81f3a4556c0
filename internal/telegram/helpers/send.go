package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/mrcodeacademy/enrollbot/internal/logger"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends text with optional send options to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendKB sends text together with a reply markup.
func SendKB(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

// SendTo delivers a message to an arbitrary recipient (for example the
// configured admin) through the async dispatcher. Failures surface in the
// dispatcher's logs, not to the caller's chat.
func SendTo(c tele.Context, to tele.Recipient, what interface{}) error {
	return sendAsync(c, "send.to", "sendMessage", func() error {
		_, err := c.Bot().Send(to, what)
		return err
	})
}

// SendContactCard sends a native phone contact card to the current chat.
func SendContactCard(c tele.Context, phone, name string) error {
	return sendAsync(c, "send.contact", "sendContact", func() error {
		return c.Send(&tele.Contact{PhoneNumber: phone, FirstName: name})
	})
}
