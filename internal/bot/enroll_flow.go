package bot

import (
	"strings"

	"github.com/mrcodeacademy/enrollbot/internal/enroll"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/helpers"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/keyboard"
	"github.com/mrcodeacademy/enrollbot/internal/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Dialogue states of the enrollment flow, in order.
const (
	stateAwaitPhone   state.State = "enroll/await_phone"
	stateAwaitName    state.State = "enroll/await_name"
	stateAwaitGroup   state.State = "enroll/await_group"
	stateAwaitConfirm state.State = "enroll/await_confirm"
)

// Temp keys collected across the dialogue.
const (
	tempPhone = "phone"
	tempChild = "child"
	tempGroup = "group"
)

func (a *App) bindStates() {
	a.states.Bind(stateAwaitPhone, a.onPhone)
	a.states.Bind(stateAwaitName, a.onName)
	a.states.Bind(stateAwaitGroup, a.onGroup)
	a.states.Bind(stateAwaitConfirm, a.onConfirm)
}

// startEnroll opens the dialogue. When every group is already full the
// dialogue never starts and the user is pointed at the director instead.
func (a *App) startEnroll(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	uid := c.Sender().ID

	remaining, err := a.store.RemainingAll(ctx)
	if err != nil {
		return helpers.SendKB(c, msgStoreError, mainMenuKB())
	}
	if !enroll.AnySeatsLeft(remaining) {
		return a.sendAllFull(c)
	}

	a.states.Clear(uid)
	a.states.SetState(uid, stateAwaitPhone)
	return helpers.SendKB(c, msgAskPhone, phoneKB())
}

// sendAllFull closes out the dialogue when no group has a seat left,
// pointing at the director when a chat link can be built.
func (a *App) sendAllFull(c tele.Context) error {
	kb := askDirectorKB(a.cfg.Enroll.DirectorUsername, a.cfg.Telegram.AdminID)
	if kb == nil {
		kb = mainMenuKB()
	}
	return helpers.SendKB(c, msgAllFull, kb)
}

func (a *App) onPhone(c tele.Context) error {
	uid := c.Sender().ID

	var phone string
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		contact := msg.Contact
		// Forwarded contact cards carry someone else's UserID; accept only
		// the sender's own contact or cards without a Telegram account.
		if contact.UserID != 0 && contact.UserID != uid {
			return helpers.SendText(c, msgForeignContact)
		}
		phone = strings.TrimSpace(contact.PhoneNumber)
	} else {
		phone = strings.TrimSpace(c.Text())
		if !enroll.ValidPhone(phone) {
			return helpers.SendText(c, msgBadPhone)
		}
	}

	a.states.SetTemp(uid, tempPhone, phone)
	a.states.SetState(uid, stateAwaitName)
	return helpers.SendKB(c, msgAskName, keyboard.RemoveKeyboard())
}

func (a *App) onName(c tele.Context) error {
	uid := c.Sender().ID

	name, ok := enroll.NormalizeName(c.Text())
	if !ok {
		return helpers.SendText(c, msgBadName)
	}

	a.states.SetTemp(uid, tempChild, name)
	return a.presentGroups(c)
}

// presentGroups re-reads availability and either offers the open groups or
// ends the dialogue when nothing is left. Used both on first entry and after
// losing a seat race at confirmation.
func (a *App) presentGroups(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	uid := c.Sender().ID

	remaining, err := a.store.RemainingAll(ctx)
	if err != nil {
		a.states.Clear(uid)
		return helpers.SendKB(c, msgStoreError, mainMenuKB())
	}
	if !enroll.AnySeatsLeft(remaining) {
		a.states.Clear(uid)
		return a.sendAllFull(c)
	}

	a.states.SetState(uid, stateAwaitGroup)
	return helpers.SendKB(c, fmtGroupChoice(remaining), groupKB(remaining))
}

func (a *App) onGroup(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	uid := c.Sender().ID

	group := strings.TrimSpace(c.Text())
	if !enroll.KnownGroup(group) {
		return helpers.SendText(c, msgGroupUnknown)
	}

	left, err := a.store.Remaining(ctx, group)
	if err != nil {
		a.states.Clear(uid)
		return helpers.SendKB(c, msgStoreError, mainMenuKB())
	}
	if left <= 0 {
		_ = helpers.SendText(c, fmtGroupFull(group))
		return a.presentGroups(c)
	}

	a.states.SetTemp(uid, tempGroup, group)
	a.states.SetState(uid, stateAwaitConfirm)

	child, _ := a.states.GetTemp(uid, tempChild)
	phone, _ := a.states.GetTemp(uid, tempPhone)
	return helpers.SendKB(c, fmtConfirm(child, group, phone), confirmKB())
}

func (a *App) onConfirm(c tele.Context) error {
	uid := c.Sender().ID

	switch strings.TrimSpace(c.Text()) {
	case btnConfirm:
		return a.finishEnroll(c)
	case btnEdit:
		a.states.ClearTemp(uid)
		a.states.SetState(uid, stateAwaitPhone)
		return helpers.SendKB(c, msgAskPhone, phoneKB())
	default:
		return helpers.SendText(c, msgConfirmHint)
	}
}

// finishEnroll is the only place a seat is actually taken. Availability shown
// earlier is advisory; the transactional check inside TryEnroll decides.
func (a *App) finishEnroll(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	uid := c.Sender().ID

	child, _ := a.states.GetTemp(uid, tempChild)
	group, _ := a.states.GetTemp(uid, tempGroup)
	phone, _ := a.states.GetTemp(uid, tempPhone)

	req := enroll.Request{
		ChildFull: child,
		AgeGroup:  group,
		Phone:     phone,
		UserID:    uid,
		Username:  c.Sender().Username,
	}

	accepted, err := a.store.TryEnroll(ctx, req)
	if err != nil {
		a.states.Clear(uid)
		return helpers.SendKB(c, msgStoreError, mainMenuKB())
	}
	if !accepted {
		_ = helpers.SendText(c, fmtGroupFull(group))
		return a.presentGroups(c)
	}

	a.states.Clear(uid)
	a.notifyAdmin(c, req)
	return helpers.SendKB(c, fmtEnrolled(child, group, phone), mainMenuKB())
}
