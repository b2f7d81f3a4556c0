package bot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrcodeacademy/enrollbot/internal/config"
	"github.com/mrcodeacademy/enrollbot/internal/database"
	"github.com/mrcodeacademy/enrollbot/internal/enroll"
	"github.com/mrcodeacademy/enrollbot/internal/logger"

	tele "gopkg.in/telebot.v4"
)

func TestMain(m *testing.M) {
	_ = logger.Init(nil)
	os.Exit(m.Run())
}

const testSchema = `
CREATE TABLE IF NOT EXISTS enrollments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    child_full TEXT NOT NULL,
    age_group TEXT NOT NULL,
    phone TEXT,
    tg_user_id INTEGER,
    tg_username TEXT,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS group_limits (
    age_group TEXT PRIMARY KEY,
    limit_value INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_enrollments_age ON enrollments(age_group);
`

// newTestApp builds an App over an isolated SQLite database.
// AdminID stays zero so no admin notification is attempted in tests.
func newTestApp(t *testing.T, defaultLimit int) (*App, *enroll.Store) {
	t.Helper()

	dbCfg := config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "test.db"),
		BusyTimeoutMS:  5000,
		MaxConnections: 4,
	}
	db, err := database.Connect(dbCfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	store := enroll.NewStore(db, defaultLimit)
	require.NoError(t, store.SeedLimits(context.Background()))

	cfg := &config.Config{}
	cfg.Telegram.Token = "token"
	cfg.Enroll.AdminPhone = "+1 555 000 0000"
	cfg.Enroll.DirectorUsername = "director"
	cfg.Enroll.DefaultGroupLimit = &defaultLimit

	app, err := New(cfg, store)
	require.NoError(t, err)
	return app, store
}

type sentMessage struct {
	what interface{}
	opts []interface{}
}

// fakeContext implements the handful of tele.Context methods the handlers
// touch. Anything else panics via the embedded nil interface.
type fakeContext struct {
	tele.Context

	sender  *tele.User
	text    string
	message *tele.Message

	values map[string]interface{}
	sent   []sentMessage
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID, Username: "parent"},
		values: make(map[string]interface{}),
	}
}

func (f *fakeContext) Sender() *tele.User { return f.sender }

func (f *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: f.sender.ID} }

func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }

func (f *fakeContext) Text() string { return f.text }

func (f *fakeContext) Message() *tele.Message { return f.message }

func (f *fakeContext) Set(key string, val interface{}) { f.values[key] = val }

func (f *fakeContext) Get(key string) interface{} { return f.values[key] }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, sentMessage{what: what, opts: opts})
	return nil
}

func (f *fakeContext) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent, "expected at least one outgoing message")
	last := f.sent[len(f.sent)-1]
	text, ok := last.what.(string)
	require.True(t, ok, "last outgoing message is not text: %T", last.what)
	return text
}

func (f *fakeContext) lastMarkup(t *testing.T) *tele.ReplyMarkup {
	t.Helper()
	require.NotEmpty(t, f.sent)
	last := f.sent[len(f.sent)-1]
	for _, opt := range last.opts {
		if so, ok := opt.(*tele.SendOptions); ok && so.ReplyMarkup != nil {
			return so.ReplyMarkup
		}
	}
	return nil
}

// say feeds a text message into the dialogue state machine.
func say(t *testing.T, app *App, f *fakeContext, text string) {
	t.Helper()
	f.text = text
	f.message = &tele.Message{Text: text}
	require.NoError(t, app.States().Handle(f))
}

// beginEnroll presses the enroll menu button.
func beginEnroll(t *testing.T, app *App, f *fakeContext) {
	t.Helper()
	h, ok := app.Registry().LookupTextAction(btnEnroll)
	require.True(t, ok)
	require.NoError(t, h(f))
}

func TestStartShowsMainMenu(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)

	_, cmd, ok := app.Registry().LookupCommand("/start")
	require.True(t, ok)
	require.NoError(t, cmd.Handler(f))

	assert.Contains(t, f.lastText(t), "MR Code Academy")
	kb := f.lastMarkup(t)
	require.NotNil(t, kb)
	require.Len(t, kb.ReplyKeyboard, 2)
	assert.Equal(t, btnEnroll, kb.ReplyKeyboard[0][0].Text)
	assert.False(t, app.States().InProgress(100))
}

func TestStartAliasMenu(t *testing.T) {
	app, _ := newTestApp(t, 10)

	key, _, ok := app.Registry().LookupCommand("menu")
	require.True(t, ok)
	assert.Equal(t, "/start", key)
}

func TestEnrollHappyPath(t *testing.T) {
	app, store := newTestApp(t, 10)
	f := newFakeContext(100)

	beginEnroll(t, app, f)
	assert.True(t, app.States().InProgress(100))
	assert.Contains(t, f.lastText(t), "phone")

	say(t, app, f, "+1 555 123-45-67")
	assert.Contains(t, f.lastText(t), "first and last name")

	say(t, app, f, "  alex   smith ")
	assert.Contains(t, f.lastText(t), enroll.GroupJunior)
	kb := f.lastMarkup(t)
	require.NotNil(t, kb)
	assert.Len(t, kb.ReplyKeyboard, len(enroll.Groups))

	say(t, app, f, enroll.GroupJunior)
	summary := f.lastText(t)
	assert.Contains(t, summary, "alex smith")
	assert.Contains(t, summary, enroll.GroupJunior)
	assert.Contains(t, summary, "+1 555 123-45-67")

	say(t, app, f, btnConfirm)
	assert.Contains(t, f.lastText(t), "🎉")
	assert.False(t, app.States().InProgress(100))

	count, err := store.CountEnrollments(context.Background(), enroll.GroupJunior)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPhoneValidation(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)
	beginEnroll(t, app, f)

	say(t, app, f, "call me maybe")
	assert.Contains(t, f.lastText(t), "doesn't look like a phone number")
	assert.Equal(t, stateAwaitPhone, app.States().GetState(100))

	say(t, app, f, "12345")
	assert.Equal(t, stateAwaitPhone, app.States().GetState(100))
}

func TestOwnContactAccepted(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)
	beginEnroll(t, app, f)

	f.text = ""
	f.message = &tele.Message{Contact: &tele.Contact{PhoneNumber: "+15551234567", UserID: 100}}
	require.NoError(t, app.States().Handle(f))

	assert.Equal(t, stateAwaitName, app.States().GetState(100))
}

func TestForeignContactRejected(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)
	beginEnroll(t, app, f)

	f.text = ""
	f.message = &tele.Message{Contact: &tele.Contact{PhoneNumber: "+15550000001", UserID: 999}}
	require.NoError(t, app.States().Handle(f))

	assert.Contains(t, f.lastText(t), "your own contact")
	assert.Equal(t, stateAwaitPhone, app.States().GetState(100))
}

func TestNameNeedsTwoWords(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)
	beginEnroll(t, app, f)
	say(t, app, f, "+1 555 123 4567")

	say(t, app, f, "Alex")
	assert.Contains(t, f.lastText(t), "first and last name")
	assert.Equal(t, stateAwaitName, app.States().GetState(100))
}

func TestUnknownGroupReprompts(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)
	beginEnroll(t, app, f)
	say(t, app, f, "+1 555 123 4567")
	say(t, app, f, "Alex Smith")

	say(t, app, f, "toddlers")
	assert.Contains(t, f.lastText(t), "pick one of the groups")
	assert.Equal(t, stateAwaitGroup, app.States().GetState(100))
}

func TestEditRestartsFromPhone(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)
	beginEnroll(t, app, f)
	say(t, app, f, "+1 555 123 4567")
	say(t, app, f, "Alex Smith")
	say(t, app, f, enroll.GroupJunior)

	say(t, app, f, btnEdit)
	assert.Equal(t, stateAwaitPhone, app.States().GetState(100))
	_, hasChild := app.States().GetTemp(100, tempChild)
	assert.False(t, hasChild, "edit must discard collected answers")
}

func TestConfirmHintOnUnexpectedText(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)
	beginEnroll(t, app, f)
	say(t, app, f, "+1 555 123 4567")
	say(t, app, f, "Alex Smith")
	say(t, app, f, enroll.GroupJunior)

	say(t, app, f, "yes please")
	assert.Contains(t, f.lastText(t), btnConfirm)
	assert.Equal(t, stateAwaitConfirm, app.States().GetState(100))
}

func TestConfirmLosesSeatRace(t *testing.T) {
	app, store := newTestApp(t, 1)
	f := newFakeContext(100)
	beginEnroll(t, app, f)
	say(t, app, f, "+1 555 123 4567")
	say(t, app, f, "Alex Smith")
	say(t, app, f, enroll.GroupJunior)

	// Another parent takes the last junior seat while this one hesitates.
	accepted, err := store.TryEnroll(context.Background(), enroll.Request{
		ChildFull: "Kim Lee", AgeGroup: enroll.GroupJunior, UserID: 200,
	})
	require.NoError(t, err)
	require.True(t, accepted)

	say(t, app, f, btnConfirm)
	assert.Equal(t, stateAwaitGroup, app.States().GetState(100),
		"loser of the race is sent back to group choice")
	assert.Contains(t, f.lastText(t), enroll.GroupSenior)

	count, err := store.CountEnrollments(context.Background(), enroll.GroupJunior)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "no seat beyond the limit")
}

func TestConfirmAllGroupsFull(t *testing.T) {
	app, store := newTestApp(t, 1)
	f := newFakeContext(100)
	beginEnroll(t, app, f)
	say(t, app, f, "+1 555 123 4567")
	say(t, app, f, "Alex Smith")
	say(t, app, f, enroll.GroupJunior)

	for i, g := range enroll.Groups {
		accepted, err := store.TryEnroll(context.Background(), enroll.Request{
			ChildFull: "Kim Lee", AgeGroup: g, UserID: int64(200 + i),
		})
		require.NoError(t, err)
		require.True(t, accepted)
	}

	say(t, app, f, btnConfirm)
	assert.False(t, app.States().InProgress(100), "dialogue ends when nothing is left")
	assert.Contains(t, f.lastText(t), "full")
}

func TestEnrollEntryWhenAllFull(t *testing.T) {
	app, store := newTestApp(t, 1)
	for i, g := range enroll.Groups {
		accepted, err := store.TryEnroll(context.Background(), enroll.Request{
			ChildFull: "Kim Lee", AgeGroup: g, UserID: int64(200 + i),
		})
		require.NoError(t, err)
		require.True(t, accepted)
	}

	f := newFakeContext(100)
	beginEnroll(t, app, f)
	assert.False(t, app.States().InProgress(100))
	assert.Contains(t, f.lastText(t), "full")
}

func TestGroupKeyboardSkipsFullGroups(t *testing.T) {
	app, store := newTestApp(t, 1)
	accepted, err := store.TryEnroll(context.Background(), enroll.Request{
		ChildFull: "Kim Lee", AgeGroup: enroll.GroupJunior, UserID: 200,
	})
	require.NoError(t, err)
	require.True(t, accepted)

	f := newFakeContext(100)
	beginEnroll(t, app, f)
	say(t, app, f, "+1 555 123 4567")
	say(t, app, f, "Alex Smith")

	kb := f.lastMarkup(t)
	require.NotNil(t, kb)
	require.Len(t, kb.ReplyKeyboard, 1)
	assert.Equal(t, enroll.GroupSenior, kb.ReplyKeyboard[0][0].Text)
}

func TestScheduleListsAllGroups(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)

	h, ok := app.Registry().LookupTextAction(btnSchedule)
	require.True(t, ok)
	require.NoError(t, h(f))

	text := f.lastText(t)
	for _, g := range enroll.Groups {
		assert.Contains(t, text, g)
		assert.Contains(t, text, enroll.Schedule[g])
	}
}

func TestAskQuestionLinksDirector(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)

	h, ok := app.Registry().LookupTextAction(btnAsk)
	require.True(t, ok)
	require.NoError(t, h(f))

	kb := f.lastMarkup(t)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "https://t.me/director", kb.InlineKeyboard[0][0].URL)
}

func TestAskQuestionWithoutDirectorConfigured(t *testing.T) {
	app, _ := newTestApp(t, 10)
	app.cfg.Enroll.DirectorUsername = ""
	f := newFakeContext(100)

	h, ok := app.Registry().LookupTextAction(btnAsk)
	require.True(t, ok)
	require.NoError(t, h(f))

	kb := f.lastMarkup(t)
	require.NotNil(t, kb)
	assert.Empty(t, kb.InlineKeyboard, "no link target configured, so no dead inline button")
	assert.Contains(t, f.lastText(t), "Contacts")
}

func TestContactsSendsCard(t *testing.T) {
	app, _ := newTestApp(t, 10)
	f := newFakeContext(100)

	h, ok := app.Registry().LookupTextAction(btnContacts)
	require.True(t, ok)
	require.NoError(t, h(f))

	require.Len(t, f.sent, 2)
	card, ok := f.sent[0].what.(*tele.Contact)
	require.True(t, ok)
	assert.Equal(t, "+1 555 000 0000", card.PhoneNumber)
	assert.Contains(t, f.lastText(t), "@director")
}

func TestSeatsReport(t *testing.T) {
	app, store := newTestApp(t, 10)
	accepted, err := store.TryEnroll(context.Background(), enroll.Request{
		ChildFull: "Kim Lee", AgeGroup: enroll.GroupJunior, UserID: 200,
	})
	require.NoError(t, err)
	require.True(t, accepted)

	f := newFakeContext(1)
	_, cmd, ok := app.Registry().LookupCommand("/seats")
	require.True(t, ok)
	assert.True(t, cmd.AdminOnly)
	require.NoError(t, cmd.Handler(f))

	text := f.lastText(t)
	assert.Contains(t, text, "1/10")
	assert.Contains(t, text, "0/10")
}

func TestAdminNoticeFormat(t *testing.T) {
	req := enroll.Request{
		ChildFull: "Alex Smith",
		AgeGroup:  enroll.GroupJunior,
		Phone:     "+15551234567",
		UserID:    100,
		Username:  "parent",
	}
	at := mustParse(t, "2026-03-01T10:30:00")

	text := fmtAdminNotice(req, at)
	assert.Contains(t, text, "Alex Smith")
	assert.Contains(t, text, enroll.GroupJunior)
	assert.Contains(t, text, "+15551234567")
	assert.Contains(t, text, "@parent")
	assert.Contains(t, text, "id 100")
	assert.Contains(t, text, "2026-03-01T10:30:00 UTC")
}

func TestAdminNoticeWithoutUsername(t *testing.T) {
	req := enroll.Request{ChildFull: "Alex Smith", AgeGroup: enroll.GroupSenior, UserID: 42}
	text := fmtAdminNotice(req, mustParse(t, "2026-03-01T10:30:00"))
	assert.NotContains(t, text, "@")
	assert.Contains(t, text, "id 42")
}

func mustParse(t *testing.T, v string) time.Time {
	t.Helper()
	parsed, err := time.Parse(enroll.TimeLayout, v)
	require.NoError(t, err)
	return parsed
}
