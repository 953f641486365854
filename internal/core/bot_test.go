package core

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosS-Green/plugins/internal/commands"
	"github.com/mosS-Green/plugins/internal/config"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/queue"
	"github.com/mosS-Green/plugins/internal/service"
	"github.com/mosS-Green/plugins/internal/service/cancel"
	"github.com/mosS-Green/plugins/internal/telegram"
)

type fakeClient struct {
	telegram.Client
	mu       sync.Mutex
	requests []telegram.MessageConfig
}

func (f *fakeClient) Self() telegram.User {
	return telegram.User{ID: 99, UserName: "leaflet_bot", IsBot: true}
}

func (f *fakeClient) Request(msg telegram.MessageConfig) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, msg)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeClient) SendWithRetry(ctx context.Context, msg telegram.MessageConfig, maxRetryCount int) (*telegram.Message, error) {
	return &telegram.Message{}, nil
}

func (f *fakeClient) lastCallback(t *testing.T) telegram.CallbackConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	cb, ok := f.requests[len(f.requests)-1].(telegram.CallbackConfig)
	require.True(t, ok)
	return cb
}

type fakeCommand struct {
	name    string
	aliases []string
	handled chan telegram.Update
}

func (c *fakeCommand) Name() string      { return c.name }
func (c *fakeCommand) Aliases() []string { return c.aliases }
func (c *fakeCommand) Handle(ctx context.Context, update telegram.Update) error {
	c.handled <- update
	return nil
}
func (c *fakeCommand) Execute(ctx context.Context, update telegram.Update) error { return nil }
func (c *fakeCommand) GetQueueConfig() commands.QueueConfig                      { return commands.QueueConfig{} }

func newTestBot(t *testing.T, values map[string]any) (*Bot, *fakeClient, database.Database) {
	t.Helper()
	cfg, err := config.FromValues(values)
	require.NoError(t, err)
	db, err := database.NewSQLiteDB(":memory:", logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	localizer, err := service.NewLocalizer("en")
	require.NoError(t, err)

	tg := &fakeClient{}
	l := logger.NewTestLogger()
	return NewBot(tg, queue.NewQueue(db, l), l, db, cfg, localizer, cancel.NewManager()), tg, db
}

func textUpdate(chatID, userID int64, messageID int, text string) telegram.Update {
	msg := &telegram.MessageOriginal{
		MessageID: messageID,
		Text:      text,
		Chat:      tgbotapi.Chat{ID: chatID, Type: "supergroup"},
		From:      &tgbotapi.User{ID: userID, FirstName: "Ann", UserName: "ann"},
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return telegram.Update{Message: msg}
}

func TestFindCommand(t *testing.T) {
	b, _, _ := newTestBot(t, nil)
	cmd := &fakeCommand{name: "r", aliases: []string{"rx", "rt"}}
	b.RegisterCommand(cmd)

	assert.Equal(t, cmd, b.findCommand("r"))
	assert.Equal(t, cmd, b.findCommand("rt"))
	assert.Nil(t, b.findCommand("st"))
}

func TestAddressedToUs(t *testing.T) {
	b, _, _ := newTestBot(t, nil)

	tests := []struct {
		text string
		want bool
	}{
		{"/r hi", true},
		{"/r@Leaflet_Bot hi", true},
		{"/r@other_bot hi", false},
		{"", false},
	}
	for _, tt := range tests {
		msg := &telegram.MessageOriginal{Text: tt.text}
		assert.Equal(t, tt.want, b.addressedToUs(msg), tt.text)
	}
}

func TestHandleUpdateRoutesCommandByAlias(t *testing.T) {
	b, _, _ := newTestBot(t, map[string]any{"telegram.allowed_users": []int64{1}})
	cmd := &fakeCommand{name: "r", aliases: []string{"rx"}, handled: make(chan telegram.Update, 1)}
	b.RegisterCommand(cmd)

	b.handleUpdate(context.Background(), textUpdate(-100, 1, 10, "/rx what now"))

	select {
	case update := <-cmd.handled:
		assert.Equal(t, 10, update.Message.MessageID)
	case <-time.After(time.Second):
		t.Fatal("command was not handled")
	}
}

func TestHandleUpdateRejectsDisallowedChat(t *testing.T) {
	b, _, _ := newTestBot(t, map[string]any{"telegram.allowed_chats": []int64{-5}})
	cmd := &fakeCommand{name: "r", handled: make(chan telegram.Update, 1)}
	b.RegisterCommand(cmd)

	b.handleUpdate(context.Background(), textUpdate(-100, 1, 10, "/r hi"))

	select {
	case <-cmd.handled:
		t.Fatal("command ran in a disallowed chat")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleUpdateStoresChatHistory(t *testing.T) {
	b, _, db := newTestBot(t, nil)
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(-100, 1, 1, "first"))
	b.handleUpdate(ctx, textUpdate(-100, 1, 2, "/r ignored"))
	b.handleUpdate(ctx, textUpdate(-100, 1, 3, "third"))

	edited := textUpdate(-100, 1, 3, "third, edited")
	b.handleUpdate(ctx, telegram.Update{EditedMessage: edited.Message})

	messages, err := db.GetMessagesFrom(ctx, -100, 1, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "Ann", messages[0].Author)
	assert.Equal(t, "third, edited", messages[1].Text)

	user, err := db.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)
}

func TestCancelCallback(t *testing.T) {
	b, tg, _ := newTestBot(t, map[string]any{"telegram.admins": []int64{7}})

	query := func(from int64) *telegram.CallbackQuery {
		return &telegram.CallbackQuery{
			ID:      "q",
			From:    &tgbotapi.User{ID: from},
			Message: &telegram.MessageOriginal{MessageID: 50, Chat: tgbotapi.Chat{ID: -100}},
			Data:    cancel.CallbackData,
		}
	}

	t.Run("stranger is denied", func(t *testing.T) {
		ctx, done := b.cancel.Register(context.Background(), -100, 50, 1, "r")
		defer done()

		b.handleCallback(context.Background(), query(2))

		assert.NoError(t, ctx.Err())
		assert.Equal(t, "Only the requester can cancel this.", tg.lastCallback(t).Text)
	})

	t.Run("owner cancels", func(t *testing.T) {
		ctx, done := b.cancel.Register(context.Background(), -100, 50, 1, "r")
		defer done()

		b.handleCallback(context.Background(), query(1))

		assert.True(t, cancel.CancelledByUser(ctx))
		assert.Equal(t, "Request cancelled.", tg.lastCallback(t).Text)
	})

	t.Run("admin forces", func(t *testing.T) {
		ctx, done := b.cancel.Register(context.Background(), -100, 50, 1, "r")
		defer done()

		b.handleCallback(context.Background(), query(7))

		assert.True(t, cancel.CancelledByUser(ctx))
	})

	t.Run("finished request", func(t *testing.T) {
		b.handleCallback(context.Background(), query(1))
		assert.Equal(t, "Nothing to cancel.", tg.lastCallback(t).Text)
	})
}
