package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/dumpbot/internal/bot"
	"github.com/tsukumogami/dumpbot/internal/log"
)

type fakeAPI struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	requests []tgbotapi.Chattable
	sent     []tgbotapi.MessageConfig
	stopped  bool
	sendErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Sent() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type stubHandler struct {
	mu     sync.Mutex
	delay  time.Duration
	active int
	peak   int
	seen   []bot.Command
}

func (h *stubHandler) Handle(_ context.Context, cmd bot.Command) (bot.Reply, bool) {
	h.mu.Lock()
	h.seen = append(h.seen, cmd)
	h.active++
	if h.active > h.peak {
		h.peak = h.active
	}
	h.mu.Unlock()

	time.Sleep(h.delay)

	h.mu.Lock()
	h.active--
	h.mu.Unlock()

	if cmd.Caller == 666 {
		return bot.Reply{}, false
	}
	return bot.Reply{Text: "ok " + cmd.Name}, true
}

func (h *stubHandler) Commands() []bot.CommandInfo {
	return []bot.CommandInfo{{Name: "dump", Description: "you should know"}, {Name: "cancel", Description: "you should know"}}
}

func commandUpdate(from, chat int64, text string) tgbotapi.Update {
	cmdLen := strings.IndexByte(text, ' ')
	if cmdLen < 0 {
		cmdLen = len(text)
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 42,
		From:      &tgbotapi.User{ID: from},
		Chat:      &tgbotapi.Chat{ID: chat},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func TestToIncoming_Command(t *testing.T) {
	in, ok := ToIncoming(commandUpdate(1001, -500, "/dump https://example.com/a.zip  extra"))

	require.True(t, ok)
	assert.Equal(t, "dump", in.Command.Name)
	assert.Equal(t, int64(1001), in.Command.Caller)
	assert.Equal(t, []string{"https://example.com/a.zip", "extra"}, in.Command.Args)
	assert.Equal(t, int64(-500), in.ChatID)
	assert.Equal(t, 42, in.MessageID)
}

func TestToIncoming_StripsBotMention(t *testing.T) {
	in, ok := ToIncoming(commandUpdate(1, 1, "/cancel@dump_bot 123"))

	require.True(t, ok)
	assert.Equal(t, "cancel", in.Command.Name)
	assert.Equal(t, []string{"123"}, in.Command.Args)
}

func TestToIncoming_NoArgs(t *testing.T) {
	in, ok := ToIncoming(commandUpdate(1, 1, "/dump"))

	require.True(t, ok)
	assert.Empty(t, in.Command.Args)
}

func TestToIncoming_Ignored(t *testing.T) {
	plain := tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 1},
		Text: "dump https://example.com/a.zip",
	}}
	noSender := commandUpdate(1, 1, "/dump x")
	noSender.Message.From = nil

	for name, u := range map[string]tgbotapi.Update{
		"no message":  {},
		"plain text":  plain,
		"no sender":   noSender,
		"edited only": {EditedMessage: commandUpdate(1, 1, "/dump x").Message},
	} {
		_, ok := ToIncoming(u)
		assert.False(t, ok, name)
	}
}

func TestBuildMessage(t *testing.T) {
	md := BuildMessage(7, bot.Reply{Text: "Dump started!", Markdown: true, DisablePreview: true})
	assert.Equal(t, int64(7), md.ChatID)
	assert.Equal(t, "Dump started!", md.Text)
	assert.Equal(t, tgbotapi.ModeMarkdown, md.ParseMode)
	assert.True(t, md.DisableWebPagePreview)

	plain := BuildMessage(7, bot.Reply{Text: "Please provide a URL"})
	assert.Empty(t, plain.ParseMode)
	assert.False(t, plain.DisableWebPagePreview)
}

func TestRegisterCommands(t *testing.T) {
	api := newFakeAPI()
	b := New(api, &stubHandler{}, WithLogger(log.NewNoop()))

	require.NoError(t, b.RegisterCommands())

	require.Len(t, api.requests, 1)
	cfg, ok := api.requests[0].(tgbotapi.SetMyCommandsConfig)
	require.True(t, ok, "expected SetMyCommandsConfig, got %T", api.requests[0])
	assert.Equal(t, []tgbotapi.BotCommand{
		{Command: "dump", Description: "you should know"},
		{Command: "cancel", Description: "you should know"},
	}, cfg.Commands)
}

func TestRun_RepliesAndDrains(t *testing.T) {
	api := newFakeAPI()
	h := &stubHandler{delay: 10 * time.Millisecond}
	b := New(api, h, WithLogger(log.NewNoop()))

	api.updates <- commandUpdate(1001, 10, "/dump https://example.com/a.zip")
	api.updates <- commandUpdate(666, 11, "/dump https://example.com/a.zip")
	api.updates <- tgbotapi.Update{}
	api.updates <- commandUpdate(1001, 12, "/cancel 5")
	close(api.updates)

	require.NoError(t, b.Run(context.Background()))

	sent := api.Sent()
	require.Len(t, sent, 2, "unauthorized and non-command updates get no reply")
	chats := []int64{sent[0].ChatID, sent[1].ChatID}
	assert.ElementsMatch(t, []int64{10, 12}, chats)
	assert.Len(t, h.seen, 3)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	api := newFakeAPI()
	h := &stubHandler{delay: 30 * time.Millisecond}
	b := New(api, h, WithMaxConcurrent(2), WithLogger(log.NewNoop()))

	for i := 0; i < 6; i++ {
		api.updates <- commandUpdate(1001, int64(i), "/dump x")
	}
	close(api.updates)

	require.NoError(t, b.Run(context.Background()))

	assert.Len(t, api.Sent(), 6)
	assert.LessOrEqual(t, h.peak, 2)
	assert.GreaterOrEqual(t, h.peak, 1)
}

func TestRun_StopsOnCancel(t *testing.T) {
	api := newFakeAPI()
	b := New(api, &stubHandler{}, WithLogger(log.NewNoop()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()
}

func TestRun_SendErrorIsNotFatal(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = errors.New("Bad Request: chat not found")
	b := New(api, &stubHandler{}, WithLogger(log.NewNoop()))

	api.updates <- commandUpdate(1001, 10, "/dump x")
	close(api.updates)

	assert.NoError(t, b.Run(context.Background()))
	assert.Len(t, api.Sent(), 1)
}

func TestWithMaxConcurrentIgnoresNonPositive(t *testing.T) {
	b := New(newFakeAPI(), &stubHandler{}, WithMaxConcurrent(0))
	assert.Equal(t, DefaultMaxConcurrent, b.maxConcurrent)
}
