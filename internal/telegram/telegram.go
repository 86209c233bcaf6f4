// Package telegram connects the command router to the Telegram Bot API
// using long polling.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tsukumogami/dumpbot/internal/bot"
	"github.com/tsukumogami/dumpbot/internal/log"
)

const (
	// DefaultMaxConcurrent bounds how many commands are handled at once.
	DefaultMaxConcurrent = 4
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout = 60
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler is implemented by *bot.Router.
type Handler interface {
	Handle(ctx context.Context, cmd bot.Command) (bot.Reply, bool)
	Commands() []bot.CommandInfo
}

// Dial authenticates with the Bot API. endpoint is a format string like
// tgbotapi.APIEndpoint; empty selects the public API.
func Dial(token, endpoint string, client *http.Client, logger log.Logger) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger != nil {
		// The library logs poll errors through a package-level logger.
		_ = tgbotapi.SetLogger(libLogger{logger})
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	return api, nil
}

// libLogger adapts log.Logger to tgbotapi.BotLogger.
type libLogger struct {
	l log.Logger
}

func (b libLogger) Println(v ...interface{}) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (b libLogger) Printf(format string, v ...interface{}) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Bot polls for updates and hands commands to a Handler.
type Bot struct {
	api           API
	handler       Handler
	maxConcurrent int
	logger        log.Logger
}

// Option configures a Bot.
type Option func(*Bot)

// WithMaxConcurrent bounds concurrent command handling. Values below 1 are
// ignored.
func WithMaxConcurrent(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.maxConcurrent = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(b *Bot) {
		b.logger = l
	}
}

// New creates a Bot.
func New(api API, handler Handler, opts ...Option) *Bot {
	b := &Bot{
		api:           api,
		handler:       handler,
		maxConcurrent: DefaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	return b
}

// RegisterCommands publishes the handler's command list with setMyCommands.
func (b *Bot) RegisterCommands() error {
	infos := b.handler.Commands()
	cmds := make([]tgbotapi.BotCommand, len(infos))
	for i, c := range infos {
		cmds[i] = tgbotapi.BotCommand{Command: c.Name, Description: c.Description}
	}
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	return nil
}

// Run registers the commands and polls until ctx is cancelled or the
// update channel closes. Commands already being handled run to completion
// before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.RegisterCommands(); err != nil {
		b.logger.Warn("command registration failed", "error", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = PollTimeout
	cfg.AllowedUpdates = []string{"message"}
	updates := b.api.GetUpdatesChan(cfg)
	b.logger.Info("polling for updates", "max_concurrent", b.maxConcurrent)

	// In-flight commands finish even after shutdown starts.
	handlerCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(b.maxConcurrent)
	defer func() {
		_ = g.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("polling stopped")
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := ToIncoming(u)
			if !ok {
				continue
			}
			g.Go(func() error {
				b.dispatch(handlerCtx, in)
				return nil
			})
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, in Incoming) {
	reply, ok := b.handler.Handle(ctx, in.Command)
	if !ok {
		return
	}
	if _, err := b.api.Send(BuildMessage(in.ChatID, reply)); err != nil {
		b.logger.Error("sending reply failed", "chat_id", in.ChatID, "command", in.Command.Name, "error", err)
	}
}

// Incoming is a command message together with where to reply.
type Incoming struct {
	Command   bot.Command
	ChatID    int64
	MessageID int
}

// ToIncoming extracts a command from an update. ok is false for anything
// that is not a command message from a user.
func ToIncoming(u tgbotapi.Update) (Incoming, bool) {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return Incoming{}, false
	}
	return Incoming{
		Command: bot.Command{
			Name:   msg.Command(),
			Caller: msg.From.ID,
			Args:   strings.Fields(msg.CommandArguments()),
		},
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}, true
}

// BuildMessage converts a reply into a sendMessage request.
func BuildMessage(chatID int64, r bot.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	msg.DisableWebPagePreview = r.DisablePreview
	return msg
}
