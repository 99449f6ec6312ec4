package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"channel-relay-bot/internal/config"
	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
	"channel-relay-bot/internal/infra/session"
)

const defaultEndpoint = tgbotapi.APIEndpoint

var (
	_ adapter.ChannelDirectory = (*RealTelegramBotAdapter)(nil)
	_ adapter.PostSource       = (*RealTelegramBotAdapter)(nil)
	_ adapter.PostReleaser     = (*RealTelegramBotAdapter)(nil)
	_ adapter.Messenger        = (*RealTelegramBotAdapter)(nil)
)

// RealTelegramBotAdapter talks to the Bot API over HTTPS. The Bot API cannot
// read channel history, so posts are fetched by forwarding them into a
// staging chat the bot can write to.
type RealTelegramBotAdapter struct {
	token    string
	endpoint string
	staging  int64
	log      *zerolog.Logger

	bot atomic.Pointer[tgbotapi.BotAPI]

	mu       sync.RWMutex
	channels map[string]*model.Channel
}

type Option func(*RealTelegramBotAdapter)

// WithAPIEndpoint points the client at a different Bot API server. The value
// is a format string taking the token and the method name.
func WithAPIEndpoint(endpoint string) Option {
	return func(r *RealTelegramBotAdapter) { r.endpoint = endpoint }
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger, opts ...Option) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if cfg.StagingChatID == 0 {
		return nil, fmt.Errorf("%w: staging chat id is required", domain.ErrInvalidConfig)
	}
	l := logger.With().Str("component", "BotAPI").Logger()
	r := &RealTelegramBotAdapter{
		token:    cfg.Token,
		endpoint: defaultEndpoint,
		staging:  cfg.StagingChatID,
		log:      &l,
		channels: map[string]*model.Channel{},
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

func (r *RealTelegramBotAdapter) api() (*tgbotapi.BotAPI, error) {
	if bot := r.bot.Load(); bot != nil {
		return bot, nil
	}
	return nil, domain.ErrNotConnected
}

// Connector returns the session connector that authenticates the client
// and feeds updates to handler.
func (r *RealTelegramBotAdapter) Connector(handler adapter.UpdateHandler) session.Connector {
	return &botConnector{adapter: r, handler: handler}
}

type botConnector struct {
	adapter *RealTelegramBotAdapter
	handler adapter.UpdateHandler
}

// Open authenticates with getMe. The Bot API keeps no local session state,
// so the handle only bounds the connection's lifetime.
func (c *botConnector) Open(ctx context.Context, h *session.Handle) (session.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(c.adapter.token, c.adapter.endpoint)
	if err != nil {
		return nil, authError(err)
	}
	c.adapter.bot.Store(bot)
	c.adapter.log.Info().Str("bot", bot.Self.UserName).Str("session", h.Name()).Msg("authorized")
	return &botConn{adapter: c.adapter, bot: bot, handler: c.handler}, nil
}

type botConn struct {
	adapter *RealTelegramBotAdapter
	bot     *tgbotapi.BotAPI
	handler adapter.UpdateHandler
	once    sync.Once
}

// Run long-polls for updates until ctx ends or polling stops.
func (c *botConn) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := c.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			c.stop()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return errors.New("update channel closed")
			}
			c.dispatch(ctx, up)
		}
	}
}

func (c *botConn) dispatch(ctx context.Context, up tgbotapi.Update) {
	switch {
	case up.Message != nil:
		c.handler.HandleMessage(ctx, convertMessage(up.UpdateID, up.Message))
	case up.ChannelPost != nil:
		c.handler.HandleMessage(ctx, convertMessage(up.UpdateID, up.ChannelPost))
	case up.CallbackQuery != nil:
		c.handler.HandleCallback(ctx, convertCallback(up.UpdateID, up.CallbackQuery))
	}
}

func (c *botConn) stop() {
	c.once.Do(c.bot.StopReceivingUpdates)
}

func (c *botConn) Close() error {
	c.stop()
	c.adapter.bot.CompareAndSwap(c.bot, nil)
	return nil
}

func eventID(updateID int) string {
	return fmt.Sprintf("botapi:%d", updateID)
}

func chatKind(chat *tgbotapi.Chat) model.ChatKind {
	if chat == nil {
		return ""
	}
	switch {
	case chat.IsPrivate():
		return model.ChatPrivate
	case chat.IsChannel():
		return model.ChatChannel
	default:
		return model.ChatGroup
	}
}

func convertSender(u *tgbotapi.User) model.Sender {
	if u == nil {
		return model.Sender{}
	}
	return model.Sender{ID: u.ID, FirstName: u.FirstName, Username: u.UserName, IsBot: u.IsBot}
}

func convertMessage(updateID int, m *tgbotapi.Message) *model.Message {
	msg := &model.Message{
		EventID:   eventID(updateID),
		ChatKind:  chatKind(m.Chat),
		MessageID: m.MessageID,
		Sender:    convertSender(m.From),
		Text:      m.Text,
	}
	if m.Chat != nil {
		msg.ChatID = m.Chat.ID
	}
	return msg
}

func convertCallback(updateID int, q *tgbotapi.CallbackQuery) *model.Callback {
	cb := &model.Callback{
		EventID: eventID(updateID),
		QueryID: q.ID,
		Sender:  convertSender(q.From),
		Data:    q.Data,
	}
	if q.Message != nil && q.Message.Chat != nil {
		cb.ChatID = q.Message.Chat.ID
		cb.ChatKind = chatKind(q.Message.Chat)
		cb.MessageID = q.Message.MessageID
	} else if q.From != nil {
		cb.ChatID = q.From.ID
		cb.ChatKind = model.ChatPrivate
	}
	return cb
}
