package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"channel-relay-bot/internal/config"
	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/model"
	"channel-relay-bot/internal/domain/ports/adapter"
	"channel-relay-bot/internal/domain/ports/repository"
	"channel-relay-bot/internal/infra/i18n"
	"channel-relay-bot/internal/infra/logging"
	"channel-relay-bot/internal/infra/metrics"
	"channel-relay-bot/internal/usecase"
)

var _ adapter.UpdateHandler = (*Router)(nil)

type commandHandler func(ctx context.Context, msg *model.Message) error
type cbHandler func(ctx context.Context, cb *model.Callback) error

// Router turns inbound events into replies. Every event passes the gates in
// gates.go before a handler runs.
type Router struct {
	bot    adapter.Messenger
	subs   usecase.SubscriptionUseCase
	relay  usecase.RelayUseCase
	rates  repository.RateStore
	dedupe repository.DedupeStore
	t      *i18n.Translator
	log    *zerolog.Logger

	channelURL string
	timeout    time.Duration
	now        func() time.Time
}

type RouterOption func(*Router)

// WithHandlerTimeout bounds a single event's processing.
func WithHandlerTimeout(d time.Duration) RouterOption {
	return func(r *Router) { r.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) { r.now = now }
}

func NewRouter(
	bot adapter.Messenger,
	subs usecase.SubscriptionUseCase,
	relay usecase.RelayUseCase,
	rates repository.RateStore,
	dedupe repository.DedupeStore,
	translator *i18n.Translator,
	logger *zerolog.Logger,
	opts ...RouterOption,
) *Router {
	r := &Router{
		bot:        bot,
		subs:       subs,
		relay:      relay,
		rates:      rates,
		dedupe:     dedupe,
		t:          translator,
		log:        logging.Component(logger, "router"),
		channelURL: "https://t.me/" + config.TargetChannel,
		timeout:    time.Minute,
		now:        time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// commandRoutes maps a command (without @botname) to its handler.
func (r *Router) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"/start": r.handleStart,
		"/help":  r.handleHelp,
		"/hello": r.handleHello,
	}
}

func (r *Router) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		config.CheckSubscriptionPayload: r.handleCheckSubscription,
	}
}

type messageRoute struct {
	Name string
	Fn   commandHandler
}

// messageRoutes lists every handler that matches msg. Matching is not
// exclusive; the dedupe gate lets only the first one through.
func (r *Router) messageRoutes(msg *model.Message) []messageRoute {
	var out []messageRoute
	cmd := msg.Command()
	if h, ok := r.commandRoutes()[cmd]; ok {
		out = append(out, messageRoute{Name: cmd, Fn: r.gated(false, h)})
	}
	if cmd == "" && strings.TrimSpace(msg.Text) != "" {
		out = append(out, messageRoute{Name: "message", Fn: r.gated(true, r.handleLink)})
	}
	return out
}

func (r *Router) eventContext(ctx context.Context, eventID string, userID int64) (context.Context, context.CancelFunc) {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithTgID(ctx, userID)
	ctx = logging.WithEventID(ctx, eventID)
	return context.WithTimeout(ctx, r.timeout)
}

// HandleMessage routes a text message. Errors and panics stay here.
func (r *Router) HandleMessage(ctx context.Context, msg *model.Message) {
	if msg == nil {
		return
	}
	metrics.IncUpdate("message")
	ctx, cancel := r.eventContext(ctx, msg.EventID, msg.Sender.ID)
	defer cancel()
	log := logging.With(ctx, r.log)
	defer r.recoverPanic(log)

	for _, route := range r.messageRoutes(msg) {
		if route.Name != "message" {
			metrics.IncTelegramCommand(route.Name)
		}
		if err := route.Fn(ctx, msg); err != nil {
			log.Error().Err(err).Str("route", route.Name).Msg("handler failed")
		}
	}
}

// HandleCallback routes an inline button press.
func (r *Router) HandleCallback(ctx context.Context, cb *model.Callback) {
	if cb == nil {
		return
	}
	metrics.IncUpdate("callback")
	ctx, cancel := r.eventContext(ctx, cb.EventID, cb.Sender.ID)
	defer cancel()
	log := logging.With(ctx, r.log)
	defer r.recoverPanic(log)

	h, ok := r.cbRoutes()[cb.Data]
	if !ok {
		log.Debug().Str("data", cb.Data).Msg("unknown callback")
		return
	}
	if err := r.gatedCallback(h)(ctx, cb); err != nil {
		log.Error().Err(err).Str("route", cb.Data).Msg("callback handler failed")
	}
}

func (r *Router) recoverPanic(log *zerolog.Logger) {
	if rec := recover(); rec != nil {
		log.Error().Interface("panic", rec).Msg("panic recovered")
	}
}

// ----- command handlers -----

// greeting addresses the sender by first name, or without a name when the
// platform did not supply one.
func (r *Router) greeting(key string, s model.Sender) string {
	if strings.TrimSpace(s.FirstName) == "" {
		return r.t.T(key + "_anonymous")
	}
	return r.t.T(key, s.FirstName)
}

func (r *Router) handleStart(ctx context.Context, msg *model.Message) error {
	return r.bot.SendMessage(ctx, msg.ChatID, r.greeting("welcome", msg.Sender))
}

func (r *Router) handleHelp(ctx context.Context, msg *model.Message) error {
	return r.bot.SendMessage(ctx, msg.ChatID, r.t.T("help"))
}

func (r *Router) handleHello(ctx context.Context, msg *model.Message) error {
	return r.bot.SendMessage(ctx, msg.ChatID, r.greeting("hello", msg.Sender))
}

func (r *Router) handleLink(ctx context.Context, msg *model.Message) error {
	r.relay.ResolveAndRelay(ctx, msg)
	return nil
}

// ----- callbacks -----

// handleCheckSubscription edits the prompt in place and answers the
// callback exactly once.
func (r *Router) handleCheckSubscription(ctx context.Context, cb *model.Callback) error {
	var (
		text   string
		rows   [][]adapter.InlineButton
		answer string
	)
	if r.subs.IsSubscribed(ctx, cb.Sender.ID) {
		text, answer = r.greeting("welcome", cb.Sender), r.t.T("cb_subscribed")
	} else {
		text, rows, answer = r.joinPromptText(), r.joinButtons(), r.t.T("cb_not_subscribed")
	}

	err := r.bot.EditMessage(ctx, cb.ChatID, cb.MessageID, text, rows)
	if err != nil && !errors.Is(err, domain.ErrMessageNotModified) {
		if aerr := r.bot.AnswerCallback(ctx, cb.QueryID, r.t.T("cb_error"), true); aerr != nil {
			logging.With(ctx, r.log).Warn().Err(aerr).Msg("answer callback failed")
		}
		return err
	}
	return r.bot.AnswerCallback(ctx, cb.QueryID, answer, true)
}

func (r *Router) joinPromptText() string {
	return r.t.T("join_prompt", r.channelURL)
}

func (r *Router) joinButtons() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: r.t.T("btn_join"), URL: r.channelURL}},
		{{Text: r.t.T("btn_check"), Data: config.CheckSubscriptionPayload}},
	}
}
