// Package mtproto is the default platform driver. It speaks MTProto as a
// bot account, which unlike the Bot API can read channel posts directly.
package mtproto

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"channel-relay-bot/internal/config"
	"channel-relay-bot/internal/domain"
	"channel-relay-bot/internal/domain/ports/adapter"
	"channel-relay-bot/internal/infra/session"
)

var (
	_ adapter.ChannelDirectory = (*Client)(nil)
	_ adapter.PostSource       = (*Client)(nil)
	_ adapter.Messenger        = (*Client)(nil)
)

// Client holds the live API handle between connects. Port methods fail with
// domain.ErrNotConnected while no connection is up.
type Client struct {
	appID   int
	appHash string
	token   string
	debug   bool
	log     *zerolog.Logger

	api   atomic.Pointer[apiHolder]
	peers *peerCache
}

type apiHolder struct{ raw rawAPI }

func New(cfg *config.BotConfig, logCfg config.LogConfig, logger *zerolog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if cfg.APIID == 0 || cfg.APIHash == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: api id, api hash and bot token are required", domain.ErrInvalidConfig)
	}
	l := logger.With().Str("component", "MTProto").Logger()
	return &Client{
		appID:   cfg.APIID,
		appHash: cfg.APIHash,
		token:   cfg.Token,
		debug:   logCfg.MTProtoDebug,
		log:     &l,
		peers:   newPeerCache(),
	}, nil
}

func (c *Client) raw() (rawAPI, error) {
	if h := c.api.Load(); h != nil {
		return h.raw, nil
	}
	return nil, domain.ErrNotConnected
}

func (c *Client) attach(api rawAPI) *apiHolder {
	h := &apiHolder{raw: api}
	c.api.Store(h)
	return h
}

func (c *Client) detach(h *apiHolder) {
	c.api.CompareAndSwap(h, nil)
}

// protocolLogger is silent unless protocol debugging is switched on.
func (c *Client) protocolLogger() *zap.Logger {
	if !c.debug {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		c.log.Warn().Err(err).Msg("mtproto debug logger unavailable")
		return zap.NewNop()
	}
	return l.Named("mtproto")
}

// Connector returns the session connector that authenticates the bot and
// feeds updates to handler.
func (c *Client) Connector(handler adapter.UpdateHandler) session.Connector {
	return &connector{client: c, handler: handler}
}

type connector struct {
	client  *Client
	handler adapter.UpdateHandler
}

// Open stores the session in the handle's file, authenticates as a bot and
// returns once the API is usable.
func (cn *connector) Open(ctx context.Context, h *session.Handle) (session.Conn, error) {
	c := cn.client
	store, err := openStorage(ctx, h.Path())
	if err != nil {
		return nil, err
	}

	dispatcher := tg.NewUpdateDispatcher()
	registerUpdates(dispatcher, c.peers, cn.handler)

	zl := c.protocolLogger()
	client := telegram.NewClient(c.appID, c.appHash, telegram.Options{
		SessionStorage: store,
		UpdateHandler:  dispatcher,
		Logger:         zl,
	})

	runCtx, cancel := context.WithCancel(ctx)
	conn := &conn{
		client: c,
		store:  store,
		cancel: cancel,
		done:   make(chan struct{}),
		zl:     zl,
	}
	ready := make(chan struct{})

	go func() {
		defer close(conn.done)
		conn.err = client.Run(runCtx, func(ctx context.Context) error {
			status, err := client.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("auth status: %w", err)
			}
			if !status.Authorized {
				if _, err := client.Auth().Bot(ctx, c.token); err != nil {
					return fmt.Errorf("bot auth: %w", err)
				}
			}
			conn.holder = c.attach(client.API())
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
		c.log.Info().Str("session", h.Name()).Msg("authorized")
		return conn, nil
	case <-conn.done:
		_ = conn.Close()
		return nil, mapError(conn.err)
	case <-ctx.Done():
		_ = conn.Close()
		return nil, ctx.Err()
	}
}

type conn struct {
	client *Client
	store  *sqliteStorage
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	holder *apiHolder
	zl     *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// Run blocks until the MTProto connection ends.
func (cn *conn) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cn.done:
		if cn.err == nil || (errors.Is(cn.err, context.Canceled) && ctx.Err() == nil) {
			return errors.New("mtproto connection closed")
		}
		return mapError(cn.err)
	}
}

func (cn *conn) Close() error {
	cn.closeOnce.Do(func() {
		cn.cancel()
		<-cn.done
		if cn.holder != nil {
			cn.client.detach(cn.holder)
		}
		_ = cn.zl.Sync()
		cn.closeErr = cn.store.Close()
	})
	return cn.closeErr
}
