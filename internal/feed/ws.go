// Package feed streams normalized price ticks from the exchange websocket.
//
// A single reader goroutine parses ticker messages and pushes model.Tick
// values into the caller's channel, preserving per-product arrival order.
// When the channel is full the tick is dropped and counted rather than
// blocking the read loop.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"signal-systemv1/internal/model"
)

const (
	defaultDialTimeout = 10 * time.Second
	pongWait           = 30 * time.Second
	pingInterval       = 10 * time.Second

	// Reconnect backoff bounds.
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Config holds the websocket feed configuration.
type Config struct {
	URL      string
	Products []model.ProductID
}

// Client maintains the websocket subscription and republishes ticks.
type Client struct {
	cfg Config
	log *slog.Logger

	// OnReconnect is called after each successful reconnect, before the
	// subscription is re-sent. Optional.
	OnReconnect func()
	// OnDrop is called for each tick dropped on a full channel. Optional.
	OnDrop func()
}

// NewClient creates a feed client for the given products.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("feed: url required")
	}
	if len(cfg.Products) == 0 {
		return nil, errors.New("feed: at least one product required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, log: log}, nil
}

// subscribeRequest is the ticker-channel subscription message.
type subscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

// tickerMessage is the wire shape of a ticker update. Price and size arrive
// as strings.
type tickerMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	LastSize  string `json:"last_size"`
	Time      string `json:"time"`
	Message   string `json:"message"` // set on type "error"
}

// Run connects, subscribes, and streams ticks into tickCh until ctx is
// cancelled. Connection loss triggers reconnects with exponential backoff;
// Run only returns on context cancellation.
func (c *Client) Run(ctx context.Context, tickCh chan<- model.Tick) error {
	backoff := initialBackoff
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.connect(ctx)
		if err != nil {
			c.log.Warn("feed connect failed",
				slog.String("url", c.cfg.URL),
				slog.Duration("retry_in", backoff),
				slog.Any("error", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		if !first && c.OnReconnect != nil {
			c.OnReconnect()
		}
		first = false

		err = c.readLoop(ctx, conn, tickCh)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("feed disconnected, reconnecting", slog.Any("error", err))
	}
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: defaultDialTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("feed: dial %s: status %s: %w", c.cfg.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("feed: dial %s: %w", c.cfg.URL, err)
	}

	products := make([]string, len(c.cfg.Products))
	for i, p := range c.cfg.Products {
		products[i] = p.String()
	}
	sub := subscribeRequest{Type: "subscribe", ProductIDs: products, Channels: []string{"ticker"}}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("feed: subscribe: %w", err)
	}

	c.log.Info("feed connected", slog.String("url", c.cfg.URL), slog.Int("products", len(products)))
	return conn, nil
}

// readLoop reads messages until the connection breaks or ctx is cancelled.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, tickCh chan<- model.Tick) error {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Keepalive pings; the pong handler extends the read deadline.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		tick, ok, err := ParseTicker(raw)
		if err != nil {
			c.log.Warn("feed message dropped", slog.Any("error", err))
			continue
		}
		if !ok {
			continue
		}
		select {
		case tickCh <- tick:
		default:
			if c.OnDrop != nil {
				c.OnDrop()
			}
			c.log.Warn("tick channel full, dropping tick", slog.String("product", tick.Product.String()))
		}
	}
}

// ParseTicker converts one raw feed message into a tick. The second return is
// false for non-ticker messages (subscription acks, heartbeats).
func ParseTicker(raw []byte) (model.Tick, bool, error) {
	var msg tickerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return model.Tick{}, false, fmt.Errorf("feed: decode message: %w", err)
	}
	switch msg.Type {
	case "ticker":
	case "error":
		return model.Tick{}, false, fmt.Errorf("feed: server error: %s", msg.Message)
	default:
		return model.Tick{}, false, nil
	}

	if msg.ProductID == "" {
		return model.Tick{}, false, errors.New("feed: ticker missing product_id")
	}
	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil {
		return model.Tick{}, false, fmt.Errorf("feed: bad price %q: %w", msg.Price, err)
	}
	if price <= 0 {
		return model.Tick{}, false, fmt.Errorf("feed: non-positive price %v", price)
	}

	var volume float64
	if msg.LastSize != "" {
		volume, _ = strconv.ParseFloat(msg.LastSize, 64)
	}

	ts := time.Now().UTC()
	if msg.Time != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, msg.Time); err == nil {
			ts = parsed.UTC()
		}
	}

	return model.Tick{
		Product: model.ProductID(msg.ProductID),
		Price:   price,
		Volume:  volume,
		TS:      ts,
	}, true, nil
}
