// Package client implements the chat daemon protocol client.
//
// One WebSocket connection carries two logical channels. Commands sent with
// Send are tagged with a correlation ID and the matching response is handed
// straight back to the caller; every other frame lands on a bounded event
// queue, which NextEvent exposes raw and NextChatMessage turns into
// normalized chat messages.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dayuer/simplex-bot-go/internal/bus"
	"github.com/dayuer/simplex-bot-go/internal/chat"
	"github.com/dayuer/simplex-bot-go/internal/metrics"
	"github.com/dayuer/simplex-bot-go/internal/transport"
)

// Defaults applied by New for zero-valued options.
const (
	DefaultURL     = "ws://localhost:5225"
	DefaultTimeout = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	URL            string
	Timeout        time.Duration // per-command response timeout
	EventQueueSize int
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Now            func() time.Time
}

// Client is a single-connection protocol client. It is safe for concurrent use.
type Client struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	conn *transport.Conn

	nextID atomic.Int64

	pendingMu sync.Mutex
	pending   map[string]chan bus.Event

	events *bus.Queue[bus.Event]

	chatMu    sync.Mutex
	chatQueue []chat.Message

	readerDone chan struct{}
	errMu      sync.Mutex
	readErr    error
}

// New creates an unconnected client.
func New(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.EventQueueSize <= 0 {
		opts.EventQueueSize = bus.DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Client{
		opts:       opts,
		logger:     opts.Logger.With("component", "client"),
		now:        opts.Now,
		pending:    make(map[string]chan bus.Event),
		events:     bus.NewQueue[bus.Event](opts.EventQueueSize),
		readerDone: make(chan struct{}),
	}
}

// Connect creates a client and connects it.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	c := New(opts)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect performs the handshake and starts the background reader.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return ErrAlreadyConnected
	}

	conn, err := transport.Dial(ctx, c.opts.URL, c.opts.Logger.With("component", "transport"))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.conn = conn

	go c.readLoop(conn)

	c.logger.Info("connected", "url", c.opts.URL)
	return nil
}

// Disconnect stops the reader, closes the socket and drains both queues.
// Commands still in flight will time out.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	// Closing the queue after the socket unblocks a reader stuck on a full queue.
	err := conn.Close()
	c.events.Close()
	<-c.readerDone
	dropped := c.events.Clear()

	c.chatMu.Lock()
	dropped += len(c.chatQueue)
	c.chatQueue = nil
	c.chatMu.Unlock()

	c.logger.Info("disconnected", "dropped", dropped)
	return err
}

// Done is closed when the reader has terminated.
func (c *Client) Done() <-chan struct{} {
	return c.readerDone
}

// Err returns the error that terminated the reader, if any.
// It is nil while connected and after a clean Disconnect.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.readErr
}

func (c *Client) readLoop(conn *transport.Conn) {
	defer close(c.readerDone)

	err := conn.ReadLoop(c.route)
	if err != nil && !errors.Is(err, transport.ErrClosed) {
		c.logger.Error("read loop terminated", "err", err)
		c.errMu.Lock()
		c.readErr = err
		c.errMu.Unlock()
	}
	c.events.Close()
}

// route delivers one inbound frame to its waiter or to the event queue.
func (c *Client) route(data []byte) error {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	var head struct {
		Type string `json:"type"`
	}
	if len(f.Resp) > 0 {
		if err := json.Unmarshal(f.Resp, &head); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	ev := bus.Event{
		CorrID:     f.CorrID,
		Type:       head.Type,
		Payload:    f.Resp,
		ReceivedAt: c.now(),
	}

	if ev.CorrID != "" {
		c.pendingMu.Lock()
		waiter, ok := c.pending[ev.CorrID]
		if ok {
			delete(c.pending, ev.CorrID)
		}
		c.pendingMu.Unlock()

		if ok {
			waiter <- ev
			c.opts.Metrics.EventRouted("waiter")
			c.logger.Debug("response routed to waiter", "corrId", ev.CorrID, "type", ev.Type)
			return nil
		}
	}

	if err := c.events.Push(context.Background(), ev); err != nil {
		return err
	}
	c.opts.Metrics.EventRouted("queue")
	c.logger.Debug("event queued", "corrId", ev.CorrID, "type", ev.Type)
	return nil
}

func (c *Client) nextCorrID() string {
	return strconv.FormatInt(c.nextID.Add(1), 10)
}

// Send issues a raw command and waits for the response carrying its correlation ID.
// It fails with a KindTimeout *Error when nothing arrives within Options.Timeout.
// The pending entry is always removed before Send returns.
func (c *Client) Send(ctx context.Context, cmd string) (bus.Event, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return bus.Event{}, ErrNotConnected
	}

	id := c.nextCorrID()
	waiter := make(chan bus.Event, 1)

	c.pendingMu.Lock()
	c.pending[id] = waiter
	c.pendingMu.Unlock()
	c.opts.Metrics.RequestStarted()

	start := c.now()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		c.opts.Metrics.RequestFinished()
	}()

	payload, err := json.Marshal(request{CorrID: id, Cmd: cmd})
	if err != nil {
		return bus.Event{}, fmt.Errorf("encode command: %w", err)
	}
	c.logger.Debug("sending command", "corrId", id, "cmd", cmd)
	if err := conn.WriteText(payload); err != nil {
		c.opts.Metrics.ObserveRequest(metrics.OutcomeError, c.now().Sub(start))
		return bus.Event{}, fmt.Errorf("send %q: %w", cmd, err)
	}

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()

	select {
	case ev := <-waiter:
		c.opts.Metrics.ObserveRequest(metrics.OutcomeOK, c.now().Sub(start))
		return ev, nil
	case <-timer.C:
		c.opts.Metrics.ObserveRequest(metrics.OutcomeTimeout, c.now().Sub(start))
		c.logger.Warn("command timed out", "corrId", id, "cmd", cmd, "timeout", c.opts.Timeout)
		return bus.Event{}, TimeoutError(string(payload))
	case <-ctx.Done():
		c.opts.Metrics.ObserveRequest(metrics.OutcomeError, c.now().Sub(start))
		return bus.Event{}, fmt.Errorf("send %q: %w", cmd, ctx.Err())
	}
}

// PendingCount returns the number of commands awaiting a response.
func (c *Client) PendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

// NextEvent returns the next unsolicited event. ok is false once the stream has ended
// or ctx is done.
func (c *Client) NextEvent(ctx context.Context) (ev bus.Event, ok bool) {
	ev, err := c.events.Pop(ctx)
	return ev, err == nil
}
