// Package transport owns the WebSocket connection to the chat daemon.
//
// A Conn performs the handshake once on Dial, then ReadLoop feeds every
// complete text frame to a handler until the socket fails or is closed.
// Writes are serialized so concurrent request issuers never interleave frames.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by ReadLoop and WriteText after Close.
var ErrClosed = errors.New("transport closed")

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	readBufferSize   = 4096
)

// Conn is a single client-side WebSocket connection.
type Conn struct {
	url    string
	ws     *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens the socket and performs the WebSocket handshake.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		ReadBufferSize:   readBufferSize,
		WriteBufferSize:  readBufferSize,
	}

	logger.Debug("connecting", "url", url)
	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return &Conn{
		url:    url,
		ws:     ws,
		logger: logger,
		closed: make(chan struct{}),
	}, nil
}

// URL returns the address the connection was dialed with.
func (c *Conn) URL() string { return c.url }

// ReadLoop blocks reading frames and passes each text frame to handle.
// handle may block; that stalls socket reads, which is the intended backpressure.
// A handler error is fatal to the loop. ReadLoop returns ErrClosed after Close,
// or the read or handler error otherwise.
func (c *Conn) ReadLoop(handle func(data []byte) error) error {
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return ErrClosed
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if msgType != websocket.TextMessage {
			c.logger.Debug("ignoring non-text frame", "type", msgType)
			continue
		}
		c.logger.Debug("frame received", "bytes", len(data))
		if err := handle(data); err != nil {
			if c.isClosed() {
				return ErrClosed
			}
			return fmt.Errorf("handle frame: %w", err)
		}
	}
}

// WriteText sends one complete text frame.
func (c *Conn) WriteText(data []byte) error {
	if c.isClosed() {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close sends a close frame and tears down the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.writeMu.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()

		err = c.ws.Close()
	})
	return err
}

// Done is closed once Close has been called.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
