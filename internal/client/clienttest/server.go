// Package clienttest provides an in-process chat daemon for tests.
package clienttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Request is a command received by the fake daemon.
type Request struct {
	CorrID string `json:"corrId"`
	Cmd    string `json:"cmd"`
}

// HandlerFunc produces the "resp" object for a command. Returning nil sends no reply.
type HandlerFunc func(req Request) any

type route struct {
	prefix string
	fn     HandlerFunc
}

// Server is a fake chat daemon speaking the JSON command protocol over WebSocket.
// Commands are answered by the first handler whose prefix matches; unmatched
// commands get no reply.
type Server struct {
	t   testing.TB
	srv *httptest.Server

	mu     sync.Mutex
	routes []route
	conn   *websocket.Conn

	writeMu   sync.Mutex
	connected chan struct{}
	connOnce  sync.Once
	closeOnce sync.Once
	received  chan Request
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewServer starts a fake daemon. It is closed automatically at test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		t:         t,
		connected: make(chan struct{}),
		received:  make(chan Request, 1024),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// URL returns the ws:// address of the daemon.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

// Handle registers fn for commands starting with prefix.
func (s *Server) Handle(prefix string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route{prefix: prefix, fn: fn})
}

// Respond registers a fixed response for commands starting with prefix.
func (s *Server) Respond(prefix string, resp any) {
	s.Handle(prefix, func(Request) any { return resp })
}

// Next returns the next received command, failing the test after a timeout.
func (s *Server) Next() Request {
	s.t.Helper()
	select {
	case req := <-s.received:
		return req
	case <-time.After(5 * time.Second):
		s.t.Fatal("clienttest: no command received")
		return Request{}
	}
}

// Drain returns the commands received so far that Next has not consumed.
func (s *Server) Drain() []Request {
	var out []Request
	for {
		select {
		case req := <-s.received:
			out = append(out, req)
		default:
			return out
		}
	}
}

// Reply sends resp tagged with corrID.
func (s *Server) Reply(corrID string, resp any) {
	s.t.Helper()
	s.write(map[string]any{"corrId": corrID, "resp": resp})
}

// Push sends an unsolicited event.
func (s *Server) Push(resp any) {
	s.t.Helper()
	s.write(map[string]any{"resp": resp})
}

// PushRaw sends data as a text frame without encoding it.
func (s *Server) PushRaw(data string) {
	s.t.Helper()
	s.writeRaw([]byte(data))
}

// Drop closes the client connection from the daemon side.
func (s *Server) Drop() {
	s.t.Helper()
	select {
	case <-s.connected:
	case <-time.After(5 * time.Second):
		s.t.Errorf("clienttest: no client connected")
		return
	}
	s.closeConn()
}

func (s *Server) closeConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// Close shuts the daemon down.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.closeConn()
		s.srv.Close()
	})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.connOnce.Do(func() { close(s.connected) })

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		select {
		case s.received <- req:
		default:
		}

		if resp := s.lookup(req); resp != nil {
			s.write(map[string]any{"corrId": req.CorrID, "resp": resp})
		}
	}
}

func (s *Server) lookup(req Request) any {
	s.mu.Lock()
	routes := s.routes
	s.mu.Unlock()
	for _, r := range routes {
		if strings.HasPrefix(req.Cmd, r.prefix) {
			return r.fn(req)
		}
	}
	return nil
}

func (s *Server) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.t.Errorf("clienttest: encode frame: %v", err)
		return
	}
	s.writeRaw(data)
}

func (s *Server) writeRaw(data []byte) {
	select {
	case <-s.connected:
	case <-time.After(5 * time.Second):
		s.t.Errorf("clienttest: no client connected")
		return
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
