package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server accepts page connections on a loopback WebSocket and routes their
// requests to a SettingsRouter.
type Server struct {
	router   SettingsRouter
	log      *slog.Logger
	token    string
	timeout  time.Duration
	listener net.Listener
	http     *http.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*pageConn
}

type pageConn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *pageConn) write(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.ws.WriteJSON(f)
}

// NewServer creates a Server listening on a random loopback port.
func NewServer(router SettingsRouter, log *slog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{
		router:   router,
		log:      log,
		token:    uuid.NewString(),
		timeout:  MaxRequestTime,
		listener: listener,
		conns:    make(map[string]*pageConn),
		upgrader: websocket.Upgrader{
			// Webview origins differ per platform (wails://, http://wails.localhost);
			// the token authenticates the page instead.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", s.handleWebSocket)
	s.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Endpoint returns the address and token a page needs to connect.
func (s *Server) Endpoint() Endpoint {
	return Endpoint{
		URL:   "ws://" + s.listener.Addr().String() + "/bridge",
		Token: s.token,
	}
}

// EndpointHandler serves the Endpoint as JSON.
func (s *Server) EndpointHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		json.NewEncoder(w).Encode(s.Endpoint())
	})
}

// Serve handles connections until ctx is cancelled or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	err := s.http.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the server and drops all page connections.
func (s *Server) Close() error {
	shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.http.Shutdown(shutCtx)

	s.mu.Lock()
	for id, c := range s.conns {
		c.ws.Close()
		delete(s.conns, id)
	}
	s.mu.Unlock()
	return err
}

// Send pushes a message to every connected page. Delivery is best effort.
func (s *Server) Send(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("encoding bridge message failed", "name", name, "error", err)
		return
	}
	frame := Frame{Type: FrameMessage, Name: name, Payload: data}

	s.mu.Lock()
	conns := make([]*pageConn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.write(frame); err != nil {
			s.log.Debug("bridge message not delivered", "name", name, "conn", c.id, "error", err)
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != s.token {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("bridge upgrade failed", "error", err)
		return
	}

	c := &pageConn{id: uuid.NewString(), ws: ws}
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
	s.log.Info("page connected", "conn", c.id)

	defer func() {
		s.mu.Lock()
		delete(s.conns, c.id)
		s.mu.Unlock()
		ws.Close()
		s.log.Info("page disconnected", "conn", c.id)
	}()

	if err := c.write(Frame{Type: FrameMessage, Name: MessageReady}); err != nil {
		return
	}

	for {
		var f Frame
		if err := ws.ReadJSON(&f); err != nil {
			return
		}
		if f.Type != FrameRequest {
			s.log.Debug("ignoring bridge frame", "type", f.Type, "conn", c.id)
			continue
		}
		go s.handleRequest(c, f)
	}
}

func (s *Server) handleRequest(c *pageConn, req Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	resp := s.dispatch(ctx, req)
	resp.Type = FrameResponse
	resp.ID = req.ID

	if err := c.write(resp); err != nil {
		s.log.Debug("bridge response not delivered", "method", req.Method, "conn", c.id, "error", err)
	}
}

// dispatch runs the request and gives up once ctx expires.
func (s *Server) dispatch(ctx context.Context, req Frame) Frame {
	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.call(req)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return Frame{Error: o.err.Error()}
		}
		data, err := json.Marshal(o.result)
		if err != nil {
			return Frame{Error: "encode result: " + err.Error()}
		}
		return Frame{Result: data}
	case <-ctx.Done():
		s.log.Error("bridge request timed out", "method", req.Method)
		return Frame{Error: "request timed out"}
	}
}

func (s *Server) call(req Frame) (any, error) {
	switch req.Method {
	case MethodSaveSettings:
		var p SaveSettingsParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return nil, fmt.Errorf("invalid params: %w", err)
			}
		}
		return s.router.SaveSettings(p.URL), nil

	case MethodGetSettings:
		return s.router.GetSettings(), nil

	default:
		return nil, fmt.Errorf("unknown method: %s", req.Method)
	}
}
