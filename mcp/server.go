// Package mcp exposes the GitForge workspace to external agent clients
// (Claude, Cursor, GPT integrations) as a JSON-RPC 2.0 tool server over
// WebSocket. Git and record methods execute synchronously; goal methods
// delegate to the core engine, and events/subscribe streams SystemEvents to
// the client as JSON-RPC notifications.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gitforge/gitforge/core"
	"github.com/gitforge/gitforge/engine"
	"github.com/gitforge/gitforge/forge"
	"github.com/gitforge/gitforge/logging"
)

// JSON-RPC 2.0 error codes. The -32000 range carries domain errors.
const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeDomain         = -32000
	codeNotFound       = -32001
	codeConflict       = -32002
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// Notification is a server-initiated JSON-RPC message carrying a
// SystemEvent to subscribed clients.
type Notification struct {
	Jsonrpc string           `json:"jsonrpc"`
	Method  string           `json:"method"`
	Params  core.SystemEvent `json:"params"`
}

// Options configures a Server.
type Options struct {
	Logger logging.Logger
}

// Server dispatches JSON-RPC methods against the engine, the git backend
// and the record store.
type Server struct {
	engine  *engine.Engine
	git     core.GitBackend
	records *forge.RecordStore
	logger  logging.Logger

	upgrader websocket.Upgrader
}

// NewServer wires the server to its collaborators.
func NewServer(e *engine.Engine, git core.GitBackend, records *forge.RecordStore, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		engine:  e,
		git:     git,
		records: records,
		logger:  opts.Logger,
	}
}

// ListenAndServe accepts WebSocket connections on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	s.logger.Info("mcp server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket handshake failed", "error", err)
		return
	}
	s.logger.Info("mcp client connected", "remote", conn.RemoteAddr().String())
	s.handleConn(r.Context(), conn)
}

// handleConn serves one client connection. Writes are serialized through a
// mutex because the event stream goroutine shares the socket with request
// responses.
func (s *Server) handleConn(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	// Event subscriptions opened by this connection end with it.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debug("mcp client disconnected", "error", err)
			return
		}

		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			_ = write(Response{
				Jsonrpc: "2.0",
				Error:   &Error{Code: codeParse, Message: fmt.Sprintf("parse error: %v", err)},
			})
			continue
		}

		if req.Method == "events/subscribe" {
			resp := s.subscribeConn(connCtx, req, write)
			if err := write(resp); err != nil {
				return
			}
			continue
		}

		resp := s.Execute(connCtx, req)
		if err := write(resp); err != nil {
			return
		}
	}
}

// subscribeConn opens an engine subscription and streams its events to the
// client as notifications until the connection or the subscription ends.
func (s *Server) subscribeConn(ctx context.Context, req Request, write func(any) error) Response {
	params := struct {
		SchemaVersion int `json:"schema_version"`
	}{SchemaVersion: core.SchemaVersion}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))
		}
	}

	sub, err := s.engine.SubscribeEvents(params.SchemaVersion)
	if err != nil {
		return errorResponse(req, codeDomain, err.Error())
	}

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := write(Notification{Jsonrpc: "2.0", Method: "event", Params: ev}); err != nil {
					return
				}
			}
		}
	}()

	return okResponse(req, map[string]any{
		"subscription_id": sub.ID(),
		"schema_version":  core.SchemaVersion,
	})
}

func okResponse(req Request, result any) Response {
	return Response{Jsonrpc: "2.0", ID: req.ID, Result: result}
}

func errorResponse(req Request, code int, message string) Response {
	return Response{Jsonrpc: "2.0", ID: req.ID, Error: &Error{Code: code, Message: message}}
}
