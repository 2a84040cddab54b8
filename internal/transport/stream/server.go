package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"cells/internal/streamproto"
)

// Backend is the simulation side of the stream server.
type Backend interface {
	Bootstrap() streamproto.BootstrapResponse
	QueuePaint(p streamproto.PaintMsg) bool
}

// Server exposes a bootstrap endpoint and a websocket frame stream.
type Server struct {
	hub     *Hub
	backend Backend
	log     *log.Logger

	// AllowRemote lets non-loopback clients connect.
	AllowRemote bool

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

// NewServer returns a server streaming frames published to hub.
func NewServer(hub *Hub, backend Backend, logger *log.Logger) *Server {
	return &Server{
		hub:     hub,
		backend: backend,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler routes /bootstrap and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	return mux
}

func (s *Server) allowed(r *http.Request) bool {
	return s.AllowRemote || isLoopbackRemote(r.RemoteAddr)
}

// BootstrapHandler describes the running simulation.
func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		resp := s.backend.Bootstrap()
		resp.ProtocolVersion = streamproto.Version
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// WSHandler streams frames and accepts paint messages.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub streamproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			closeWith(conn, websocket.ClosePolicyViolation, "bad subscribe")
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != streamproto.Version {
			closeWith(conn, websocket.ClosePolicyViolation, "expected SUBSCRIBE")
			return
		}
		switch sub.Encoding {
		case "":
			sub.Encoding = streamproto.EncodingJSON
		case streamproto.EncodingJSON, streamproto.EncodingZstd:
		default:
			closeWith(conn, websocket.ClosePolicyViolation, "unknown encoding")
			return
		}

		sid := fmt.Sprintf("S%d", s.nextID.Add(1))
		out := s.hub.subscribe(sid, sub.Encoding, 8)
		defer s.hub.unsubscribe(sid)
		s.logf("subscriber %s connected from %s (%s)", sid, r.RemoteAddr, sub.Encoding)

		msgType := websocket.TextMessage
		if sub.Encoding == streamproto.EncodingZstd {
			msgType = websocket.BinaryMessage
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(msgType, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: PAINT requests.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var p streamproto.PaintMsg
			if err := json.Unmarshal(msg, &p); err != nil || p.Type != "PAINT" {
				continue
			}
			if !s.backend.QueuePaint(p) {
				s.logf("subscriber %s: paint (%d,%d) dropped", sid, p.Row, p.Col)
			}
		}

		cancel()
		closeWith(conn, websocket.CloseNormalClosure, "bye")
		s.logf("subscriber %s disconnected", sid)

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
