package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aleskucera/simview/internal/persistence/store"
	"github.com/aleskucera/simview/internal/protocol"
)

// Server delivers the current simulation document to viewer connections.
// Viewers request the two halves explicitly (get_model, get_states) and the
// server answers with one model message and one state message per frame.
type Server struct {
	log *log.Logger

	upgrader websocket.Upgrader

	mu  sync.RWMutex
	doc *store.Document
}

func NewServer(logger *log.Logger) *Server {
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// SetDocument atomically swaps the served simulation. Connections opened
// before the swap see the new document on their next request; a document is
// never visible half-replaced.
func (s *Server) SetDocument(doc *store.Document) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

func (s *Server) document() *store.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 64)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				s.send(ctx, out, protocol.ErrorMsg{Type: protocol.TypeError, Code: protocol.ErrProtoBadRequest, Message: "malformed message"})
				continue
			}
			switch base.Type {
			case protocol.TypeGetModel:
				s.sendModel(ctx, out)
			case protocol.TypeGetStates:
				s.sendStates(ctx, out)
			default:
				s.send(ctx, out, protocol.ErrorMsg{Type: protocol.TypeError, Code: protocol.ErrProtoBadRequest, Message: "unknown request type"})
			}
		}
	}
}

func (s *Server) sendModel(ctx context.Context, out chan<- []byte) {
	doc := s.document()
	if doc == nil {
		s.send(ctx, out, protocol.ErrorMsg{Type: protocol.TypeError, Code: protocol.ErrNoModel, Message: "no simulation loaded"})
		return
	}
	model := doc.Model
	model.Type = protocol.TypeModel
	s.send(ctx, out, model)
}

func (s *Server) sendStates(ctx context.Context, out chan<- []byte) {
	doc := s.document()
	if doc == nil || len(doc.States) == 0 {
		s.send(ctx, out, protocol.ErrorMsg{Type: protocol.TypeError, Code: protocol.ErrNoStates, Message: "no states loaded"})
		return
	}
	for _, f := range doc.States {
		s.send(ctx, out, protocol.StateMsg{Type: protocol.TypeState, Frame: f})
	}
}

func (s *Server) send(ctx context.Context, out chan<- []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		if s.log != nil {
			s.log.Printf("marshal %T: %v", v, err)
		}
		return
	}
	select {
	case <-ctx.Done():
	case out <- b:
	}
}
