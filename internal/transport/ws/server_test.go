package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aleskucera/simview/internal/persistence/store"
	"github.com/aleskucera/simview/internal/protocol"
)

func dialTestServer(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func request(t *testing.T, conn *websocket.Conn, typ string) []byte {
	t.Helper()
	if err := conn.WriteJSON(protocol.RequestMsg{Type: typ}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read reply to %s: %v", typ, err)
	}
	return msg
}

func expectError(t *testing.T, raw []byte, code string) {
	t.Helper()
	var em protocol.ErrorMsg
	if err := json.Unmarshal(raw, &em); err != nil {
		t.Fatalf("decode error message: %v", err)
	}
	if em.Type != protocol.TypeError || em.Code != code {
		t.Errorf("got type=%q code=%q, want error with code %q", em.Type, em.Code, code)
	}
}

func testDoc() *store.Document {
	return &store.Document{
		Model: protocol.ModelMsg{
			SimBatches: 1,
			Bodies: []protocol.BodyDef{
				{Name: "chassis", Shape: protocol.ShapeDef{Type: protocol.ShapeSphere, Radius: 0.5}},
			},
		},
		States: []protocol.Frame{
			{Time: 0, Bodies: []protocol.BodyState{{Name: "chassis"}}},
			{Time: 0.1, Bodies: []protocol.BodyState{{Name: "chassis"}}},
		},
	}
}

func TestGetModelWithoutDocument(t *testing.T) {
	conn := dialTestServer(t, NewServer(nil))
	expectError(t, request(t, conn, protocol.TypeGetModel), protocol.ErrNoModel)
}

func TestGetStatesWithoutDocument(t *testing.T) {
	conn := dialTestServer(t, NewServer(nil))
	expectError(t, request(t, conn, protocol.TypeGetStates), protocol.ErrNoStates)
}

func TestGetModel(t *testing.T) {
	s := NewServer(nil)
	s.SetDocument(testDoc())
	conn := dialTestServer(t, s)

	var model protocol.ModelMsg
	if err := json.Unmarshal(request(t, conn, protocol.TypeGetModel), &model); err != nil {
		t.Fatalf("decode model: %v", err)
	}
	if model.Type != protocol.TypeModel {
		t.Errorf("type = %q", model.Type)
	}
	if model.SimBatches != 1 || len(model.Bodies) != 1 {
		t.Errorf("model = %+v", model)
	}
}

func TestGetStates(t *testing.T) {
	s := NewServer(nil)
	s.SetDocument(testDoc())
	conn := dialTestServer(t, s)

	first := request(t, conn, protocol.TypeGetStates)
	var msg protocol.StateMsg
	if err := json.Unmarshal(first, &msg); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if msg.Type != protocol.TypeState || msg.Time != 0 {
		t.Errorf("first state = %+v", msg)
	}

	// One message per frame, in timeline order.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, second, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read second state: %v", err)
	}
	if err := json.Unmarshal(second, &msg); err != nil {
		t.Fatalf("decode second state: %v", err)
	}
	if msg.Time != 0.1 {
		t.Errorf("second state time = %g", msg.Time)
	}
}

func TestUnknownRequest(t *testing.T) {
	conn := dialTestServer(t, NewServer(nil))
	expectError(t, request(t, conn, "get_everything"), protocol.ErrProtoBadRequest)
}

func TestMalformedRequest(t *testing.T) {
	conn := dialTestServer(t, NewServer(nil))
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	expectError(t, raw, protocol.ErrProtoBadRequest)
}

func TestDocumentSwapVisibleToOpenConnection(t *testing.T) {
	s := NewServer(nil)
	conn := dialTestServer(t, s)

	expectError(t, request(t, conn, protocol.TypeGetModel), protocol.ErrNoModel)

	s.SetDocument(testDoc())
	var model protocol.ModelMsg
	if err := json.Unmarshal(request(t, conn, protocol.TypeGetModel), &model); err != nil {
		t.Fatalf("decode model: %v", err)
	}
	if model.SimBatches != 1 {
		t.Errorf("model after swap = %+v", model)
	}
}
