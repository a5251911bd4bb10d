package ws

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func dialHub(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(serverURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Unexpected dial error: %v", err)
	}
	return conn
}

// waitFor опрашивает условие до дедлайна: горутина чтения хаба
// асинхронна относительно теста
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before deadline")
}

func TestDisconnectQueuedUntilDrain(t *testing.T) {
	hub := NewHub(newTestLogger())
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer server.Close()

	conn := dialHub(t, server.URL)

	join := `{"type":"player_joined","player_id":"p1","name":"gunner"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(join)); err != nil {
		t.Fatalf("Unexpected write error: %v", err)
	}

	var inbound []InboundMessage
	waitFor(t, func() bool {
		inbound = append(inbound, hub.DrainInbound()...)
		return len(inbound) == 1
	})
	if inbound[0].Client.PlayerID != "p1" {
		t.Errorf("Expected bound player p1, got %q", inbound[0].Client.PlayerID)
	}

	// Пока соединение живо, очередь отключений пуста
	if got := hub.DrainDisconnected(); len(got) != 0 {
		t.Fatalf("Expected no disconnects before close, got %d", len(got))
	}

	conn.Close()

	// Разрыв не применяется немедленно: он попадает в очередь и
	// забирается только дренажем на границе тика
	var closed []*Client
	waitFor(t, func() bool {
		closed = append(closed, hub.DrainDisconnected()...)
		return len(closed) == 1
	})
	if closed[0].PlayerID != "p1" {
		t.Errorf("Expected disconnected player p1, got %q", closed[0].PlayerID)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients after close, got %d", hub.ClientCount())
	}

	// Очередь опустошается атомарно
	if got := hub.DrainDisconnected(); len(got) != 0 {
		t.Errorf("Expected empty queue after drain, got %d", len(got))
	}
}

func TestSnapshotClientsExcept(t *testing.T) {
	hub := NewHub(newTestLogger())

	c1, c2, c3 := &Client{}, &Client{}, &Client{}
	hub.clientsMu.Lock()
	hub.clients[c1] = true
	hub.clients[c2] = true
	hub.clients[c3] = true
	hub.clientsMu.Unlock()

	snapshot := hub.snapshotClients(c2)
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 clients in snapshot, got %d", len(snapshot))
	}
	for _, client := range snapshot {
		if client == c2 {
			t.Error("Expected excluded client to be absent from snapshot")
		}
	}

	// Снапшот независим от дальнейших изменений карты клиентов
	hub.clientsMu.Lock()
	delete(hub.clients, c1)
	hub.clientsMu.Unlock()
	if len(snapshot) != 2 {
		t.Errorf("Expected snapshot unaffected by map mutation, got %d", len(snapshot))
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(newTestLogger())
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer server.Close()

	first := dialHub(t, server.URL)
	defer first.Close()
	second := dialHub(t, server.URL)
	defer second.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.Broadcast(NewInfoMessage("раунд начался"))

	for i, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Unexpected read error for client %d: %v", i, err)
		}

		msg, err := ParseMessage(data)
		if err != nil {
			t.Fatalf("Unexpected parse error for client %d: %v", i, err)
		}
		info, ok := msg.(*InfoMessage)
		if !ok {
			t.Fatalf("Expected info message for client %d, got %T", i, msg)
		}
		if info.Message != "раунд начался" {
			t.Errorf("Expected broadcast text for client %d, got %q", i, info.Message)
		}
	}
}
