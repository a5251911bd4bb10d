package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// InboundMessage разобранное сообщение клиента вместе с его
// соединением. Применяется владельцем цикла на границе тика, не в
// горутине чтения.
type InboundMessage struct {
	Client  *Client
	Message interface{}
}

// Client активное соединение с привязанным идентификатором игрока
type Client struct {
	Writer   *SafeWriter
	PlayerID string
}

// Hub принимает WebSocket соединения, читает и разбирает входящие
// сообщения, складывает их во внутреннюю очередь и рассылает исходящие
// события всем клиентам. Игровой логики не содержит.
type Hub struct {
	upgrader websocket.Upgrader

	clients   map[*Client]bool
	clientsMu sync.Mutex

	inbound      []InboundMessage
	disconnected []*Client
	inboundMu    sync.Mutex

	logger *logrus.Entry
}

// NewHub создает хаб соединений
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*Client]bool),
		logger:  logger.WithField("system", "ws"),
	}
}

// HandleWS обрабатывает одно WebSocket соединение: апгрейд, цикл
// чтения, снятие клиента при разрыве
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("ошибка апгрейда соединения")
		return
	}

	client := &Client{Writer: NewSafeWriter(conn)}

	h.clientsMu.Lock()
	h.clients[client] = true
	h.clientsMu.Unlock()

	h.logger.WithField("remote", r.RemoteAddr).Info("клиент подключен")

	defer func() {
		h.clientsMu.Lock()
		delete(h.clients, client)
		h.clientsMu.Unlock()
		conn.Close()

		// Разрыв, как и входящие сообщения, попадает в очередь и
		// применяется владельцем цикла на границе тика: снятие игрока
		// трогает физический мир и не должно идти из горутины чтения
		h.inboundMu.Lock()
		h.disconnected = append(h.disconnected, client)
		h.inboundMu.Unlock()

		h.logger.WithFields(logrus.Fields{
			"remote": r.RemoteAddr,
			"player": client.PlayerID,
		}).Info("клиент отключен")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Warn("ошибка чтения сообщения")
			}
			return
		}

		msg, err := ParseMessage(data)
		if err != nil {
			h.logger.WithError(err).Warn("нераспознанное сообщение")
			continue
		}

		// Пинг отвечаем сразу, минуя очередь тика
		if ping, ok := msg.(*PingMessage); ok {
			if err := client.Writer.SendJSON(NewPongMessage(ping.ClientTime)); err != nil {
				h.logger.WithError(err).Warn("ошибка отправки pong")
			}
			continue
		}

		// Первое player_joined привязывает id игрока к соединению
		if joined, ok := msg.(*PlayerJoinedMessage); ok && client.PlayerID == "" {
			client.PlayerID = joined.PlayerID
		}

		h.inboundMu.Lock()
		h.inbound = append(h.inbound, InboundMessage{Client: client, Message: msg})
		h.inboundMu.Unlock()
	}
}

// DrainInbound забирает накопленные входящие сообщения. Вызывается
// владельцем цикла раз в тик.
func (h *Hub) DrainInbound() []InboundMessage {
	h.inboundMu.Lock()
	defer h.inboundMu.Unlock()

	messages := h.inbound
	h.inbound = nil
	return messages
}

// DrainDisconnected забирает закрытые соединения. Вызывается владельцем
// цикла раз в тик, в паре с DrainInbound.
func (h *Hub) DrainDisconnected() []*Client {
	h.inboundMu.Lock()
	defer h.inboundMu.Unlock()

	clients := h.disconnected
	h.disconnected = nil
	return clients
}

// snapshotClients копия списка клиентов под блокировкой. Сетевые записи
// идут уже без нее: медленный клиент не должен задерживать рассылку и
// регистрацию новых соединений.
func (h *Hub) snapshotClients(except *Client) []*Client {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client == except {
			continue
		}
		clients = append(clients, client)
	}
	return clients
}

// Broadcast отправляет сообщение всем подключенным клиентам
func (h *Hub) Broadcast(v interface{}) {
	for _, client := range h.snapshotClients(nil) {
		if err := client.Writer.SendJSON(v); err != nil {
			h.logger.WithError(err).Warn("ошибка рассылки сообщения")
		}
	}
}

// BroadcastExcept отправляет сообщение всем, кроме указанного клиента
func (h *Hub) BroadcastExcept(except *Client, v interface{}) {
	for _, client := range h.snapshotClients(except) {
		if err := client.Writer.SendJSON(v); err != nil {
			h.logger.WithError(err).Warn("ошибка рассылки сообщения")
		}
	}
}

// ClientCount число активных соединений
func (h *Hub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}
