package ws

import (
	"encoding/json"
	"fmt"
	"time"
)

// Типы сообщений протокола
const (
	MessageTypePlayerJoined    = "player_joined"
	MessageTypePlayerLeft      = "player_left"
	MessageTypePlayerUpdate    = "player_update"
	MessageTypePlayerInput     = "player_input"
	MessageTypeProjectileFired = "projectile_fired"
	MessageTypePlayerHit       = "player_hit"
	MessageTypeChat            = "chat_message"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
	MessageTypeInfo            = "info"
)

// Vector3 сетевое представление вектора
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion сетевое представление ориентации
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// PlayerJoinedMessage игрок вошел в сессию
type PlayerJoinedMessage struct {
	Type       string     `json:"type"`
	PlayerID   string     `json:"player_id"`
	Name       string     `json:"name,omitempty"`
	Position   Vector3    `json:"position"`
	Rotation   Quaternion `json:"rotation"`
	Health     float64    `json:"health"`
	Color      string     `json:"color,omitempty"`
	ServerTime int64      `json:"server_time"`
}

// PlayerLeftMessage игрок покинул сессию
type PlayerLeftMessage struct {
	Type       string `json:"type"`
	PlayerID   string `json:"player_id"`
	ServerTime int64  `json:"server_time"`
}

// PlayerUpdateMessage снапшот трансформа и состояния игрока
type PlayerUpdateMessage struct {
	Type        string     `json:"type"`
	PlayerID    string     `json:"player_id"`
	Position    Vector3    `json:"position"`
	Rotation    Quaternion `json:"rotation"`
	Velocity    Vector3    `json:"velocity"`
	TurretYaw   float64    `json:"turret_yaw"`
	TurretPitch float64    `json:"turret_pitch"`
	Health      float64    `json:"health"`
	ServerTime  int64      `json:"server_time"`
}

// PlayerInputMessage снапшот ввода за тик: движение, приращения
// прицела и триггеры
type PlayerInputMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`

	Forward  bool `json:"forward"`
	Backward bool `json:"backward"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`

	TurretX float64 `json:"turret_x"`
	TurretY float64 `json:"turret_y"`

	Fire   bool `json:"fire"`
	Reload bool `json:"reload"`
}

// ProjectileFiredMessage выстрел: точка вылета, направление и
// серверные параметры снаряда
type ProjectileFiredMessage struct {
	Type         string  `json:"type"`
	ProjectileID string  `json:"projectile_id"`
	OwnerID      string  `json:"owner_id"`
	Origin       Vector3 `json:"origin"`
	Direction    Vector3 `json:"direction"`
	Speed        float64 `json:"speed"`
	Damage       float64 `json:"damage"`
	ServerTime   int64   `json:"server_time"`
}

// PlayerHitMessage попадание по игроку. KillerID заполняется только
// при смертельном попадании.
type PlayerHitMessage struct {
	Type       string  `json:"type"`
	PlayerID   string  `json:"player_id"`
	AttackerID string  `json:"attacker_id"`
	Damage     float64 `json:"damage"`
	Health     float64 `json:"health"`
	KillerID   string  `json:"killer_id,omitempty"`
	ServerTime int64   `json:"server_time"`
}

// ChatMessage текстовое сообщение в общий канал
type ChatMessage struct {
	Type       string `json:"type"`
	PlayerID   string `json:"player_id"`
	Username   string `json:"username,omitempty"`
	Text       string `json:"text"`
	ServerTime int64  `json:"server_time"`
}

// PingMessage пинг для измерения задержки
type PingMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
}

// PongMessage ответ на пинг
type PongMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
	ServerTime int64   `json:"server_time"`
}

// InfoMessage информационное сообщение
type InfoMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GetCurrentServerTime текущее серверное время в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// ParseMessage разбирает входящее сообщение в соответствующий тип
func ParseMessage(data []byte) (interface{}, error) {
	var baseMessage struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &baseMessage); err != nil {
		return nil, fmt.Errorf("ошибка разбора сообщения: %w", err)
	}

	switch baseMessage.Type {
	case MessageTypePlayerJoined:
		var msg PlayerJoinedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора player_joined: %w", err)
		}
		return &msg, nil

	case MessageTypePlayerLeft:
		var msg PlayerLeftMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора player_left: %w", err)
		}
		return &msg, nil

	case MessageTypePlayerUpdate:
		var msg PlayerUpdateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора player_update: %w", err)
		}
		return &msg, nil

	case MessageTypePlayerInput:
		var msg PlayerInputMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора player_input: %w", err)
		}
		return &msg, nil

	case MessageTypeProjectileFired:
		var msg ProjectileFiredMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора projectile_fired: %w", err)
		}
		return &msg, nil

	case MessageTypePlayerHit:
		var msg PlayerHitMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора player_hit: %w", err)
		}
		return &msg, nil

	case MessageTypeChat:
		var msg ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора chat_message: %w", err)
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора ping: %w", err)
		}
		return &msg, nil

	case MessageTypePong:
		var msg PongMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора pong: %w", err)
		}
		return &msg, nil

	case MessageTypeInfo:
		var msg InfoMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("ошибка разбора info: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("неизвестный тип сообщения: %s", baseMessage.Type)
	}
}

// NewPongMessage ответ на пинг с серверным временем
func NewPongMessage(clientTime float64) *PongMessage {
	return &PongMessage{
		Type:       MessageTypePong,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewInfoMessage информационное сообщение
func NewInfoMessage(message string) *InfoMessage {
	return &InfoMessage{
		Type:    MessageTypeInfo,
		Message: message,
	}
}
