package ws

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/gorilla/websocket"
)

// SafeWriter потокобезопасная запись в WebSocket. Физика и сетевой
// цикл пишут в одно соединение из разных горутин.
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// NewSafeWriter оборачивает соединение
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn}
}

// WriteJSON сериализует и отправляет сообщение под мьютексом. NaN в
// map-сообщениях заменяется нулем: json.Marshal на NaN падает, а
// разошедшаяся симуляция не должна рвать соединение.
func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	jsonData, err := json.Marshal(v)
	if err != nil {
		mapData, ok := v.(map[string]interface{})
		if !ok {
			return err
		}
		sanitizeMapValues(mapData)
		jsonData, err = json.Marshal(mapData)
		if err != nil {
			return err
		}
	}

	return w.conn.WriteMessage(websocket.TextMessage, jsonData)
}

// SendJSON алиас для WriteJSON
func (w *SafeWriter) SendJSON(v interface{}) error {
	return w.WriteJSON(v)
}

// Close закрывает соединение
func (w *SafeWriter) Close() error {
	return w.conn.Close()
}

// sanitizeMapValues рекурсивно заменяет NaN значения на 0
func sanitizeMapValues(data map[string]interface{}) {
	for k, v := range data {
		switch val := v.(type) {
		case float64:
			if math.IsNaN(val) {
				data[k] = 0.0
			}
		case float32:
			if math.IsNaN(float64(val)) {
				data[k] = float32(0.0)
			}
		case map[string]interface{}:
			sanitizeMapValues(val)
		case []interface{}:
			for i, item := range val {
				if itemMap, ok := item.(map[string]interface{}); ok {
					sanitizeMapValues(itemMap)
				} else if itemFloat, ok := item.(float64); ok && math.IsNaN(itemFloat) {
					val[i] = 0.0
				} else if itemFloat32, ok := item.(float32); ok && math.IsNaN(float64(itemFloat32)) {
					val[i] = float32(0.0)
				}
			}
		}
	}
}

// SafeValue заменяет NaN на значение по умолчанию
func SafeValue(value, defaultValue float64) float64 {
	if math.IsNaN(value) {
		return defaultValue
	}
	return value
}
