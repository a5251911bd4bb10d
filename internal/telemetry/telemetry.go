package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// EventKind тип боевого события
type EventKind string

const (
	EventShot EventKind = "shot"
	EventHit  EventKind = "hit"
	EventKill EventKind = "kill"
)

// CombatEvent запись боевого события
type CombatEvent struct {
	Timestamp int64      `json:"timestamp"`
	Kind      EventKind  `json:"kind"`
	ActorID   string     `json:"actor_id"`
	TargetID  string     `json:"target_id,omitempty"`
	Damage    float64    `json:"damage,omitempty"`
	Position  [3]float64 `json:"position"`
}

// Recorder собирает боевую телеметрию: выстрелы, попадания, убийства.
// Держит ограниченный буфер последних событий и счетчики, периодически
// пишет сводку в лог.
type Recorder struct {
	enabled    bool
	events     []CombatEvent
	mutex      sync.RWMutex
	maxEntries int

	counters      map[EventKind]int
	lastPrint     time.Time
	printInterval time.Duration

	logger *logrus.Entry
}

// NewRecorder создает рекордер телеметрии
func NewRecorder(logger *logrus.Logger) *Recorder {
	return &Recorder{
		enabled:       true,
		events:        make([]CombatEvent, 0),
		maxEntries:    200,
		counters:      make(map[EventKind]int),
		lastPrint:     time.Now(),
		printInterval: 2 * time.Second,
		logger:        logger.WithField("system", "telemetry"),
	}
}

// RecordShot фиксирует выстрел
func (r *Recorder) RecordShot(actorID string, position mgl64.Vec3) {
	r.record(CombatEvent{
		Kind:     EventShot,
		ActorID:  actorID,
		Position: [3]float64{position.X(), position.Y(), position.Z()},
	})
}

// RecordHit фиксирует попадание
func (r *Recorder) RecordHit(actorID, targetID string, damage float64, position mgl64.Vec3) {
	r.record(CombatEvent{
		Kind:     EventHit,
		ActorID:  actorID,
		TargetID: targetID,
		Damage:   damage,
		Position: [3]float64{position.X(), position.Y(), position.Z()},
	})
}

// RecordKill фиксирует убийство
func (r *Recorder) RecordKill(actorID, targetID string, position mgl64.Vec3) {
	r.record(CombatEvent{
		Kind:     EventKill,
		ActorID:  actorID,
		TargetID: targetID,
		Position: [3]float64{position.X(), position.Y(), position.Z()},
	})
}

func (r *Recorder) record(event CombatEvent) {
	if !r.enabled {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	event.Timestamp = time.Now().UnixMilli()
	r.events = append(r.events, event)

	if len(r.events) > r.maxEntries {
		r.events = r.events[1:]
	}

	r.counters[event.Kind]++
}

// PrintSummary пишет сводку в лог, не чаще printInterval
func (r *Recorder) PrintSummary() {
	if !r.enabled {
		return
	}

	now := time.Now()
	if now.Sub(r.lastPrint) < r.printInterval {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.logger.WithFields(logrus.Fields{
		"events": len(r.events),
		"shots":  r.counters[EventShot],
		"hits":   r.counters[EventHit],
		"kills":  r.counters[EventKill],
	}).Info("боевая телеметрия")

	r.counters = make(map[EventKind]int)
	r.lastPrint = now
}

// JSON буфер событий в формате JSON
func (r *Recorder) JSON() (string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	jsonData, err := json.MarshalIndent(r.events, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonData), nil
}

// Counters снимок счетчиков по видам событий
func (r *Recorder) Counters() map[EventKind]int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	counters := make(map[EventKind]int, len(r.counters))
	for k, v := range r.counters {
		counters[k] = v
	}
	return counters
}

// Len число событий в буфере
func (r *Recorder) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.events)
}

// SetEnabled включает или выключает запись
func (r *Recorder) SetEnabled(enabled bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.enabled = enabled
	r.logger.WithField("enabled", enabled).Info("телеметрия переключена")
}

// Clear очищает буфер и счетчики
func (r *Recorder) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.events = make([]CombatEvent, 0)
	r.counters = make(map[EventKind]int)
}
