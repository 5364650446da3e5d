package events

import (
	"encoding/json"
	"sync"
	"time"

	"notification-agent/pkg/logging"
	"notification-agent/pkg/metrics"

	"github.com/google/uuid"
)

// EventType representa el tipo de evento
type EventType string

const (
	// Eventos del canal de push
	EventConnected    EventType = "connection.connected"
	EventDisconnected EventType = "connection.disconnected"
	EventReconnecting EventType = "connection.reconnecting"
	EventGaveUp       EventType = "connection.gave_up"

	// Eventos de notificación
	EventNotificationReceived EventType = "notification.received"
	EventNotificationRead     EventType = "notification.read"
	EventNotificationsRead    EventType = "notification.all_read"
	EventNotificationDeleted  EventType = "notification.deleted"

	// Eventos de sincronización
	EventSyncCompleted EventType = "sync.completed"
	EventSyncFailed    EventType = "sync.failed"
)

// Event representa un evento del agente
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventHandler es una función que maneja eventos
type EventHandler func(event Event)

// EventManager gestiona los eventos del agente
type EventManager struct {
	handlers map[EventType][]EventHandler
	recent   []Event
	maxLen   int
	mu       sync.RWMutex
	logger   *logging.Logger
}

// NewEventManager crea una nueva instancia de EventManager. maxRecent acota
// el histórico en memoria que expone Recent.
func NewEventManager(logger *logging.Logger, maxRecent int) *EventManager {
	if maxRecent <= 0 {
		maxRecent = 100
	}
	return &EventManager{
		handlers: make(map[EventType][]EventHandler),
		recent:   make([]Event, 0, maxRecent),
		maxLen:   maxRecent,
		logger:   logger,
	}
}

// Subscribe registra un manejador para un tipo de evento específico
func (m *EventManager) Subscribe(eventType EventType, handler EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Emit emite un evento
func (m *EventManager) Emit(eventType EventType, data map[string]interface{}) {
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	m.store(event)
	m.notify(event)
	m.logEvent(event)
}

// Recent devuelve los últimos eventos emitidos (más recientes primero)
func (m *EventManager) Recent(limit int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.recent) {
		limit = len(m.recent)
	}

	result := make([]Event, 0, limit)
	for i := len(m.recent) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.recent[i])
	}
	return result
}

// store guarda el evento en el histórico acotado
func (m *EventManager) store(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.recent) >= m.maxLen {
		m.recent = m.recent[1:]
	}
	m.recent = append(m.recent, event)
}

// notify notifica a todos los manejadores suscritos
func (m *EventManager) notify(event Event) {
	m.mu.RLock()
	handlers := m.handlers[event.Type]
	m.mu.RUnlock()

	// Llamar a los manejadores en goroutines separadas para no bloquear
	for _, handler := range handlers {
		go handler(event)
	}
}

// logEvent registra el evento en el log
func (m *EventManager) logEvent(event Event) {
	if m.logger == nil {
		return
	}

	dataJSON, _ := json.Marshal(event.Data)

	switch event.Type {
	case EventSyncFailed, EventGaveUp:
		m.logger.Warn("Event: %s, Data: %s", event.Type, string(dataJSON))
	case EventReconnecting:
		m.logger.Debug("Event: %s, Data: %s", event.Type, string(dataJSON))
	default:
		m.logger.Info("Event: %s, Data: %s", event.Type, string(dataJSON))
	}
}

// NewMetricsEventHandler crea un manejador que traduce eventos a métricas
func NewMetricsEventHandler() EventHandler {
	return func(event Event) {
		switch event.Type {
		case EventReconnecting:
			metrics.ReconnectAttempts.Inc()
		case EventGaveUp:
			metrics.ReconnectExhausted.Inc()
		}
	}
}
