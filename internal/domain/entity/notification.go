package entity

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// NotificationType representa la categoría de una notificación. Es una cadena
// abierta: el servidor puede introducir categorías nuevas sin romper al agente.
type NotificationType string

const (
	NotificationTypeNormal   NotificationType = "normal"
	NotificationTypeAlert    NotificationType = "alert"
	NotificationTypeReminder NotificationType = "reminder"
	NotificationTypeMessage  NotificationType = "message"
)

// DefaultTitle se usa cuando el servidor no envía título en el frame
const DefaultTitle = "Notification"

// Errores de parseo de frames
var (
	ErrFrameMissingID      = errors.New("push frame missing id")
	ErrFrameMissingMessage = errors.New("push frame missing message")
)

// Notification representa una notificación tal y como la mantiene el agente.
// El ID lo asigna el servidor y es inmutable; IsRead solo transiciona de
// false a true dentro del cliente.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      json.RawMessage  `json:"data,omitempty"`
	Priority  int              `json:"priority"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Clone devuelve una copia independiente de la notificación
func (n *Notification) Clone() *Notification {
	c := *n
	if n.Data != nil {
		c.Data = append(json.RawMessage(nil), n.Data...)
	}
	return &c
}

// GetDataMap convierte los datos auxiliares a un mapa
func (n *Notification) GetDataMap() (map[string]interface{}, error) {
	if len(n.Data) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	err := json.Unmarshal(n.Data, &result)
	return result, err
}

// pushFrame es la forma cruda de un frame entrante. El servidor puede enviar
// el id como cadena o como entero, y la categoría bajo "notification_type" o
// bajo "type"; el parseo tolera ambas variantes.
type pushFrame struct {
	ID               json.RawMessage `json:"id"`
	Title            string          `json:"title"`
	Message          string          `json:"message"`
	NotificationType string          `json:"notification_type"`
	Type             string          `json:"type"`
	Priority         int             `json:"priority"`
	IsRead           bool            `json:"is_read"`
	CreatedAt        string          `json:"created_at"`
	Data             json.RawMessage `json:"data,omitempty"`
}

// ParsePushFrame normaliza un frame de push en una Notification. Un frame sin
// id o sin message se considera malformado y devuelve error.
func ParsePushFrame(raw []byte) (*Notification, error) {
	var frame pushFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, err
	}

	id, err := normalizeID(frame.ID)
	if err != nil {
		return nil, err
	}

	if frame.Message == "" {
		return nil, ErrFrameMissingMessage
	}

	title := frame.Title
	if title == "" {
		title = DefaultTitle
	}

	notificationType := frame.NotificationType
	if notificationType == "" {
		notificationType = frame.Type
	}
	if notificationType == "" {
		notificationType = string(NotificationTypeNormal)
	}

	createdAt, _ := time.Parse(time.RFC3339, frame.CreatedAt)

	return &Notification{
		ID:        id,
		Type:      NotificationType(notificationType),
		Title:     title,
		Message:   frame.Message,
		Data:      frame.Data,
		Priority:  frame.Priority,
		IsRead:    frame.IsRead,
		CreatedAt: createdAt,
	}, nil
}

// normalizeID acepta el id como cadena JSON o como entero y lo devuelve
// siempre como cadena decimal
func normalizeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", ErrFrameMissingID
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "" {
			return "", ErrFrameMissingID
		}
		return asString, nil
	}

	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return strconv.FormatInt(asNumber, 10), nil
	}

	return "", ErrFrameMissingID
}
