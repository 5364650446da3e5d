package http

import (
	"net/http"

	"notification-agent/internal/usecase"
	"notification-agent/pkg/events"
)

// ConnectionHandler expone el estado del canal de push
type ConnectionHandler struct {
	sessionService *usecase.SessionService
	eventManager   *events.EventManager
}

// NewConnectionHandler crea un nuevo ConnectionHandler
func NewConnectionHandler(sessionService *usecase.SessionService, eventManager *events.EventManager) *ConnectionHandler {
	return &ConnectionHandler{
		sessionService: sessionService,
		eventManager:   eventManager,
	}
}

// GetStatus devuelve el estado de la conexión y los reintentos en curso
func (h *ConnectionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"state":         string(h.sessionService.State()),
		"attempts":      h.sessionService.Attempts(),
		"authenticated": h.sessionService.Authenticated(),
		"user_id":       h.sessionService.UserID(),
	})
}

// GetEvents devuelve los eventos recientes del agente, más nuevos primero
func (h *ConnectionHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": h.eventManager.Recent(limit),
	})
}
