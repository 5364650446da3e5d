package http

import (
	"net/http"
	"time"

	"notification-agent/internal/usecase"
)

// HealthHandler maneja las peticiones HTTP relacionadas con el estado del agente
type HealthHandler struct {
	startTime      time.Time
	sessionService *usecase.SessionService
}

// NewHealthHandler crea un nuevo HealthHandler
func NewHealthHandler(sessionService *usecase.SessionService) *HealthHandler {
	return &HealthHandler{
		startTime:      time.Now(),
		sessionService: sessionService,
	}
}

// Check proporciona información sobre el estado del agente
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":     "ok",
		"uptime":     time.Since(h.startTime).String(),
		"timestamp":  time.Now().Format(time.RFC3339),
		"service":    "notification-agent",
		"connection": string(h.sessionService.State()),
	}

	respondWithJSON(w, http.StatusOK, status)
}
