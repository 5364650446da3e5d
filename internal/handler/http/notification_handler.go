package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"notification-agent/internal/domain/repository"
	"notification-agent/internal/usecase"

	"github.com/gorilla/mux"
)

// NotificationHandler maneja las peticiones HTTP relacionadas con notificaciones
type NotificationHandler struct {
	notificationService *usecase.NotificationService
	archive             repository.ArchiveRepository
}

// NewNotificationHandler crea un nuevo NotificationHandler
func NewNotificationHandler(notificationService *usecase.NotificationService, archive repository.ArchiveRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		archive:             archive,
	}
}

// ListNotifications devuelve la colección local en su orden actual
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": h.notificationService.List(),
		"unread_count":  h.notificationService.UnreadCount(),
		"last_error":    h.notificationService.LastError(),
	})
}

// GetUnreadCount devuelve el contador de no leídas
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"unread_count": h.notificationService.UnreadCount(),
	})
}

// Refresh fuerza una sincronización completa contra la plataforma
func (h *NotificationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.FetchAll(r.Context()); err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"count":        h.notificationService.Len(),
		"unread_count": h.notificationService.UnreadCount(),
	})
}

// MarkRead marca una notificación como leída
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notificationID := vars["id"]

	if err := h.notificationService.MarkRead(r.Context(), notificationID); err != nil {
		if errors.Is(err, usecase.ErrNotificationNotFound) {
			respondWithError(w, http.StatusNotFound, "Notification not found")
		} else {
			// El cambio local ya se aplicó; el fallo es de la llamada remota
			respondWithError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
	})
}

// MarkAllRead marca todas las notificaciones como leídas
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.MarkAllRead(r.Context()); err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
	})
}

// DeleteNotification elimina una notificación
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notificationID := vars["id"]

	if err := h.notificationService.Delete(r.Context(), notificationID); err != nil {
		if errors.Is(err, usecase.ErrNotificationNotFound) {
			respondWithError(w, http.StatusNotFound, "Notification not found")
		} else {
			respondWithError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
	})
}

// GetHistory devuelve el histórico archivado localmente
func (h *NotificationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondWithError(w, http.StatusNotFound, "Local archive is disabled")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	notifications, err := h.archive.List(r.Context(), limit, offset)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

// queryInt lee un parámetro entero de la query string
func queryInt(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

// Helpers para responder con JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
