package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notification-agent/internal/domain/entity"
	"notification-agent/internal/usecase"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway implementa el gateway remoto para los tests de handlers
type fakeGateway struct {
	list    []*entity.Notification
	listErr error
}

func (g *fakeGateway) List(ctx context.Context) ([]*entity.Notification, error) {
	return g.list, g.listErr
}

func (g *fakeGateway) MarkRead(ctx context.Context, id string) error { return nil }
func (g *fakeGateway) MarkAllRead(ctx context.Context) error         { return nil }
func (g *fakeGateway) Delete(ctx context.Context, id string) error   { return nil }

func newTestRouter(service *usecase.NotificationService) *mux.Router {
	handler := NewNotificationHandler(service, nil)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/notifications", handler.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/unread-count", handler.GetUnreadCount).Methods("GET")
	api.HandleFunc("/notifications/refresh", handler.Refresh).Methods("POST")
	api.HandleFunc("/notifications/read-all", handler.MarkAllRead).Methods("POST")
	api.HandleFunc("/notifications/history", handler.GetHistory).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", handler.MarkRead).Methods("POST")
	api.HandleFunc("/notifications/{id}", handler.DeleteNotification).Methods("DELETE")
	return router
}

func seededService(t *testing.T, notifications ...*entity.Notification) *usecase.NotificationService {
	gateway := &fakeGateway{list: notifications}
	service := usecase.NewNotificationService(gateway, nil)
	require.NoError(t, service.FetchAll(context.Background()))
	return service
}

func doRequest(router *mux.Router, method, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, path, nil))
	return recorder
}

func TestListNotificationsEndpoint(t *testing.T) {
	service := seededService(t,
		&entity.Notification{ID: "n-1", Message: "a"},
		&entity.Notification{ID: "n-2", Message: "b", IsRead: true},
	)
	router := newTestRouter(service)

	recorder := doRequest(router, http.MethodGet, "/api/notifications")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var payload struct {
		Notifications []entity.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unread_count"`
		LastError     string                `json:"last_error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))

	assert.Len(t, payload.Notifications, 2)
	assert.Equal(t, 1, payload.UnreadCount)
	assert.Empty(t, payload.LastError)
}

func TestUnreadCountEndpoint(t *testing.T) {
	service := seededService(t,
		&entity.Notification{ID: "n-1", Message: "a"},
		&entity.Notification{ID: "n-2", Message: "b"},
	)
	router := newTestRouter(service)

	recorder := doRequest(router, http.MethodGet, "/api/notifications/unread-count")
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload map[string]int
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload["unread_count"])
}

func TestMarkReadEndpoint(t *testing.T) {
	service := seededService(t, &entity.Notification{ID: "n-1", Message: "a"})
	router := newTestRouter(service)

	recorder := doRequest(router, http.MethodPost, "/api/notifications/n-1/read")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, service.UnreadCount())
}

func TestMarkReadEndpointNotFound(t *testing.T) {
	service := seededService(t)
	router := newTestRouter(service)

	recorder := doRequest(router, http.MethodPost, "/api/notifications/ghost/read")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload["error"])
}

func TestMarkAllReadEndpoint(t *testing.T) {
	service := seededService(t,
		&entity.Notification{ID: "n-1", Message: "a"},
		&entity.Notification{ID: "n-2", Message: "b"},
	)
	router := newTestRouter(service)

	recorder := doRequest(router, http.MethodPost, "/api/notifications/read-all")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, service.UnreadCount())
}

func TestDeleteNotificationEndpoint(t *testing.T) {
	service := seededService(t, &entity.Notification{ID: "n-1", Message: "a"})
	router := newTestRouter(service)

	recorder := doRequest(router, http.MethodDelete, "/api/notifications/n-1")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, service.Len())

	recorder = doRequest(router, http.MethodDelete, "/api/notifications/n-1")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	gateway := &fakeGateway{}
	service := usecase.NewNotificationService(gateway, nil)
	router := newTestRouter(service)

	gateway.list = []*entity.Notification{
		{ID: "n-1", Message: "a"},
		{ID: "n-2", Message: "b"},
	}

	recorder := doRequest(router, http.MethodPost, "/api/notifications/refresh")
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload struct {
		Count       int `json:"count"`
		UnreadCount int `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, 2, payload.UnreadCount)
}

func TestHistoryEndpointWithoutArchive(t *testing.T) {
	service := seededService(t)
	router := newTestRouter(service)

	recorder := doRequest(router, http.MethodGet, "/api/notifications/history")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
