package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"notification-agent/internal/domain/entity"
	"notification-agent/pkg/logging"
	"notification-agent/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// maxBodySize acota la lectura de respuestas del servidor
const maxBodySize = 1 << 20

// Gateway implementa repository.NotificationGateway contra la API REST de la
// plataforma. No reintenta: cualquier fallo se propaga al llamador con el
// payload de error del servidor cuando está disponible.
type Gateway struct {
	baseURL string
	token   func() string
	client  *http.Client
	logger  *logging.Logger
}

// NewGateway crea un nuevo Gateway. token es la fuente de la credencial
// bearer que se adjunta a cada petición.
func NewGateway(baseURL string, token func() string, timeout time.Duration, logger *logging.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}

	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// List obtiene la lista completa de notificaciones en el orden del servidor
func (g *Gateway) List(ctx context.Context) ([]*entity.Notification, error) {
	body, err := g.do(ctx, http.MethodGet, "/notifications", "list")
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding notification list: %w", err)
	}

	notifications := make([]*entity.Notification, 0, len(raw))
	for _, item := range raw {
		notification, err := entity.ParsePushFrame(item)
		if err != nil {
			g.logger.Warn("Skipping malformed notification in list: %v", err)
			continue
		}
		notifications = append(notifications, notification)
	}
	return notifications, nil
}

// MarkRead marca una notificación como leída en el servidor
func (g *Gateway) MarkRead(ctx context.Context, id string) error {
	_, err := g.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", "mark_read")
	return err
}

// MarkAllRead marca todas las notificaciones como leídas en el servidor
func (g *Gateway) MarkAllRead(ctx context.Context) error {
	_, err := g.do(ctx, http.MethodPost, "/notifications/read-all", "mark_all_read")
	return err
}

// Delete elimina una notificación en el servidor
func (g *Gateway) Delete(ctx context.Context, id string) error {
	_, err := g.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), "delete")
	return err
}

// do ejecuta una petición autenticada y devuelve el cuerpo en caso de éxito
func (g *Gateway) do(ctx context.Context, method, path, operation string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if g.token != nil {
		if tok := g.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.RESTRequests.WithLabelValues(operation, "network_error").Inc()
		return nil, fmt.Errorf("calling %s: %w", operation, err)
	}
	defer resp.Body.Close()

	metrics.RecordLatency(metrics.RESTLatency, prometheus.Labels{"operation": operation}, start)
	metrics.RESTRequests.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", operation, err)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s failed: %s", operation, serverMessage(body, resp.StatusCode))
	}

	return body, nil
}

// serverMessage devuelve el mensaje de error del servidor si lo hay
func serverMessage(body []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("server returned status %d", status)
}
