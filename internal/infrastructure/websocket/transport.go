package websocket

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"notification-agent/internal/domain/entity"
	"notification-agent/internal/infrastructure/cache"
	"notification-agent/internal/infrastructure/cue"
	"notification-agent/pkg/events"
	"notification-agent/pkg/logging"
	"notification-agent/pkg/metrics"
	"notification-agent/pkg/throttling"

	"github.com/gorilla/websocket"
)

const (
	// Tiempo máximo para escribir un mensaje al servidor
	defaultWriteWait = 10 * time.Second

	// Tiempo máximo para recibir el siguiente pong del servidor
	defaultPongWait = 60 * time.Second

	// Enviar pings al servidor con esta periodicidad
	defaultPingInterval = (defaultPongWait * 9) / 10

	// Tamaño máximo del frame entrante
	defaultMaxMessageSize = 4096
)

// errSuperseded indica que la conexión fue invalidada por una apertura o
// cierre posterior mientras el handshake estaba en curso
var errSuperseded = errors.New("connection superseded")

// FrameSink recibe las notificaciones ya normalizadas del canal de push
type FrameSink interface {
	UpsertFromPush(notification *entity.Notification) bool
}

// clientMessage representa un mensaje del agente hacia el servidor
type clientMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Options configura el transporte
type Options struct {
	URL            string
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	Policy         ReconnectPolicy
	Cue            cue.Player
	CueThrottle    throttling.Throttler
	Seen           *cache.SeenCache
	Events         *events.EventManager
	Logger         *logging.Logger
}

// Transport mantiene el canal de push con la plataforma. Es un recurso con
// dueño explícito: la sesión lo abre y lo cierra, y como mucho existe una
// conexión activa a la vez. Ciclo de estados: disconnected -> connecting ->
// connected; cualquier cierre o error vuelve a disconnected.
type Transport struct {
	opts   Options
	sink   FrameSink
	dialer *websocket.Dialer

	mu         sync.Mutex
	conn       *websocket.Conn
	state      entity.ConnectionState
	attempts   int
	gen        uint64
	userID     string
	token      string
	authorized func() bool

	// Serializa las escrituras (acks y pings) sobre la conexión
	writeMu sync.Mutex
}

// NewTransport crea un nuevo Transport
func NewTransport(sink FrameSink, opts Options) *Transport {
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger
	}
	opts.Policy = opts.Policy.normalized()

	return &Transport{
		opts:   opts,
		sink:   sink,
		dialer: websocket.DefaultDialer,
		state:  entity.StateDisconnected,
	}
}

// Open establece el canal para la sesión indicada. Una apertura descarta
// cualquier conexión anterior. Si el handshake inicial falla, la política de
// re-conexión sigue intentándolo en segundo plano.
func (t *Transport) Open(userID, token string, authorized func() bool) error {
	t.mu.Lock()
	t.gen++ // invalida los pumps y reintentos de la conexión anterior
	gen := t.gen
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.userID = userID
	t.token = token
	t.authorized = authorized
	t.attempts = 0
	t.mu.Unlock()

	if err := t.dial(gen); err != nil {
		go t.reconnectLoop(gen)
		return err
	}
	return nil
}

// Close cierra el canal y cancela cualquier reintento pendiente
func (t *Transport) Close() error {
	t.mu.Lock()
	t.gen++
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	t.setState(entity.StateDisconnected)
	return nil
}

// State devuelve el estado actual del canal
func (t *Transport) State() entity.ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Attempts devuelve el contador de reintentos consecutivos fallidos
func (t *Transport) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// setState actualiza el estado y la métrica asociada
func (t *Transport) setState(state entity.ConnectionState) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
	metrics.SetConnectionState(string(state))
}

// dial realiza el handshake y, si tiene éxito, arranca los pumps de lectura y
// ping. Un fallo de handshake deja el canal en disconnected.
func (t *Transport) dial(gen uint64) error {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return errSuperseded
	}
	userID, token := t.userID, t.token
	t.mu.Unlock()

	t.setState(entity.StateConnecting)

	endpoint, err := buildEndpoint(t.opts.URL, userID)
	if err != nil {
		t.setState(entity.StateDisconnected)
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := t.dialer.Dial(endpoint, header)
	if err != nil {
		t.setState(entity.StateDisconnected)
		return fmt.Errorf("websocket handshake: %w", err)
	}

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		conn.Close()
		return errSuperseded
	}
	t.conn = conn
	t.attempts = 0
	t.mu.Unlock()

	t.setState(entity.StateConnected)
	t.emit(events.EventConnected, map[string]interface{}{"user_id": userID})

	conn.SetReadLimit(t.opts.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(t.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(t.opts.PongWait))
		return nil
	})

	go t.readPump(conn, gen)
	go t.pingLoop(conn, gen)
	return nil
}

// readPump consume frames de la conexión hasta que cae. Un cierre no
// planificado dispara la política de re-conexión; el cierre explícito no.
func (t *Transport) readPump(conn *websocket.Conn, gen uint64) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		t.handleFrame(message)
	}
	conn.Close()

	t.mu.Lock()
	stale := gen != t.gen
	if !stale && t.conn == conn {
		t.conn = nil
	}
	t.mu.Unlock()

	if stale {
		// Cierre explícito (teardown de sesión o re-apertura): sin reconexión
		return
	}

	t.setState(entity.StateDisconnected)
	t.emit(events.EventDisconnected, nil)
	t.reconnectLoop(gen)
}

// pingLoop mantiene viva la conexión enviando pings periódicos
func (t *Transport) pingLoop(conn *websocket.Conn, gen uint64) {
	ticker := time.NewTicker(t.opts.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		stale := gen != t.gen || t.conn != conn
		t.mu.Unlock()
		if stale {
			return
		}

		t.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(t.opts.WriteWait))
		err := conn.WriteMessage(websocket.PingMessage, nil)
		t.writeMu.Unlock()
		if err != nil {
			// readPump notará el cierre y decidirá la reconexión
			conn.Close()
			return
		}
	}
}

// handleFrame normaliza un frame entrante y lo entrega al almacén. Los frames
// malformados se registran y descartan sin tumbar el pipeline.
func (t *Transport) handleFrame(message []byte) {
	metrics.FramesReceived.Inc()

	notification, err := entity.ParsePushFrame(message)
	if err != nil {
		metrics.FramesDropped.WithLabelValues("malformed").Inc()
		t.opts.Logger.Warn("Dropping malformed push frame: %v", err)
		return
	}

	if t.opts.Seen != nil && t.opts.Seen.Observe(notification.ID) {
		metrics.FramesDropped.WithLabelValues("duplicate").Inc()
		t.opts.Logger.Debug("Dropping redelivered push frame %s", notification.ID)
		return
	}

	if !t.sink.UpsertFromPush(notification) {
		metrics.FramesDropped.WithLabelValues("duplicate").Inc()
		return
	}

	t.ack(notification.ID)
	t.playCue()
}

// ack confirma la recepción de una notificación al servidor (mejor esfuerzo)
func (t *Transport) ack(notificationID string) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}

	msg := clientMessage{
		Type:    "ack",
		Payload: map[string]string{"notification_id": notificationID},
	}

	t.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(t.opts.WriteWait))
	err := conn.WriteJSON(msg)
	t.writeMu.Unlock()
	if err != nil {
		t.opts.Logger.Debug("Failed to ack notification %s: %v", notificationID, err)
	}
}

// playCue reproduce la señal sonora si está configurada. Un fallo de audio
// nunca afecta a la entrega de la notificación.
func (t *Transport) playCue() {
	if t.opts.Cue == nil {
		return
	}
	if t.opts.CueThrottle != nil && !t.opts.CueThrottle.Allow() {
		metrics.CueThrottled.Inc()
		return
	}
	if err := t.opts.Cue.Play(); err != nil {
		t.opts.Logger.Debug("Audible cue failed: %v", err)
		return
	}
	metrics.CuePlayed.Inc()
}

// reconnectLoop reintenta el handshake según la política hasta conseguir
// conexión, agotar el techo, perder la autenticación o quedar invalidado por
// una apertura o cierre posterior.
func (t *Transport) reconnectLoop(gen uint64) {
	bo := t.opts.Policy.NewBackOff()

	for {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		if t.opts.Policy.Exhausted(t.attempts) {
			t.mu.Unlock()
			t.opts.Logger.Warn("Reconnect ceiling reached (%d attempts), staying disconnected until next explicit open",
				t.opts.Policy.MaxAttempts)
			t.emit(events.EventGaveUp, map[string]interface{}{"attempts": t.opts.Policy.MaxAttempts})
			return
		}
		t.attempts++
		attempt := t.attempts
		authorized := t.authorized
		t.mu.Unlock()

		// Abortar en silencio si la sesión dejó de estar autenticada
		if authorized != nil && !authorized() {
			t.opts.Logger.Debug("Session no longer authenticated, aborting reconnection")
			return
		}

		wait := bo.NextBackOff()
		t.emit(events.EventReconnecting, map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": wait.Milliseconds(),
		})
		time.Sleep(wait)

		t.mu.Lock()
		stale := gen != t.gen
		authorized = t.authorized
		t.mu.Unlock()
		if stale {
			return
		}
		if authorized != nil && !authorized() {
			t.opts.Logger.Debug("Session no longer authenticated, aborting reconnection")
			return
		}

		if err := t.dial(gen); err == nil {
			return
		} else if errors.Is(err, errSuperseded) {
			return
		} else {
			t.opts.Logger.Warn("Reconnect attempt %d failed: %v", attempt, err)
		}
	}
}

// emit publica un evento si hay gestor configurado
func (t *Transport) emit(eventType events.EventType, data map[string]interface{}) {
	if t.opts.Events != nil {
		t.opts.Events.Emit(eventType, data)
	}
}

// buildEndpoint agrega el identificador de usuario a la URL del canal
func buildEndpoint(rawURL, userID string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid websocket url: %w", err)
	}
	if userID != "" {
		q := u.Query()
		q.Set("user_id", userID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
