package usecase

import (
	"errors"
	"sync"
	"time"

	"notification-agent/internal/domain/entity"
	"notification-agent/pkg/logging"

	"github.com/golang-jwt/jwt/v4"
)

// Errores de sesión
var (
	ErrNotAuthenticated = errors.New("session is not authenticated")
	ErrTokenExpired     = errors.New("session token has expired")
)

// RealtimeTransport define el canal de push gestionado por la sesión. La
// implementación vive en infraestructura; la sesión es su único dueño.
type RealtimeTransport interface {
	// Abrir el canal para el usuario indicado; una apertura descarta la
	// conexión anterior. authorized se re-consulta en cada reintento.
	Open(userID, token string, authorized func() bool) error

	// Cerrar el canal y cancelar reintentos
	Close() error

	// Estado actual del canal
	State() entity.ConnectionState

	// Reintentos consecutivos fallidos
	Attempts() int
}

// SessionService posee la credencial de la sesión y el ciclo de vida del
// transporte. Fuera de la política de re-conexión, solo el teardown de la
// sesión cierra la conexión.
type SessionService struct {
	mu        sync.Mutex
	userID    string
	token     string
	expiresAt time.Time

	transport RealtimeTransport
	logger    *logging.Logger
}

// NewSessionService crea un nuevo SessionService
func NewSessionService(transport RealtimeTransport, logger *logging.Logger) *SessionService {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &SessionService{
		transport: transport,
		logger:    logger,
	}
}

// Start inicia (o re-inicia) la sesión con las credenciales indicadas. Una
// re-inicialización (p. ej. tras refrescar el token) descarta la conexión
// anterior antes de abrir la nueva.
func (s *SessionService) Start(userID, token string) error {
	if userID == "" || token == "" {
		return ErrNotAuthenticated
	}

	expiresAt := tokenExpiry(token)
	if !expiresAt.IsZero() && time.Now().After(expiresAt) {
		return ErrTokenExpired
	}

	s.mu.Lock()
	s.userID = userID
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()

	s.logger.Info("Starting session for user %s", userID)
	return s.transport.Open(userID, token, s.Authenticated)
}

// Authenticated indica si la sesión sigue siendo válida. La política de
// re-conexión lo consulta antes de cada reintento para no reconectar con
// credenciales caducadas.
func (s *SessionService) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return false
	}
	if !s.expiresAt.IsZero() && time.Now().After(s.expiresAt) {
		return false
	}
	return true
}

// Close termina la sesión y cierra el transporte
func (s *SessionService) Close() error {
	s.mu.Lock()
	s.userID = ""
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	return s.transport.Close()
}

// UserID devuelve el usuario de la sesión actual
func (s *SessionService) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// State devuelve el estado del canal de push
func (s *SessionService) State() entity.ConnectionState {
	return s.transport.State()
}

// Attempts devuelve los reintentos consecutivos fallidos del canal
func (s *SessionService) Attempts() int {
	return s.transport.Attempts()
}

// tokenExpiry extrae el claim exp de un token JWT sin verificar la firma (el
// agente no posee la clave del servidor). Un token opaco o sin exp se trata
// como sin expiración.
func tokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
