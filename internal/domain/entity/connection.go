package entity

// ConnectionState representa el estado del canal de push. No se persiste:
// vive solo mientras dura la conexión.
type ConnectionState string

const (
	// StateDisconnected indica que no hay conexión activa
	StateDisconnected ConnectionState = "disconnected"
	// StateConnecting indica que el handshake está en curso
	StateConnecting ConnectionState = "connecting"
	// StateConnected indica que el canal está establecido
	StateConnected ConnectionState = "connected"
)

// Valid verifica que el estado sea uno de los conocidos
func (s ConnectionState) Valid() bool {
	switch s {
	case StateDisconnected, StateConnecting, StateConnected:
		return true
	}
	return false
}
