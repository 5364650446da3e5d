package websocket

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReconnectPolicy gobierna la re-conexión del canal tras una desconexión no
// planificada: backoff exponencial acotado y un techo de intentos
// consecutivos. Al alcanzar el techo el transporte queda desconectado hasta la
// siguiente apertura explícita.
type ReconnectPolicy struct {
	// Espera base antes del primer reintento
	BaseDelay time.Duration
	// Espera máxima entre reintentos
	MaxDelay time.Duration
	// Número máximo de intentos consecutivos fallidos
	MaxAttempts int
}

// DefaultReconnectPolicy es la política predeterminada
var DefaultReconnectPolicy = ReconnectPolicy{
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    3000 * time.Millisecond,
	MaxAttempts: 5,
}

// normalized rellena los campos sin valor con los predeterminados
func (p ReconnectPolicy) normalized() ReconnectPolicy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultReconnectPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultReconnectPolicy.MaxDelay
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultReconnectPolicy.MaxAttempts
	}
	return p
}

// NewBackOff construye el generador de esperas. Sin aleatoriedad: la secuencia
// es min(MaxDelay, BaseDelay*2^n), no decreciente.
func (p ReconnectPolicy) NewBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = p.MaxDelay
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// Exhausted indica si se alcanzó el techo de intentos
func (p ReconnectPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}
