package throttling

import (
	"golang.org/x/time/rate"
)

// Throttler decide si se permite una acción en este instante
type Throttler interface {
	// Allow comprueba si se permite la acción y consume un token
	Allow() bool
}

// RateThrottler limita acciones con un bucket de tokens. Se usa para acotar
// la señal sonora cuando llegan ráfagas de notificaciones.
type RateThrottler struct {
	limiter *rate.Limiter
}

// NewRateThrottler crea un RateThrottler con la tasa y burst indicados
func NewRateThrottler(perSecond float64, burst int) *RateThrottler {
	if burst < 1 {
		burst = 1
	}
	return &RateThrottler{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Allow comprueba si se permite la acción y consume un token
func (t *RateThrottler) Allow() bool {
	return t.limiter.Allow()
}

// Unlimited es un Throttler que siempre permite
type Unlimited struct{}

// Allow siempre devuelve true
func (Unlimited) Allow() bool {
	return true
}
