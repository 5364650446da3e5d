package cache

import (
	"sync"
	"time"
)

// SeenCache recuerda los ids de frames vistos recientemente. Sirve de guarda
// barata frente a la redelivery del transporte, por delante de la
// de-duplicación del almacén.
type SeenCache struct {
	items           map[string]int64
	mu              sync.Mutex
	ttl             time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// NewSeenCache crea una nueva instancia de SeenCache
func NewSeenCache(ttl, cleanupInterval time.Duration) *SeenCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	cache := &SeenCache{
		items:           make(map[string]int64),
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	// Iniciar rutina de limpieza si el intervalo es mayor a 0
	if cleanupInterval > 0 {
		go cache.startCleanupTimer()
	}

	return cache
}

// Observe registra una vista del id y devuelve true si ya se había visto
// dentro de la ventana del TTL
func (c *SeenCache) Observe(id string) bool {
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	expiration, found := c.items[id]
	c.items[id] = now + c.ttl.Nanoseconds()

	return found && now <= expiration
}

// Len devuelve el número de ids recordados (incluyendo expirados aún no purgados)
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// startCleanupTimer inicia la rutina de limpieza periódica
func (c *SeenCache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

// deleteExpired elimina los ids expirados
func (c *SeenCache) deleteExpired() {
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, expiration := range c.items {
		if now > expiration {
			delete(c.items, id)
		}
	}
}

// Stop detiene la rutina de limpieza
func (c *SeenCache) Stop() {
	if c.cleanupInterval > 0 {
		close(c.stopCleanup)
	}
}
