package repository

import (
	"context"

	"notification-agent/internal/domain/entity"
)

// NotificationGateway define las operaciones remotas sobre las notificaciones
// del usuario autenticado. La implementación no reintenta: los reintentos, si
// los hay, pertenecen a la capa de transporte.
type NotificationGateway interface {
	// Obtener la lista completa de notificaciones (orden del servidor)
	List(ctx context.Context) ([]*entity.Notification, error)

	// Marcar una notificación como leída
	MarkRead(ctx context.Context, id string) error

	// Marcar todas las notificaciones como leídas
	MarkAllRead(ctx context.Context) error

	// Eliminar una notificación
	Delete(ctx context.Context, id string) error
}
