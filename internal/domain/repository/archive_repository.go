package repository

import (
	"context"

	"notification-agent/internal/domain/entity"
)

// ArchiveRepository define el archivo local de notificaciones. Es un histórico
// de mejor esfuerzo: sus fallos se registran pero nunca afectan al estado en
// memoria ni al contador de no leídas.
type ArchiveRepository interface {
	// Guardar o actualizar una notificación
	Save(ctx context.Context, notification *entity.Notification) error

	// Guardar o actualizar un lote de notificaciones
	SaveAll(ctx context.Context, notifications []*entity.Notification) error

	// Marcar una notificación archivada como leída
	MarkRead(ctx context.Context, id string) error

	// Marcar todas las notificaciones archivadas como leídas
	MarkAllRead(ctx context.Context) error

	// Eliminar una notificación del archivo
	Delete(ctx context.Context, id string) error

	// Listar el histórico (más recientes primero)
	List(ctx context.Context, limit, offset int) ([]*entity.Notification, error)

	// Cerrar el archivo
	Close() error
}
