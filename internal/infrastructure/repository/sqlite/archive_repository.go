package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"notification-agent/internal/domain/entity"
	"notification-agent/pkg/metrics"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	message     TEXT NOT NULL,
	data        TEXT,
	priority    INTEGER NOT NULL DEFAULT 0,
	is_read     INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP,
	archived_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);
`

const upsertQuery = `
INSERT INTO notifications (id, type, title, message, data, priority, is_read, created_at, archived_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	type     = excluded.type,
	title    = excluded.title,
	message  = excluded.message,
	data     = excluded.data,
	priority = excluded.priority,
	is_read  = excluded.is_read`

// notificationRow es la forma de una notificación en el archivo
type notificationRow struct {
	ID         string         `db:"id"`
	Type       string         `db:"type"`
	Title      string         `db:"title"`
	Message    string         `db:"message"`
	Data       sql.NullString `db:"data"`
	Priority   int            `db:"priority"`
	IsRead     bool           `db:"is_read"`
	CreatedAt  time.Time      `db:"created_at"`
	ArchivedAt time.Time      `db:"archived_at"`
}

// ArchiveRepository implementa repository.ArchiveRepository sobre una base
// sqlite embebida. Es un histórico local: sobrevive a reinicios del agente y
// nunca participa en el contador de no leídas.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository abre (o crea) el archivo en la ruta indicada
func NewArchiveRepository(path string) (*ArchiveRepository, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening notification archive: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing archive schema: %w", err)
	}

	return &ArchiveRepository{db: db}, nil
}

// Save guarda o actualiza una notificación
func (r *ArchiveRepository) Save(ctx context.Context, notification *entity.Notification) error {
	_, err := r.db.ExecContext(ctx, upsertQuery, upsertArgs(notification)...)
	record("save", err)
	return err
}

// SaveAll guarda o actualiza un lote de notificaciones en una transacción
func (r *ArchiveRepository) SaveAll(ctx context.Context, notifications []*entity.Notification) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		record("save_all", err)
		return err
	}

	for _, notification := range notifications {
		if _, err := tx.ExecContext(ctx, upsertQuery, upsertArgs(notification)...); err != nil {
			tx.Rollback()
			record("save_all", err)
			return err
		}
	}

	err = tx.Commit()
	record("save_all", err)
	return err
}

// MarkRead marca una notificación archivada como leída
func (r *ArchiveRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	record("mark_read", err)
	return err
}

// MarkAllRead marca todas las notificaciones archivadas como leídas
func (r *ArchiveRepository) MarkAllRead(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE is_read = 0`)
	record("mark_all_read", err)
	return err
}

// Delete elimina una notificación del archivo
func (r *ArchiveRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	record("delete", err)
	return err
}

// List devuelve el histórico, más recientes primero
func (r *ArchiveRepository) List(ctx context.Context, limit, offset int) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []notificationRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, type, title, message, data, priority, is_read, created_at, archived_at
		 FROM notifications
		 ORDER BY created_at DESC, archived_at DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	record("list", err)
	if err != nil {
		return nil, err
	}

	notifications := make([]*entity.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, row.toEntity())
	}
	return notifications, nil
}

// Close cierra el archivo
func (r *ArchiveRepository) Close() error {
	return r.db.Close()
}

// upsertArgs construye los argumentos del upsert para una notificación
func upsertArgs(notification *entity.Notification) []interface{} {
	var data sql.NullString
	if len(notification.Data) > 0 {
		data = sql.NullString{String: string(notification.Data), Valid: true}
	}

	return []interface{}{
		notification.ID,
		string(notification.Type),
		notification.Title,
		notification.Message,
		data,
		notification.Priority,
		notification.IsRead,
		notification.CreatedAt,
		time.Now().UTC(),
	}
}

// toEntity convierte una fila del archivo a la entidad de dominio
func (row notificationRow) toEntity() *entity.Notification {
	var data json.RawMessage
	if row.Data.Valid && row.Data.String != "" {
		data = json.RawMessage(row.Data.String)
	}

	return &entity.Notification{
		ID:        row.ID,
		Type:      entity.NotificationType(row.Type),
		Title:     row.Title,
		Message:   row.Message,
		Data:      data,
		Priority:  row.Priority,
		IsRead:    row.IsRead,
		CreatedAt: row.CreatedAt,
	}
}

// record actualiza la métrica de operaciones de archivo
func record(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ArchiveOperations.WithLabelValues(operation, status).Inc()
}
