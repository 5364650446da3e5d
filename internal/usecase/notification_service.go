package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"notification-agent/internal/domain/entity"
	"notification-agent/internal/domain/repository"
	"notification-agent/pkg/events"
	"notification-agent/pkg/logging"
	"notification-agent/pkg/metrics"
)

// ErrNotificationNotFound indica que el id no existe en la colección local
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService mantiene la colección normalizada de notificaciones y
// el contador de no leídas. Toda transición es atómica bajo el mutex, por lo
// que tras cualquier secuencia de operaciones se cumple el invariante:
// unread == número de registros con IsRead == false.
//
// Las mutaciones remotas (leer, leer todas, eliminar) son optimistas: el
// estado local cambia primero y el fallo del gateway se propaga al llamador.
// Por defecto el cambio optimista no se revierte; WithRollbackOnFailure
// activa la reversión.
type NotificationService struct {
	mu        sync.Mutex
	records   []*entity.Notification
	index     map[string]*entity.Notification
	unread    int
	lastError string
	fetchSeq  uint64

	gateway  repository.NotificationGateway
	archive  repository.ArchiveRepository
	events   *events.EventManager
	logger   *logging.Logger
	rollback bool
}

// NotificationServiceOption configura el NotificationService
type NotificationServiceOption func(*NotificationService)

// WithArchive activa el archivo local de mejor esfuerzo
func WithArchive(archive repository.ArchiveRepository) NotificationServiceOption {
	return func(s *NotificationService) {
		s.archive = archive
	}
}

// WithEvents conecta el gestor de eventos
func WithEvents(manager *events.EventManager) NotificationServiceOption {
	return func(s *NotificationService) {
		s.events = manager
	}
}

// WithRollbackOnFailure revierte el cambio optimista cuando la mutación
// remota falla
func WithRollbackOnFailure() NotificationServiceOption {
	return func(s *NotificationService) {
		s.rollback = true
	}
}

// NewNotificationService crea un nuevo NotificationService
func NewNotificationService(gateway repository.NotificationGateway, logger *logging.Logger, options ...NotificationServiceOption) *NotificationService {
	if logger == nil {
		logger = logging.DefaultLogger
	}

	service := &NotificationService{
		records: make([]*entity.Notification, 0),
		index:   make(map[string]*entity.Notification),
		gateway: gateway,
		logger:  logger,
	}

	for _, option := range options {
		option(service)
	}

	return service
}

// FetchAll pide la lista completa al gateway y reemplaza la colección con la
// respuesta tal cual (sin mezclar con pushes locales pendientes). Solo se
// aplica el resultado del fetch más reciente: una respuesta obsoleta se
// descarta. En caso de fallo la colección queda intacta y se registra el
// error.
func (s *NotificationService) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	list, err := s.gateway.List(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		s.emit(events.EventSyncFailed, map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("fetching notifications: %w", err)
	}

	s.mu.Lock()
	if seq != s.fetchSeq {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale notification list (superseded by a newer fetch)")
		return nil
	}

	records := make([]*entity.Notification, 0, len(list))
	index := make(map[string]*entity.Notification, len(list))
	unread := 0
	for _, notification := range list {
		if _, exists := index[notification.ID]; exists {
			continue
		}
		clone := notification.Clone()
		records = append(records, clone)
		index[clone.ID] = clone
		if !clone.IsRead {
			unread++
		}
	}

	s.records = records
	s.index = index
	s.unread = unread
	s.lastError = ""
	count := len(records)
	snapshot := cloneAll(records)
	s.mu.Unlock()

	s.updateGauges()
	s.emit(events.EventSyncCompleted, map[string]interface{}{"count": count, "unread": unread})
	s.archiveSaveAll(ctx, snapshot)
	return nil
}

// UpsertFromPush inserta una notificación llegada por el canal de push. Si el
// id ya existe la operación es un no-op (semántica de inserción como mucho
// una vez frente a la redelivery del transporte). Los pushes se anteponen:
// los más nuevos primero.
func (s *NotificationService) UpsertFromPush(notification *entity.Notification) bool {
	if notification == nil || notification.ID == "" {
		return false
	}

	s.mu.Lock()
	if _, exists := s.index[notification.ID]; exists {
		s.mu.Unlock()
		s.logger.Debug("Ignoring duplicate push for notification %s", notification.ID)
		return false
	}

	clone := notification.Clone()
	s.records = append([]*entity.Notification{clone}, s.records...)
	s.index[clone.ID] = clone
	if !clone.IsRead {
		s.unread++
	}
	s.mu.Unlock()

	metrics.NotificationsReceived.WithLabelValues(string(clone.Type)).Inc()
	s.updateGauges()
	s.emit(events.EventNotificationReceived, map[string]interface{}{
		"id":   clone.ID,
		"type": string(clone.Type),
	})
	s.archiveSave(clone.Clone())
	return true
}

// MarkRead marca una notificación como leída: voltea el estado local de
// inmediato y luego llama al gateway. El fallo remoto se devuelve al llamador.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	notification, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotificationNotFound
	}
	wasUnread := !notification.IsRead
	notification.IsRead = true
	if wasUnread && s.unread > 0 {
		s.unread--
	}
	s.mu.Unlock()

	s.updateGauges()
	s.emit(events.EventNotificationRead, map[string]interface{}{"id": id})
	s.archiveMarkRead(id)

	if err := s.gateway.MarkRead(ctx, id); err != nil {
		if s.rollback {
			s.mu.Lock()
			// Revertir sobre el estado actual: la notificación pudo haber
			// desaparecido mientras la llamada estaba en vuelo
			if current, exists := s.index[id]; exists && wasUnread && current.IsRead {
				current.IsRead = false
				s.unread++
			}
			s.mu.Unlock()
			s.updateGauges()
		}
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead marca todas las notificaciones como leídas con una sola llamada
// remota
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	flipped := make([]string, 0, s.unread)
	for _, notification := range s.records {
		if !notification.IsRead {
			notification.IsRead = true
			flipped = append(flipped, notification.ID)
		}
	}
	s.unread = 0
	s.mu.Unlock()

	s.updateGauges()
	s.emit(events.EventNotificationsRead, map[string]interface{}{"count": len(flipped)})
	s.archiveMarkAllRead()

	if err := s.gateway.MarkAllRead(ctx); err != nil {
		if s.rollback {
			s.mu.Lock()
			for _, id := range flipped {
				if current, exists := s.index[id]; exists && current.IsRead {
					current.IsRead = false
					s.unread++
				}
			}
			s.mu.Unlock()
			s.updateGauges()
		}
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// Delete elimina una notificación: la quita de la colección local de
// inmediato y luego llama al gateway
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	notification, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotificationNotFound
	}

	position := 0
	for i, record := range s.records {
		if record.ID == id {
			position = i
			break
		}
	}
	s.records = append(s.records[:position], s.records[position+1:]...)
	delete(s.index, id)
	wasUnread := !notification.IsRead
	if wasUnread && s.unread > 0 {
		s.unread--
	}
	s.mu.Unlock()

	s.updateGauges()
	s.emit(events.EventNotificationDeleted, map[string]interface{}{"id": id})
	s.archiveDelete(id)

	if err := s.gateway.Delete(ctx, id); err != nil {
		if s.rollback {
			s.mu.Lock()
			if _, exists := s.index[id]; !exists {
				if position > len(s.records) {
					position = len(s.records)
				}
				s.records = append(s.records[:position], append([]*entity.Notification{notification}, s.records[position:]...)...)
				s.index[id] = notification
				if wasUnread {
					s.unread++
				}
			}
			s.mu.Unlock()
			s.updateGauges()
		}
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// List devuelve una copia de la colección en su orden actual
func (s *NotificationService) List() []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.records)
}

// UnreadCount devuelve el contador de no leídas
func (s *NotificationService) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Len devuelve el tamaño de la colección
func (s *NotificationService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// LastError devuelve el último error de sincronización registrado ("" si la
// última sincronización fue correcta)
func (s *NotificationService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// updateGauges refresca las métricas derivadas del estado
func (s *NotificationService) updateGauges() {
	s.mu.Lock()
	unread := s.unread
	size := len(s.records)
	s.mu.Unlock()

	metrics.UnreadNotifications.Set(float64(unread))
	metrics.StoreSize.Set(float64(size))
}

// emit publica un evento si hay gestor configurado
func (s *NotificationService) emit(eventType events.EventType, data map[string]interface{}) {
	if s.events != nil {
		s.events.Emit(eventType, data)
	}
}

// Escrituras al archivo local: siempre de mejor esfuerzo

func (s *NotificationService) archiveSave(notification *entity.Notification) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(context.Background(), notification); err != nil {
		s.logger.Warn("Failed to archive notification %s: %v", notification.ID, err)
	}
}

func (s *NotificationService) archiveSaveAll(ctx context.Context, notifications []*entity.Notification) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveAll(ctx, notifications); err != nil {
		s.logger.Warn("Failed to archive notification list: %v", err)
	}
}

func (s *NotificationService) archiveMarkRead(id string) {
	if s.archive == nil {
		return
	}
	if err := s.archive.MarkRead(context.Background(), id); err != nil {
		s.logger.Warn("Failed to mark archived notification %s read: %v", id, err)
	}
}

func (s *NotificationService) archiveMarkAllRead() {
	if s.archive == nil {
		return
	}
	if err := s.archive.MarkAllRead(context.Background()); err != nil {
		s.logger.Warn("Failed to mark archived notifications read: %v", err)
	}
}

func (s *NotificationService) archiveDelete(id string) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Delete(context.Background(), id); err != nil {
		s.logger.Warn("Failed to delete archived notification %s: %v", id, err)
	}
}

// cloneAll copia un slice de notificaciones
func cloneAll(records []*entity.Notification) []*entity.Notification {
	result := make([]*entity.Notification, len(records))
	for i, record := range records {
		result[i] = record.Clone()
	}
	return result
}
