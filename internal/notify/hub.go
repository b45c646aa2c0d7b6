// Package notify раздаёт события об изменениях подписчикам внутри процесса.
//
// Клиенты получают события через long-polling, поэтому каждая подписка
// живёт ровно столько, сколько длится один запрос.
package notify

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultBuffer размер очереди событий одной подписки
const DefaultBuffer = 16

// EventType определяет тип события
type EventType string

const (
	EventListingsChanged EventType = "listings_changed"
	EventNewMessage      EventType = "new_message"
)

// Event представляет событие для подписчиков
type Event struct {
	Type      EventType       `json:"type"`
	Revision  int64           `json:"revision,omitempty"`
	ListingID int64           `json:"listing_id,omitempty"`
	ChatID    string          `json:"chat_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Subscription получает события в буферизованный канал
type Subscription struct {
	ID     uuid.UUID
	UserID string
	events chan Event
}

// Events возвращает канал событий; закрывается при отписке
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Hub центральный менеджер подписок
type Hub struct {
	mu       sync.RWMutex
	subs     map[uuid.UUID]*Subscription
	userSubs map[string]map[uuid.UUID]bool // userID -> подписки пользователя
	buffer   int
	revision atomic.Int64
	logger   *logrus.Logger
	now      func() time.Time
}

// NewHub создаёт новый экземпляр Hub
func NewHub(logger *logrus.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:     make(map[uuid.UUID]*Subscription),
		userSubs: make(map[string]map[uuid.UUID]bool),
		buffer:   buffer,
		logger:   logger,
		now:      time.Now,
	}
}

// Subscribe регистрирует подписку; userID может быть пустым
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		ID:     uuid.New(),
		UserID: userID,
		events: make(chan Event, h.buffer),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	if userID != "" {
		if _, exists := h.userSubs[userID]; !exists {
			h.userSubs[userID] = make(map[uuid.UUID]bool)
		}
		h.userSubs[userID][sub.ID] = true
	}
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{"subscription": sub.ID, "user_id": userID}).Debug("Новая подписка")
	return sub
}

// Unsubscribe удаляет подписку и закрывает её канал
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *Hub) removeLocked(id uuid.UUID) {
	sub, exists := h.subs[id]
	if !exists {
		return
	}
	delete(h.subs, id)

	if ids, ok := h.userSubs[sub.UserID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(h.userSubs, sub.UserID)
		}
	}
	close(sub.events)
}

// Broadcast отправляет событие всем подписчикам
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	event = h.stamp(event)
	for id, sub := range h.subs {
		h.deliverLocked(id, sub, event)
	}
}

// SendToUser отправляет событие всем подпискам пользователя
func (h *Hub) SendToUser(userID string, event Event) {
	if userID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Пользователь не ждёт событий, данные всё равно уже в хранилище
	ids, exists := h.userSubs[userID]
	if !exists {
		return
	}

	event = h.stamp(event)
	for id := range ids {
		h.deliverLocked(id, h.subs[id], event)
	}
}

// ListingsChanged увеличивает ревизию объявлений и оповещает всех
func (h *Hub) ListingsChanged(listingID int64) int64 {
	rev := h.revision.Add(1)
	h.Broadcast(Event{
		Type:      EventListingsChanged,
		Revision:  rev,
		ListingID: listingID,
	})
	return rev
}

// Revision текущая ревизия объявлений
func (h *Hub) Revision() int64 {
	return h.revision.Load()
}

// Subscribers количество активных подписок
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Shutdown закрывает все подписки
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.subs {
		h.removeLocked(id)
	}
}

func (h *Hub) stamp(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = h.now()
	}
	return event
}

// deliverLocked не блокируется: медленный подписчик отключается
func (h *Hub) deliverLocked(id uuid.UUID, sub *Subscription, event Event) {
	select {
	case sub.events <- event:
	default:
		h.logger.WithField("subscription", id).Warn("Очередь подписки переполнена, отключаем")
		h.removeLocked(id)
	}
}
