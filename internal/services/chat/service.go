// Package chat хранит переписку пользователей и собирает список бесед.
package chat

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/sudak-api/internal/metrics"
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/notify"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
	"github.com/rajivgeraev/sudak-api/internal/pkg/idgen"
	"github.com/rajivgeraev/sudak-api/internal/store"
)

const keySeparator = "-"

// Notifier доставляет событие подпискам пользователя
type Notifier interface {
	SendToUser(userID string, event notify.Event)
}

// Service работает с перепиской
type Service struct {
	store    store.Store
	notifier Notifier
	replier  AutoReplier
	logger   *logrus.Logger

	Now func() time.Time
}

// NewService создаёт новый экземпляр Service; replier может быть nil
func NewService(s store.Store, notifier Notifier, replier AutoReplier, logger *logrus.Logger) *Service {
	return &Service{
		store:    s,
		notifier: notifier,
		replier:  replier,
		logger:   logger,
		Now:      time.Now,
	}
}

// ConversationKey возвращает ключ беседы, не зависящий от порядка участников
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + keySeparator + b
}

// participants разбирает ключ беседы на двух участников
func participants(key string) (string, string, bool) {
	parts := strings.Split(key, keySeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// counterpart возвращает второго участника беседы
func counterpart(key, userID string) (string, bool) {
	a, b, ok := participants(key)
	switch {
	case !ok:
		return "", false
	case a == userID:
		return b, true
	case b == userID:
		return a, true
	default:
		return "", false
	}
}

// Send добавляет сообщение в беседу и оповещает собеседника
func (s *Service) Send(ctx context.Context, key, senderID, senderName, text, propertyTitle string) (models.Message, error) {
	msg, err := s.appendMessage(ctx, key, senderID, senderName, text, propertyTitle)
	if err != nil {
		return models.Message{}, err
	}
	metrics.MessageSent("user")

	recipientID, ok := counterpart(key, senderID)
	if ok && s.replier != nil {
		s.replier.MaybeReply(func() {
			s.autoReply(key, recipientID, propertyTitle)
		})
	}
	return msg, nil
}

func (s *Service) appendMessage(ctx context.Context, key, senderID, senderName, text, propertyTitle string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, apperrors.ErrEmptyMessage
	}

	now := s.Now()
	msg := models.Message{
		ID:            idgen.ULID(now),
		SenderID:      senderID,
		SenderName:    senderName,
		Text:          text,
		Timestamp:     now,
		PropertyTitle: propertyTitle,
	}

	err := store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		var messages []models.Message
		if _, err := tx.Get(ctx, store.ChatKey(key), &messages); err != nil {
			return err
		}
		return tx.Put(store.ChatKey(key), append(messages, msg))
	})
	if err != nil {
		return models.Message{}, err
	}

	if recipientID, ok := counterpart(key, senderID); ok {
		event, err := newMessageEvent(key, senderID, msg)
		if err != nil {
			// Сообщение уже сохранено, получатель увидит его при следующем чтении
			s.logger.WithError(err).WithField("chat_id", key).Error("Ошибка сериализации события сообщения")
			return msg, nil
		}
		s.notifier.SendToUser(recipientID, event)
	}
	return msg, nil
}

func newMessageEvent(key, senderID string, msg models.Message) (notify.Event, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return notify.Event{}, err
	}
	return notify.Event{
		Type:    notify.EventNewMessage,
		ChatID:  key,
		UserID:  senderID,
		Payload: payload,
	}, nil
}

// autoReply отвечает от имени собеседника; ошибки только логируются
func (s *Service) autoReply(key, responderID, propertyTitle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	names, err := s.userNames(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Автоответ: не удалось прочитать пользователей")
		return
	}
	name, ok := names[responderID]
	if !ok {
		return
	}

	if _, err := s.appendMessage(ctx, key, responderID, name, AutoReplyText, propertyTitle); err != nil {
		s.logger.WithError(err).WithField("chat", key).Warn("Автоответ не сохранён")
		return
	}
	metrics.MessageSent("auto_reply")
}

// Messages возвращает сообщения беседы в порядке отправки
func (s *Service) Messages(ctx context.Context, key string) ([]models.Message, error) {
	var messages []models.Message
	if _, err := store.GetJSON(ctx, s.store, store.ChatKey(key), &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

func (s *Service) userNames(ctx context.Context) (map[string]string, error) {
	var users []models.User
	if _, err := store.GetJSON(ctx, s.store, store.KeyUsers, &users); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// ListConversations собирает беседы пользователя, новые сверху.
// Сообщения никогда не помечаются прочитанными, поэтому счётчик
// непрочитанных считает все входящие.
func (s *Service) ListConversations(ctx context.Context, userID, search string) ([]models.Conversation, error) {
	keys, err := s.store.Keys(ctx, store.ChatPrefix)
	if err != nil {
		return nil, err
	}
	names, err := s.userNames(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))

	conversations := []models.Conversation{}
	for _, fullKey := range keys {
		key := strings.TrimPrefix(fullKey, store.ChatPrefix)
		peerID, ok := counterpart(key, userID)
		if !ok {
			continue
		}
		peerName, known := names[peerID]
		if !known {
			continue
		}

		messages, err := s.Messages(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(messages) == 0 {
			continue
		}

		last := messages[len(messages)-1]
		conv := models.Conversation{
			ID:              key,
			ParticipantID:   peerID,
			ParticipantName: peerName,
			LastMessage:     last.Text,
			LastMessageTime: last.Timestamp,
			PropertyTitle:   messages[0].PropertyTitle,
		}
		for _, m := range messages {
			if m.SenderID != userID && !m.Read {
				conv.UnreadCount++
			}
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(conv.ParticipantName), search) &&
			!strings.Contains(strings.ToLower(conv.PropertyTitle), search) {
			continue
		}
		conversations = append(conversations, conv)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageTime.After(conversations[j].LastMessageTime)
	})
	return conversations, nil
}
