package chat

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/notify"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
	"github.com/rajivgeraev/sudak-api/internal/store"
)

// syncReplier отвечает сразу, без задержки и случайности
type syncReplier struct {
	calls int
}

func (r *syncReplier) MaybeReply(reply func()) {
	r.calls++
	reply()
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestService(t *testing.T, replier AutoReplier) (*Service, *notify.Hub, store.Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s := store.NewMemory(store.DefaultQuotaBytes)
	hub := notify.NewHub(logger, 8)
	svc := NewService(s, hub, replier, logger)
	c := &clock{t: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)}
	svc.Now = c.now

	require.NoError(t, store.Put(context.Background(), s, store.KeyUsers, []models.User{
		{ID: "1", Name: "Анна"},
		{ID: "11", Name: "Борис"},
		{ID: "2", Name: "Вера"},
	}))
	return svc, hub, s
}

func TestConversationKeySymmetry(t *testing.T) {
	assert.Equal(t, ConversationKey("1700000000001", "1700000000002"), ConversationKey("1700000000002", "1700000000001"))
	assert.Equal(t, "1-2", ConversationKey("2", "1"))
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc, _, s := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, ConversationKey("1", "2"), "1", "Анна", "  \n ", "")
	assert.ErrorIs(t, err, apperrors.ErrEmptyMessage)

	_, err = s.Get(ctx, store.ChatKey("1-2"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSendAppendsAndNotifiesCounterpart(t *testing.T) {
	svc, hub, _ := newTestService(t, nil)
	ctx := context.Background()
	vera := hub.Subscribe("2")
	anna := hub.Subscribe("1")

	key := ConversationKey("2", "1")
	first, err := svc.Send(ctx, key, "1", "Анна", "Здравствуйте!", "Дом у моря")
	require.NoError(t, err)
	second, err := svc.Send(ctx, key, "2", "Вера", "Добрый день", "")
	require.NoError(t, err)
	assert.Less(t, first.ID, second.ID)

	messages, err := svc.Messages(ctx, key)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Здравствуйте!", messages[0].Text)
	assert.Equal(t, "2", messages[1].SenderID)

	ev := <-vera.Events()
	assert.Equal(t, notify.EventNewMessage, ev.Type)
	assert.Equal(t, "1-2", ev.ChatID)
	ev = <-anna.Events()
	assert.Equal(t, "2", ev.UserID)
}

func TestNewMessageEvent(t *testing.T) {
	msg := models.Message{ID: "01J", SenderID: "1", Text: "Привет", Timestamp: time.Date(2024, 8, 5, 12, 0, 0, 0, time.UTC)}
	ev, err := newMessageEvent("1-2", "1", msg)
	require.NoError(t, err)
	assert.Equal(t, notify.EventNewMessage, ev.Type)
	assert.Equal(t, "1-2", ev.ChatID)
	assert.Contains(t, string(ev.Payload), `"text":"Привет"`)

	// время вне диапазона RFC 3339 не сериализуется
	msg.Timestamp = time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = newMessageEvent("1-2", "1", msg)
	assert.Error(t, err)
}

func TestListConversations(t *testing.T) {
	svc, _, s := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, ConversationKey("1", "2"), "2", "Вера", "Свободно в июле?", "Студия у набережной")
	require.NoError(t, err)
	_, err = svc.Send(ctx, ConversationKey("1", "2"), "2", "Вера", "Жду ответа", "")
	require.NoError(t, err)
	_, err = svc.Send(ctx, ConversationKey("11", "1"), "1", "Анна", "Привет", "Вилла")
	require.NoError(t, err)
	// беседа с удалённым пользователем
	_, err = svc.Send(ctx, ConversationKey("1", "404"), "404", "Никто", "Эй", "")
	require.NoError(t, err)
	// беседа, где "1" лишь подстрока идентификатора
	_, err = svc.Send(ctx, ConversationKey("11", "2"), "11", "Борис", "Соседи?", "")
	require.NoError(t, err)

	convs, err := svc.ListConversations(ctx, "1", "")
	require.NoError(t, err)
	require.Len(t, convs, 2)

	assert.Equal(t, "1-11", convs[0].ID)
	assert.Equal(t, "Борис", convs[0].ParticipantName)
	assert.Zero(t, convs[0].UnreadCount)

	assert.Equal(t, "1-2", convs[1].ID)
	assert.Equal(t, "Вера", convs[1].ParticipantName)
	assert.Equal(t, "Жду ответа", convs[1].LastMessage)
	assert.Equal(t, "Студия у набережной", convs[1].PropertyTitle)
	assert.Equal(t, 2, convs[1].UnreadCount)

	convs, err = svc.ListConversations(ctx, "1", "СТУДИЯ")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "1-2", convs[0].ID)

	convs, err = svc.ListConversations(ctx, "1", "борис")
	require.NoError(t, err)
	require.Len(t, convs, 1)

	// просмотр сообщений не сбрасывает счётчик непрочитанных
	_, err = svc.Messages(ctx, "1-2")
	require.NoError(t, err)
	convs, err = svc.ListConversations(ctx, "1", "Вера")
	require.NoError(t, err)
	assert.Equal(t, 2, convs[0].UnreadCount)

	keys, err := s.Keys(ctx, store.ChatPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, 4)
}

func TestAutoReplyUsesReplier(t *testing.T) {
	replier := &syncReplier{}
	svc, _, _ := newTestService(t, replier)
	ctx := context.Background()

	key := ConversationKey("1", "2")
	_, err := svc.Send(ctx, key, "1", "Анна", "Можно с собакой?", "Дом")
	require.NoError(t, err)
	assert.Equal(t, 1, replier.calls)

	messages, err := svc.Messages(ctx, key)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "2", messages[1].SenderID)
	assert.Equal(t, "Вера", messages[1].SenderName)
	assert.Equal(t, AutoReplyText, messages[1].Text)
	assert.Equal(t, "Дом", messages[1].PropertyTitle)
}

func TestDemoAutoReplier(t *testing.T) {
	r := NewDemoAutoReplier(0.3, time.Millisecond)

	r.roll = func() float64 { return 0.3 }
	fired := make(chan struct{}, 1)
	r.MaybeReply(func() { fired <- struct{}{} })
	select {
	case <-fired:
		t.Fatal("reply must not be scheduled")
	case <-time.After(20 * time.Millisecond):
	}

	r.roll = func() float64 { return 0.29 }
	r.MaybeReply(func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("reply was not scheduled")
	}
}
