package chat

import (
	"math/rand/v2"
	"time"
)

// AutoReplyText текст демонстрационного автоответа
const AutoReplyText = "Спасибо за сообщение! Отвечу в ближайшее время."

// AutoReplier решает, нужно ли ответить за собеседника, и планирует ответ
type AutoReplier interface {
	MaybeReply(reply func())
}

// DemoAutoReplier с заданной вероятностью отвечает через фиксированную задержку.
// Запланированный ответ нельзя отменить.
type DemoAutoReplier struct {
	Probability float64
	Delay       time.Duration

	roll func() float64
}

// NewDemoAutoReplier создаёт автоответчик
func NewDemoAutoReplier(probability float64, delay time.Duration) *DemoAutoReplier {
	return &DemoAutoReplier{Probability: probability, Delay: delay, roll: rand.Float64}
}

// MaybeReply планирует reply через Delay с вероятностью Probability
func (r *DemoAutoReplier) MaybeReply(reply func()) {
	if r.roll() >= r.Probability {
		return
	}
	time.AfterFunc(r.Delay, reply)
}
