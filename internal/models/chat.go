package models

import (
	"time"
)

// Message представляет сообщение в переписке
type Message struct {
	ID            string    `json:"id"`
	SenderID      string    `json:"senderId"`
	SenderName    string    `json:"senderName"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
	Read          bool      `json:"read,omitempty"`
	PropertyTitle string    `json:"propertyTitle,omitempty"`
}

// Conversation: строка списка бесед пользователя
type Conversation struct {
	ID              string    `json:"id"`
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	UnreadCount     int       `json:"unreadCount"`
	PropertyTitle   string    `json:"propertyTitle,omitempty"`
}
