package core

import "time"

// Message is the canonical persisted chat message.
type Message struct {
	ID          int64
	RoomID      string
	SenderID    int64
	RecipientID *int64 // nil for group messages
	Content     string
	IsRead      bool
	CreatedAt   time.Time
	ReadAt      *time.Time
}
