package core

// Inbound is an event received from a client. ChatMessage and Typing are the
// only implementations.
type Inbound interface {
	inbound()
}

// ChatMessage asks for content to be persisted and broadcast to the room.
// RoomID is informational; the session's room always wins.
type ChatMessage struct {
	Content     string
	RoomID      string
	RecipientID *int64
}

// Typing toggles the typing indicator of the sender.
type Typing struct {
	IsTyping bool
}

func (ChatMessage) inbound() {}
func (Typing) inbound()      {}
