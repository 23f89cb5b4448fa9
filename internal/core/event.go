package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage delivers a persisted chat message to room members.
	EventMessage EventKind = iota
	// EventTyping notifies room members that a user started or stopped typing.
	EventTyping
	// EventUserJoined notifies room members about a user joining the room.
	EventUserJoined
	// EventUserLeft notifies room members about a user leaving the room.
	EventUserLeft
	// EventMessageRead notifies a sender that the recipient read their message.
	EventMessageRead
	// EventError reports a failure to the session that caused it.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventTyping:
		return "typing"
	case EventUserJoined:
		return "user_joined"
	case EventUserLeft:
		return "user_left"
	case EventMessageRead:
		return "message_read"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	User     Identity // sender of a message, typist, or joining/leaving user
	Message  Message  // EventMessage and EventMessageRead
	IsTyping bool
	Error    *CoreError
}

// MessageEvent builds the broadcast for a persisted message.
func MessageEvent(msg Message, sender Identity) Event {
	return Event{Kind: EventMessage, Room: msg.RoomID, User: sender, Message: msg}
}

// TypingEvent builds a typing indicator broadcast.
func TypingEvent(room string, user Identity, isTyping bool) Event {
	return Event{Kind: EventTyping, Room: room, User: user, IsTyping: isTyping}
}

// PresenceEvent builds a user_joined or user_left broadcast.
func PresenceEvent(kind EventKind, room string, user Identity) Event {
	return Event{Kind: kind, Room: room, User: user}
}

// ReadEvent builds the receipt sent to the author of msg.
func ReadEvent(msg Message) Event {
	return Event{Kind: EventMessageRead, Room: msg.RoomID, Message: msg}
}

// ErrorEvent builds an error report for a single session.
func ErrorEvent(room string, err *CoreError) Event {
	return Event{Kind: EventError, Room: room, Error: err}
}
