// Package proto defines the JSON shapes exchanged with chat clients.
package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeMessage     = "message"
	TypeTyping      = "typing"
	TypeUserJoined  = "user_joined"
	TypeUserLeft    = "user_left"
	TypeMessageRead = "message_read"
	TypeError       = "error"
)

var (
	// ErrInvalidJSON is returned for payloads that are not a JSON object.
	ErrInvalidJSON = errors.New("invalid json")
	// ErrUnknownType is returned for inbound types other than message and typing.
	ErrUnknownType = errors.New("unknown event type")
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")
)

// Inbound is an event sent by the client.
type Inbound struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	RoomID      string `json:"room_id,omitempty"`
	RecipientID *int64 `json:"recipient_id,omitempty"`
	IsTyping    *bool  `json:"is_typing,omitempty"`
}

// Decode parses a single inbound text frame.
func Decode(data []byte) (Inbound, error) {
	var in Inbound
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return Inbound{}, fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}

	switch in.Type {
	case TypeMessage:
		return in, nil
	case TypeTyping:
		if in.IsTyping == nil {
			return Inbound{}, fmt.Errorf("%w: is_typing", ErrMissingField)
		}
		return in, nil
	case "":
		return Inbound{}, fmt.Errorf("%w: type", ErrMissingField)
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
}

// Message is the broadcast of a persisted chat message.
type Message struct {
	Type        string `json:"type"`
	ID          int64  `json:"id"`
	RoomID      string `json:"room_id"`
	Content     string `json:"content"`
	SenderID    int64  `json:"sender_id"`
	SenderName  string `json:"sender_name"`
	RecipientID *int64 `json:"recipient_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Typing reports that a user started or stopped typing.
type Typing struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

// Presence is sent when a user joins or leaves a room.
type Presence struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
}

// MessageRead is the read receipt delivered to a message's sender.
type MessageRead struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
	ReaderID  int64  `json:"reader_id"`
	ReadAt    string `json:"read_at"`
}

// Error describes a failure caused by the receiving session.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
