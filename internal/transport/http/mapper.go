package http

import (
	"time"

	"github.com/vovakirdan/roomcast/internal/core"
	"github.com/vovakirdan/roomcast/internal/proto"
)

func inboundToCore(in proto.Inbound) core.Inbound {
	if in.Type == proto.TypeTyping {
		return core.Typing{IsTyping: *in.IsTyping}
	}
	return core.ChatMessage{
		Content:     in.Content,
		RoomID:      in.RoomID,
		RecipientID: in.RecipientID,
	}
}

func outboundFromEvent(ev core.Event) any {
	switch ev.Kind {
	case core.EventMessage:
		return proto.Message{
			Type:        proto.TypeMessage,
			ID:          ev.Message.ID,
			RoomID:      ev.Message.RoomID,
			Content:     ev.Message.Content,
			SenderID:    ev.Message.SenderID,
			SenderName:  ev.User.Name,
			RecipientID: ev.Message.RecipientID,
			CreatedAt:   formatTime(ev.Message.CreatedAt),
		}
	case core.EventTyping:
		return proto.Typing{
			Type:     proto.TypeTyping,
			UserID:   ev.User.UserID,
			UserName: ev.User.Name,
			IsTyping: ev.IsTyping,
		}
	case core.EventUserJoined, core.EventUserLeft:
		return proto.Presence{
			Type:     ev.Kind.String(),
			UserID:   ev.User.UserID,
			UserName: ev.User.Name,
		}
	case core.EventMessageRead:
		var readAt string
		if ev.Message.ReadAt != nil {
			readAt = formatTime(*ev.Message.ReadAt)
		}
		return proto.MessageRead{
			Type:      proto.TypeMessageRead,
			MessageID: ev.Message.ID,
			ReaderID:  derefID(ev.Message.RecipientID),
			ReadAt:    readAt,
		}
	case core.EventError:
		if ev.Error == nil {
			return proto.Error{Type: proto.TypeError, Code: "unknown", Message: "unknown error"}
		}
		return proto.Error{Type: proto.TypeError, Code: ev.Error.Code, Message: ev.Error.Message}
	default:
		return proto.Error{Type: proto.TypeError, Code: "unknown", Message: "unsupported event"}
	}
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID          int64   `json:"id"`
	RoomID      string  `json:"room_id"`
	Content     string  `json:"content"`
	SenderID    int64   `json:"sender_id"`
	RecipientID *int64  `json:"recipient_id,omitempty"`
	IsRead      bool    `json:"is_read"`
	CreatedAt   string  `json:"created_at"`
	ReadAt      *string `json:"read_at,omitempty"`
}

func messageResponse(msg core.Message) MessageResponse {
	resp := MessageResponse{
		ID:          msg.ID,
		RoomID:      msg.RoomID,
		Content:     msg.Content,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		IsRead:      msg.IsRead,
		CreatedAt:   formatTime(msg.CreatedAt),
	}
	if msg.ReadAt != nil {
		readAt := formatTime(*msg.ReadAt)
		resp.ReadAt = &readAt
	}
	return resp
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
