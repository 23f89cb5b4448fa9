package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vovakirdan/roomcast/internal/store"
)

// MaxContentLength is the longest accepted chat message, in characters.
const MaxContentLength = 1000

// MessageService persists chat messages and read receipts through the durable store.
type MessageService struct {
	store store.MessageStore
	now   func() time.Time
}

// NewMessageService creates a message service backed by st.
func NewMessageService(st store.MessageStore) *MessageService {
	return &MessageService{store: st, now: time.Now}
}

// Persist stores a new message and returns the canonical record with the
// server-assigned id and timestamp. Content is trimmed before it is validated
// and stored.
func (s *MessageService) Persist(ctx context.Context, content, roomID string, senderID int64, recipientID *int64) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > MaxContentLength {
		return Message{}, ErrInvalidContent
	}

	rec := &store.Message{
		RoomID:      roomID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.InsertMessage(ctx, rec); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return messageFromStore(rec), nil
}

// MarkRead flags a message as read by its recipient. Marking an already read
// message returns it unchanged.
func (s *MessageService) MarkRead(ctx context.Context, messageID, readerID int64) (Message, error) {
	rec, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Message{}, ErrNotFound
		}
		return Message{}, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	if rec.RecipientID == nil || *rec.RecipientID != readerID {
		return Message{}, ErrForbidden
	}
	if rec.IsRead {
		return messageFromStore(rec), nil
	}

	rec, err = s.store.MarkMessageRead(ctx, messageID, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Message{}, ErrNotFound
		}
		return Message{}, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return messageFromStore(rec), nil
}

func messageFromStore(rec *store.Message) Message {
	return Message{
		ID:          rec.ID,
		RoomID:      rec.RoomID,
		SenderID:    rec.SenderID,
		RecipientID: rec.RecipientID,
		Content:     rec.Content,
		IsRead:      rec.IsRead,
		CreatedAt:   rec.CreatedAt,
		ReadAt:      rec.ReadAt,
	}
}
