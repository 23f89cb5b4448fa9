package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/roomcast/internal/store"
	"github.com/vovakirdan/roomcast/internal/store/migrations"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	schema, err := migrations.UpSchema("sqlite")
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "alice@example.com", "Alice Liddell", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 || !user.IsActive || user.FullName != "Alice Liddell" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := s.CreateUser(ctx, "alice@example.com", "Again", "hash"); err == nil {
		t.Fatalf("expected duplicate email to fail")
	}

	got, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}

	if _, err := s.GetUserByID(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := s.CreateUser(ctx, "bob@example.com", "Bob", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	createdAt := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	msg := &store.Message{
		RoomID:      "dm-1-2",
		SenderID:    alice.ID,
		RecipientID: &bob.ID,
		Content:     "hello bob",
		CreatedAt:   createdAt,
	}
	if err := s.InsertMessage(ctx, msg); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if msg.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	got, err := s.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if got.Content != "hello bob" || got.IsRead || got.ReadAt != nil {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.RecipientID == nil || *got.RecipientID != bob.ID {
		t.Fatalf("unexpected recipient: %v", got.RecipientID)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at %v, got %v", createdAt, got.CreatedAt)
	}

	readAt := createdAt.Add(time.Minute)
	read, err := s.MarkMessageRead(ctx, msg.ID, readAt)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !read.IsRead || read.ReadAt == nil || !read.ReadAt.Equal(readAt) {
		t.Fatalf("unexpected read state: %+v", read)
	}

	if _, err := s.MarkMessageRead(ctx, 999, readAt); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetMessage(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertMessageRejectsUnknownSender(t *testing.T) {
	s := newTestStore(t)

	err := s.InsertMessage(context.Background(), &store.Message{
		RoomID:    "general",
		SenderID:  42,
		Content:   "ghost",
		CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatalf("expected foreign key violation")
	}
}
