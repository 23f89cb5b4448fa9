package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/vovakirdan/roomcast/internal/store"
	"github.com/vovakirdan/roomcast/internal/store/migrate"
)

// newTestStore connects to ROOMCAST_TEST_POSTGRES_DSN and skips without it.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("ROOMCAST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ROOMCAST_TEST_POSTGRES_DSN not set")
	}
	if err := migrate.Run("postgres", dsn, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.pool.Exec(context.Background(), `TRUNCATE messages, users RESTART IDENTITY CASCADE`)
		_ = s.Close()
	})
	return s
}

func TestMessageRoundTrip(t *testing.T) {
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

	msg := &store.Message{
		RoomID:      "dm-1-2",
		SenderID:    alice.ID,
		RecipientID: &bob.ID,
		Content:     "hello",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.InsertMessage(ctx, msg); err != nil {
		t.Fatalf("insert: %v", err)
	}

	read, err := s.MarkMessageRead(ctx, msg.ID, msg.CreatedAt.Add(time.Second))
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !read.IsRead || read.ReadAt == nil || *read.RecipientID != bob.ID {
		t.Fatalf("unexpected message: %+v", read)
	}

	if _, err := s.GetMessage(ctx, msg.ID+1000); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetUserByID(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
