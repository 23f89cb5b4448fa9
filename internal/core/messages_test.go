package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMessageServicePersistAssignsServerFields(t *testing.T) {
	st := newFakeMessageStore()
	svc := NewMessageService(st)
	fixed := time.Date(2026, 10, 15, 12, 0, 0, 0, time.FixedZone("X", 3600))
	svc.now = func() time.Time { return fixed }

	msg, err := svc.Persist(context.Background(), "hello", "general", 1, nil)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if msg.ID == 0 || msg.IsRead {
		t.Fatalf("unexpected record: %+v", msg)
	}
	if !msg.CreatedAt.Equal(fixed) || msg.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC server timestamp, got %v", msg.CreatedAt)
	}
}

func TestMessageServicePersistValidatesContent(t *testing.T) {
	svc := NewMessageService(newFakeMessageStore())

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "empty", content: "", wantErr: ErrInvalidContent},
		{name: "whitespace", content: " \n\t", wantErr: ErrInvalidContent},
		{name: "too long", content: strings.Repeat("a", MaxContentLength+1), wantErr: ErrInvalidContent},
		{name: "limit counts characters", content: strings.Repeat("é", MaxContentLength)},
		{name: "at limit", content: strings.Repeat("a", MaxContentLength)},
		{name: "padding does not count", content: "  " + strings.Repeat("a", MaxContentLength) + "\n"},
		{name: "over limit after trimming", content: " " + strings.Repeat("a", MaxContentLength+1) + " ", wantErr: ErrInvalidContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Persist(context.Background(), tt.content, "general", 1, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMessageServicePersistStoresTrimmedContent(t *testing.T) {
	st := newFakeMessageStore()
	svc := NewMessageService(st)

	msg, err := svc.Persist(context.Background(), "  hello \n", "general", 1, nil)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if msg.Content != "hello" || st.last().Content != "hello" {
		t.Fatalf("expected trimmed content, got %q (stored %q)", msg.Content, st.last().Content)
	}
}

func TestMessageServicePersistWrapsStoreFailure(t *testing.T) {
	st := newFakeMessageStore()
	st.insertErr = errors.New("UNIQUE constraint failed")
	svc := NewMessageService(st)

	_, err := svc.Persist(context.Background(), "hello", "general", 1, nil)
	if !errors.Is(err, ErrStoreFailure) {
		t.Fatalf("expected ErrStoreFailure, got %v", err)
	}
}

func TestMessageServiceMarkRead(t *testing.T) {
	st := newFakeMessageStore()
	svc := NewMessageService(st)
	ctx := context.Background()

	recipient := int64(2)
	direct, err := svc.Persist(ctx, "for bob", "dm", 1, &recipient)
	if err != nil {
		t.Fatalf("persist direct: %v", err)
	}
	group, err := svc.Persist(ctx, "for everyone", "general", 1, nil)
	if err != nil {
		t.Fatalf("persist group: %v", err)
	}

	if _, err := svc.MarkRead(ctx, group.ID, 2); !errors.Is(err, ErrForbidden) {
		t.Fatalf("group message: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.MarkRead(ctx, direct.ID, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("sender: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.MarkRead(ctx, 424242, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: expected ErrNotFound, got %v", err)
	}

	first, err := svc.MarkRead(ctx, direct.ID, 2)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !first.IsRead || first.ReadAt == nil {
		t.Fatalf("expected read record, got %+v", first)
	}

	second, err := svc.MarkRead(ctx, direct.ID, 2)
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if !second.ReadAt.Equal(*first.ReadAt) {
		t.Fatalf("read timestamp changed on repeated mark: %v vs %v", second.ReadAt, first.ReadAt)
	}
}
