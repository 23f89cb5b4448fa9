package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/roomcast/internal/store"
)

var errTransportClosed = errors.New("transport closed")

type inboundItem struct {
	in  Inbound
	err error
}

// fakeTransport is an in-memory Transport. Outbound events land in events.
type fakeTransport struct {
	inbound chan inboundItem
	events  chan Event
	closed  chan struct{}

	mu        sync.Mutex
	closeOnce sync.Once
	closeCode CloseCode
	failSend  error
	blockSend bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan inboundItem, 16),
		events:  make(chan Event, 64),
		closed:  make(chan struct{}),
	}
}

func (f *fakeTransport) Send(ctx context.Context, ev Event) error {
	f.mu.Lock()
	fail, block := f.failSend, f.blockSend
	f.mu.Unlock()

	if fail != nil {
		return fail
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	select {
	case f.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeTransport) Close(code CloseCode, _ string) error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closeCode = code
		f.mu.Unlock()
		close(f.closed)
	})
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (Inbound, error) {
	select {
	case item := <-f.inbound:
		return item.in, item.err
	case <-f.closed:
		return nil, errTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) push(in Inbound) {
	f.inbound <- inboundItem{in: in}
}

func (f *fakeTransport) pushErr(err error) {
	f.inbound <- inboundItem{err: err}
}

func (f *fakeTransport) setFailSend(err error) {
	f.mu.Lock()
	f.failSend = err
	f.mu.Unlock()
}

func (f *fakeTransport) setBlockSend(block bool) {
	f.mu.Lock()
	f.blockSend = block
	f.mu.Unlock()
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeTransport) code() CloseCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCode
}

// fakeAuth accepts the tokens it knows.
type fakeAuth map[string]Identity

func (a fakeAuth) Authenticate(_ context.Context, token string) (Identity, error) {
	id, ok := a[token]
	if !ok || !id.Active {
		return Identity{}, ErrAuthFailure
	}
	return id, nil
}

// fakeMessageStore is an in-memory store.MessageStore.
type fakeMessageStore struct {
	mu        sync.Mutex
	nextID    int64
	messages  map[int64]*store.Message
	inserts   int
	insertErr error
	gate      chan struct{}
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{nextID: 100, messages: make(map[int64]*store.Message)}
}

func (s *fakeMessageStore) InsertMessage(ctx context.Context, msg *store.Message) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	s.inserts++
	msg.ID = s.nextID
	stored := *msg
	s.messages[msg.ID] = &stored
	return nil
}

func (s *fakeMessageStore) GetMessage(_ context.Context, id int64) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *msg
	return &out, nil
}

func (s *fakeMessageStore) MarkMessageRead(_ context.Context, id int64, readAt time.Time) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	msg.IsRead = true
	msg.ReadAt = &readAt
	out := *msg
	return &out, nil
}

func (s *fakeMessageStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

func (s *fakeMessageStore) last() *store.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[s.nextID]
}

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return Event{}
		}
	}
}

func noEvent(t *testing.T, ch <-chan Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.After(wait)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		case <-deadline:
			return
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestSession(id string, userID int64) (*Session, *fakeTransport) {
	ft := newFakeTransport()
	return NewSession(id, Identity{UserID: userID, Name: id, Active: true}, ft), ft
}
