package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultSendTimeout bounds a single write to one peer.
	DefaultSendTimeout = 5 * time.Second

	fanoutLimit = 64
)

// Broadcaster fans events out to live sessions. Delivery is best effort per
// recipient: a failed or timed out send evicts that one session and never
// affects the others or the caller.
type Broadcaster struct {
	registry    *Registry
	sendTimeout time.Duration
	log         *zerolog.Logger
}

// NewBroadcaster creates a broadcaster over registry. A non-positive
// sendTimeout falls back to DefaultSendTimeout.
func NewBroadcaster(registry *Registry, sendTimeout time.Duration, logger *zerolog.Logger) *Broadcaster {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broadcaster{
		registry:    registry,
		sendTimeout: sendTimeout,
		log:         logger,
	}
}

// Broadcast delivers ev to every member of roomID except the excluded sessions.
func (b *Broadcaster) Broadcast(ctx context.Context, roomID string, ev Event, exclude ...*Session) {
	members := b.registry.MembersOf(roomID)
	if len(members) == 0 {
		return
	}

	targets := members[:0]
	for _, s := range members {
		if !contains(exclude, s) {
			targets = append(targets, s)
		}
	}

	b.log.Debug().
		Str("room_id", roomID).
		Str("event", ev.Kind.String()).
		Int("recipients", len(targets)).
		Msg("broadcast")
	b.deliver(ctx, ev, targets)
}

// DirectSend delivers ev to every live session of userID.
func (b *Broadcaster) DirectSend(ctx context.Context, userID int64, ev Event) {
	b.deliver(ctx, ev, b.registry.ConnectionsOf(userID))
}

// SendTo delivers ev to a single session with the same eviction rules.
func (b *Broadcaster) SendTo(ctx context.Context, s *Session, ev Event) {
	b.deliver(ctx, ev, []*Session{s})
}

func (b *Broadcaster) deliver(ctx context.Context, ev Event, targets []*Session) {
	if len(targets) == 0 {
		return
	}

	// A cancelled caller must not look like a dead peer.
	base := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(fanoutLimit)
	for _, s := range targets {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(base, b.sendTimeout)
			defer cancel()
			if err := s.Send(sendCtx, ev); err != nil {
				b.evict(s, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// evict drops s from every room and closes its transport. The session's own
// handler announces user_left when its receive loop ends.
func (b *Broadcaster) evict(s *Session, cause error) {
	b.log.Warn().
		Err(cause).
		Str("session_id", s.ID).
		Int64("user_id", s.Identity.UserID).
		Msg("evicting session after failed delivery")

	for _, roomID := range b.registry.RoomsOf(s) {
		b.registry.Unregister(s, roomID)
	}
	s.Close(CloseGoingAway, "delivery failed")
}

func contains(set []*Session, s *Session) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
