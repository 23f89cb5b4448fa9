package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomcast/internal/utils"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// Handler runs the per-connection protocol:
//
//	Connecting -> Authenticating -> Joined -> Closing -> Closed
//	                     \---------------------------> Closed (auth failure)
//
// Events from one session are handled strictly in arrival order.
type Handler struct {
	auth        Authenticator
	registry    *Registry
	broadcaster *Broadcaster
	messages    *MessageService
	log         *zerolog.Logger
}

// NewHandler wires the protocol handler to its collaborators.
func NewHandler(
	auth Authenticator,
	registry *Registry,
	broadcaster *Broadcaster,
	messages *MessageService,
	logger *zerolog.Logger,
) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Handler{
		auth:        auth,
		registry:    registry,
		broadcaster: broadcaster,
		messages:    messages,
		log:         logger,
	}
}

// Serve drives an accepted transport until it closes. Authentication failures
// close the transport with a policy violation before any room admission.
func (h *Handler) Serve(ctx context.Context, t Transport, roomID, token string) {
	identity, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		h.log.Info().Err(err).Str("room_id", roomID).Msg("session refused")
		_ = t.Close(ClosePolicyViolation, "authentication failed")
		return
	}

	session := NewSession(utils.NewID(), identity, t)
	logger := h.log.With().
		Str("session_id", session.ID).
		Int64("user_id", identity.UserID).
		Str("room_id", roomID).
		Logger()

	h.registry.Register(roomID, session)
	logger.Info().Msg("session joined")
	h.broadcaster.Broadcast(ctx, roomID, PresenceEvent(EventUserJoined, roomID, identity), session)

	defer h.leave(ctx, session, roomID, &logger)

	for {
		in, err := t.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrMalformedEvent) || errors.Is(err, ErrRateLimited) {
				logger.Warn().Err(err).Msg("dropping inbound payload")
				continue
			}
			logger.Debug().Err(err).Msg("receive loop ended")
			return
		}
		h.dispatch(ctx, session, roomID, in, &logger)
	}
}

func (h *Handler) dispatch(ctx context.Context, s *Session, roomID string, in Inbound, logger *zerolog.Logger) {
	switch ev := in.(type) {
	case ChatMessage:
		// The broadcast carries the stored record, never the client's payload.
		msg, err := h.messages.Persist(ctx, ev.Content, roomID, s.Identity.UserID, ev.RecipientID)
		if err != nil {
			if errors.Is(err, ErrInvalidContent) {
				logger.Warn().Err(err).Msg("rejected chat message")
			} else {
				logger.Error().Err(err).Msg("persist chat message")
			}
			h.broadcaster.SendTo(ctx, s, ErrorEvent(roomID, errorFor(err)))
			return
		}
		logger.Debug().Int64("message_id", msg.ID).Msg("message persisted")
		h.broadcaster.Broadcast(ctx, roomID, MessageEvent(msg, s.Identity))
	case Typing:
		h.broadcaster.Broadcast(ctx, roomID, TypingEvent(roomID, s.Identity, ev.IsTyping), s)
	default:
		logger.Warn().Msgf("ignoring inbound event %T", in)
	}
}

// leave runs the Closing -> Closed transition. It is safe after an eviction
// because Unregister and Close are idempotent.
func (h *Handler) leave(ctx context.Context, s *Session, roomID string, logger *zerolog.Logger) {
	h.registry.Unregister(s, roomID)
	h.broadcaster.Broadcast(context.WithoutCancel(ctx), roomID, PresenceEvent(EventUserLeft, roomID, s.Identity))
	s.Close(CloseNormal, "closing")
	logger.Info().Msg("session left")
}

// MarkRead records a read receipt and notifies every live session of the
// message's sender.
func (h *Handler) MarkRead(ctx context.Context, messageID, readerID int64) (Message, error) {
	msg, err := h.messages.MarkRead(ctx, messageID, readerID)
	if err != nil {
		return Message{}, err
	}
	h.broadcaster.DirectSend(ctx, msg.SenderID, ReadEvent(msg))
	return msg, nil
}
