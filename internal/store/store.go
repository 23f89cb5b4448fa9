package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// User represents an account that may open chat sessions.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID          int64
	RoomID      string
	SenderID    int64
	RecipientID *int64 // nil for group messages
	Content     string
	IsRead      bool
	CreatedAt   time.Time
	ReadAt      *time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates an active user with a hashed password.
	CreateUser(ctx context.Context, email, fullName, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists msg and sets its ID. CreatedAt is supplied by the caller.
	InsertMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// MarkMessageRead sets the read flag and timestamp and returns the updated record.
	MarkMessageRead(ctx context.Context, id int64, readAt time.Time) (*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
