// Package postgres implements store.Store on PostgreSQL using a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vovakirdan/roomcast/internal/store"
)

// PostgresStore implements store.Store for PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const userColumns = `id, email, full_name, hashed_password, is_active, created_at`

// CreateUser creates an active user with a hashed password.
func (s *PostgresStore) CreateUser(ctx context.Context, email, fullName, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (email, full_name, hashed_password, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING ` + userColumns
	user, err := scanUser(s.pool.QueryRow(ctx, query, email, fullName, passwordHash))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

const messageColumns = `id, content, sender_id, recipient_id, room_id, is_read, read_at, created_at`

// InsertMessage persists a message and sets its ID.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (content, sender_id, recipient_id, room_id, is_read, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $5)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		msg.Content, msg.SenderID, msg.RecipientID, msg.RoomID, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	msg.IsRead = false
	msg.ReadAt = nil
	return nil
}

// GetMessage retrieves a message by ID.
func (s *PostgresStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	msg, err := scanMessage(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// MarkMessageRead sets the read flag and returns the updated message.
func (s *PostgresStore) MarkMessageRead(ctx context.Context, id int64, readAt time.Time) (*store.Message, error) {
	query := `
		UPDATE messages
		SET is_read = TRUE, read_at = $2, updated_at = $2
		WHERE id = $1
		RETURNING ` + messageColumns
	msg, err := scanMessage(s.pool.QueryRow(ctx, query, id, readAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("update message: %w", err)
	}
	return msg, nil
}

func scanUser(row pgx.Row) (*store.User, error) {
	var user store.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanMessage(row pgx.Row) (*store.Message, error) {
	var msg store.Message
	if err := row.Scan(
		&msg.ID,
		&msg.Content,
		&msg.SenderID,
		&msg.RecipientID,
		&msg.RoomID,
		&msg.IsRead,
		&msg.ReadAt,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}
