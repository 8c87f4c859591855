package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/domain"
)

const defaultHistoryLimit = 50

// MessageStore is a SQLite-backed message store for single-binary
// deployments where running MongoDB is not worth it.
type MessageStore struct {
	db *sql.DB
}

// New opens (and if needed creates) the database at path.
func New(path string) (*MessageStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MessageStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *MessageStore) Close() error {
	return s.db.Close()
}

func (s *MessageStore) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			is_read INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id, is_read)`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// StoreMessage inserts a new message and returns the stored record.
// Timestamps are stored as unix nanoseconds.
func (s *MessageStore) StoreMessage(ctx context.Context, sender, receiver, text string, ts time.Time) (*domain.Message, error) {
	msg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: domain.ConversationID(sender, receiver),
		SenderID:       sender,
		ReceiverID:     receiver,
		Text:           text,
		Timestamp:      ts,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, receiver_id, text, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Text, msg.Timestamp.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

// ConversationMessages returns messages between two users in chronological
// order and marks the ones addressed to userA as read.
func (s *MessageStore) ConversationMessages(ctx context.Context, userA, userB string, limit, offset int64) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	conversationID := domain.ConversationID(userA, userB)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, receiver_id, text, timestamp, is_read
		 FROM messages WHERE conversation_id = ?
		 ORDER BY timestamp DESC LIMIT ? OFFSET ?`,
		conversationID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	// Newest-first from the query; flip to chronological for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1 WHERE conversation_id = ? AND receiver_id = ? AND is_read = 0`,
		conversationID, userA,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	return messages, nil
}

// UserConversations returns one summary per conversation the user takes
// part in, most recently active first.
func (s *MessageStore) UserConversations(ctx context.Context, user string) ([]*domain.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, MAX(timestamp) AS last_activity
		 FROM messages WHERE sender_id = ? OR receiver_id = ?
		 GROUP BY conversation_id ORDER BY last_activity DESC`,
		user, user,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var lastActivity int64
		if err := rows.Scan(&id, &lastActivity); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}

	summaries := make([]*domain.ConversationSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := s.conversationSummary(ctx, id, user)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *MessageStore) conversationSummary(ctx context.Context, conversationID, user string) (*domain.ConversationSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, sender_id, receiver_id, text, timestamp, is_read
		 FROM messages WHERE conversation_id = ?
		 ORDER BY timestamp DESC LIMIT 1`,
		conversationID,
	)
	last, err := scanMessage(row)
	if err != nil {
		return nil, err
	}

	var unread int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = ? AND receiver_id = ? AND is_read = 0`,
		conversationID, user,
	).Scan(&unread)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}

	peer := last.SenderID
	if peer == user {
		peer = last.ReceiverID
	}
	return &domain.ConversationSummary{
		Peer:         peer,
		LastMessage:  last,
		UnreadCount:  unread,
		LastActivity: last.Timestamp,
	}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (*domain.Message, error) {
	var msg domain.Message
	var ns int64
	var isRead int
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &ns, &isRead); err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	msg.Timestamp = time.Unix(0, ns)
	msg.Read = isRead != 0
	return &msg, nil
}
