package service

import (
	"context"
	"time"

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/domain"
)

// --- Collaborator Interfaces ---

// IMessageStore defines the append-only message persistence API the relay
// depends on. Implementations own durability, retention and read-marking.
type IMessageStore interface {
	// StoreMessage persists a new message and returns the stored record.
	StoreMessage(ctx context.Context, sender, receiver, text string, ts time.Time) (*domain.Message, error)
	// ConversationMessages returns messages between two users in
	// chronological order. A limit of 0 applies the store default; offset
	// skips from the most recent backwards.
	ConversationMessages(ctx context.Context, userA, userB string, limit, offset int64) ([]*domain.Message, error)
	// UserConversations returns one summary per conversation the user
	// participates in, most recently active first.
	UserConversations(ctx context.Context, user string) ([]*domain.ConversationSummary, error)
}

// IIdentityVerifier accepts or rejects a claimed identity during the
// handshake. It is handed only the client-supplied identity string.
type IIdentityVerifier interface {
	Verify(ctx context.Context, identity string) error
}

// --- Repository Interfaces ---

// IIdentityRepository defines the persistence lookup behind the
// directory-backed verifier.
type IIdentityRepository interface {
	Exists(ctx context.Context, identity string) (bool, error)
}
