package hub

import "errors"

// Request failures surfaced to clients. The error text is the user-facing
// ack string, so these read as messages rather than Go error prose.
var (
	// ErrInvalidIdentity rejects a handshake whose identity is absent or
	// empty after trimming. Raised before any registry mutation.
	ErrInvalidIdentity = errors.New("Identity is required")

	// ErrInvalidMessageFormat rejects a malformed send request before any
	// persistence or relay is attempted.
	ErrInvalidMessageFormat = errors.New("Invalid message format")

	// ErrRecipientOffline rejects a send whose target has no live
	// connection. The relay does not buffer offline messages.
	ErrRecipientOffline = errors.New("Recipient not online")

	// ErrStore reports a persistence failure; the send is aborted and no
	// relay happens.
	ErrStore = errors.New("Failed to store message")

	// ErrHistoryUnavailable reports a failed history read.
	ErrHistoryUnavailable = errors.New("Failed to load message history")

	// ErrConversationsUnavailable reports a failed conversations read.
	ErrConversationsUnavailable = errors.New("Failed to load conversations")
)
