package domain

import (
	"sort"
	"strings"
	"time"
)

// Message represents a single private message between two identities.
// Messages are immutable once stored; the Read flag is maintained by the
// message store and never crosses the wire.
type Message struct {
	ID             string    `bson:"_id" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"-"`
	SenderID       string    `bson:"sender_id" json:"sender_id"`
	ReceiverID     string    `bson:"receiver_id" json:"receiver_id"`
	Text           string    `bson:"text" json:"text"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
	Read           bool      `bson:"read" json:"-"`
}

// ConversationSummary is a derived view of one conversation from the
// perspective of a single user: the other participant, the most recent
// message, and how many of the messages addressed to that user are unread.
type ConversationSummary struct {
	Peer         string    `json:"peer"`
	LastMessage  *Message  `json:"last_message"`
	UnreadCount  int64     `json:"unread_count"`
	LastActivity time.Time `json:"last_activity"`
}

// ConversationID derives a stable conversation key for a pair of identities.
// The pair is sorted so both directions map to the same conversation.
func ConversationID(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
