package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/domain"
)

const messageCollection = "messages"

const defaultHistoryLimit = 50

// MessageStore is the MongoDB-backed message store.
type MessageStore struct {
	DB *mongo.Database
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{DB: db}
}

// StoreMessage inserts a new message and returns the stored record.
func (s *MessageStore) StoreMessage(ctx context.Context, sender, receiver, text string, ts time.Time) (*domain.Message, error) {
	msg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: domain.ConversationID(sender, receiver),
		SenderID:       sender,
		ReceiverID:     receiver,
		Text:           text,
		Timestamp:      ts,
	}
	if _, err := s.DB.Collection(messageCollection).InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

// ConversationMessages returns messages between two users in chronological
// order, newest page first when offset skips backwards from the most recent.
// Fetching a conversation marks the messages addressed to userA as read.
func (s *MessageStore) ConversationMessages(ctx context.Context, userA, userB string, limit, offset int64) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	conversationID := domain.ConversationID(userA, userB)
	collection := s.DB.Collection(messageCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	cursor, err := collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*domain.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	// Newest-first from the query; flip to chronological for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	_, err = collection.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "receiver_id": userA, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	return messages, nil
}

// UserConversations aggregates one summary per conversation the user takes
// part in, most recently active first.
func (s *MessageStore) UserConversations(ctx context.Context, user string) ([]*domain.ConversationSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"sender_id": user},
			bson.M{"receiver_id": user},
		}}}},
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$conversation_id",
			"last_message": bson.M{"$first": "$$ROOT"},
			"unread_count": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$receiver_id", user}},
					bson.M{"$eq": bson.A{"$read", false}},
				}},
				1,
				0,
			}}},
			"last_activity": bson.M{"$first": "$timestamp"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last_activity", Value: -1}}}},
	}

	cursor, err := s.DB.Collection(messageCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		LastMessage  domain.Message `bson:"last_message"`
		UnreadCount  int64          `bson:"unread_count"`
		LastActivity time.Time      `bson:"last_activity"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}

	summaries := make([]*domain.ConversationSummary, 0, len(rows))
	for i := range rows {
		last := rows[i].LastMessage
		peer := last.SenderID
		if peer == user {
			peer = last.ReceiverID
		}
		summaries = append(summaries, &domain.ConversationSummary{
			Peer:         peer,
			LastMessage:  &last,
			UnreadCount:  rows[i].UnreadCount,
			LastActivity: rows[i].LastActivity,
		})
	}
	return summaries, nil
}
