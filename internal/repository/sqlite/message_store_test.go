package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MessageStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreMessageAssignsIdentifierAndConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)

	msg, err := store.StoreMessage(ctx, "a@x.com", "b@x.com", "hi", ts)
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "a@x.com_b@x.com", msg.ConversationID)
	assert.Equal(t, "a@x.com", msg.SenderID)
	assert.Equal(t, "b@x.com", msg.ReceiverID)
	assert.Equal(t, "hi", msg.Text)
	assert.True(t, msg.Timestamp.Equal(ts))
}

func TestConversationMessagesOrderAndPaging(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	texts := []string{"one", "two", "three", "four"}
	for i, text := range texts {
		_, err := store.StoreMessage(ctx, "a@x.com", "b@x.com", text, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	// Chronological order regardless of which participant asks.
	messages, err := store.ConversationMessages(ctx, "b@x.com", "a@x.com", 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	for i, text := range texts {
		assert.Equal(t, text, messages[i].Text)
	}

	// Limit keeps the most recent messages; offset pages further back.
	messages, err = store.ConversationMessages(ctx, "a@x.com", "b@x.com", 2, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "three", messages[0].Text)
	assert.Equal(t, "four", messages[1].Text)

	messages, err = store.ConversationMessages(ctx, "a@x.com", "b@x.com", 2, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Text)
	assert.Equal(t, "two", messages[1].Text)
}

func TestConversationMessagesIsolatesConversations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.StoreMessage(ctx, "a@x.com", "b@x.com", "for b", now)
	require.NoError(t, err)
	_, err = store.StoreMessage(ctx, "a@x.com", "c@x.com", "for c", now)
	require.NoError(t, err)

	messages, err := store.ConversationMessages(ctx, "a@x.com", "b@x.com", 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "for b", messages[0].Text)
}

func TestUserConversationsSummariesAndUnread(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.StoreMessage(ctx, "a@x.com", "b@x.com", "hello b", base)
	require.NoError(t, err)
	_, err = store.StoreMessage(ctx, "a@x.com", "b@x.com", "still there?", base.Add(time.Minute))
	require.NoError(t, err)
	_, err = store.StoreMessage(ctx, "c@x.com", "b@x.com", "hey", base.Add(2*time.Minute))
	require.NoError(t, err)

	summaries, err := store.UserConversations(ctx, "b@x.com")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Most recently active first.
	assert.Equal(t, "c@x.com", summaries[0].Peer)
	assert.EqualValues(t, 1, summaries[0].UnreadCount)
	assert.Equal(t, "hey", summaries[0].LastMessage.Text)

	assert.Equal(t, "a@x.com", summaries[1].Peer)
	assert.EqualValues(t, 2, summaries[1].UnreadCount)
	assert.Equal(t, "still there?", summaries[1].LastMessage.Text)
	assert.True(t, summaries[1].LastActivity.Equal(base.Add(time.Minute)))

	// Fetching the history marks the reader's messages as read.
	_, err = store.ConversationMessages(ctx, "b@x.com", "a@x.com", 0, 0)
	require.NoError(t, err)

	summaries, err = store.UserConversations(ctx, "b@x.com")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.EqualValues(t, 1, summaries[0].UnreadCount)
	assert.EqualValues(t, 0, summaries[1].UnreadCount)

	// The sender's own messages are never counted as unread for them.
	summaries, err = store.UserConversations(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "b@x.com", summaries[0].Peer)
	assert.EqualValues(t, 0, summaries[0].UnreadCount)
}

func TestUserConversationsEmpty(t *testing.T) {
	store := newTestStore(t)

	summaries, err := store.UserConversations(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
