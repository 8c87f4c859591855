package domain

// Event types exchanged over the websocket. Client-to-server requests are
// answered with a typed event on the same connection; pushes use the same
// envelope.
const (
	EventAuthenticated   = "authenticated"
	EventUsersList       = "usersList"
	EventPrivateMessage  = "privateMessage"
	EventMessageAck      = "privateMessageAck"
	EventGetUsers        = "getUsers"
	EventGetHistory      = "getMessageHistory"
	EventMessageHistory  = "messageHistory"
	EventGetConversation = "getConversations"
	EventConversations   = "conversations"
	EventError           = "error"
)

// WebSocketMessage is the standard envelope for all client/server traffic.
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// AuthenticatedPayload confirms admission, echoing the normalized identity.
type AuthenticatedPayload struct {
	Identity string `json:"identity"`
}

// UsersListPayload is the full presence snapshot.
type UsersListPayload struct {
	Users []string `json:"users"`
}

// SendMessagePayload is the 'privateMessage' request payload. Timestamp is
// optional; when absent or unparseable the server assigns its own.
type SendMessagePayload struct {
	To        string `json:"to"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

// MessageAckPayload acknowledges a send: either success with the stored
// timestamp, or an error string.
type MessageAckPayload struct {
	Success   bool   `json:"success,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HistoryRequestPayload is the 'getMessageHistory' request payload.
type HistoryRequestPayload struct {
	OtherUser string `json:"otherUser"`
	Limit     int64  `json:"limit,omitempty"`
	Offset    int64  `json:"offset,omitempty"`
}

// HistoryPayload answers a history request.
type HistoryPayload struct {
	Messages []*Message `json:"messages,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// ConversationsPayload answers a conversations request.
type ConversationsPayload struct {
	Conversations []*ConversationSummary `json:"conversations,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// ErrorPayload reports a request-level failure that has no dedicated ack.
type ErrorPayload struct {
	Error string `json:"error"`
}
