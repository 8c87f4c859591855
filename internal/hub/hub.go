package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/domain"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/service"
)

// ClientRequest bundles a client with their incoming envelope.
type ClientRequest struct {
	Client  *Client
	Message domain.WebSocketMessage
}

// eviction is a scheduled registry removal. It carries the connection it was
// scheduled for so a reconnect in the meantime turns it into a no-op.
type eviction struct {
	identity string
	client   *Client
}

// Options tunes the hub's liveness machinery.
type Options struct {
	// GracePeriod is how long a disconnected identity stays registered,
	// tolerating network blips and page refreshes.
	GracePeriod time.Duration
	// SweepInterval is how often the registry is scanned for stale entries.
	SweepInterval time.Duration
	// LivenessTimeout is how stale an entry may get before the sweep
	// evicts it, covering silently-dead transports.
	LivenessTimeout time.Duration
	// StoreTimeout bounds each call into the message store.
	StoreTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.GracePeriod <= 0 {
		o.GracePeriod = 5 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 30 * time.Second
	}
	if o.LivenessTimeout <= 0 {
		o.LivenessTimeout = 75 * time.Second
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 10 * time.Second
	}
	return o
}

// Hub routes private messages between live connections and maintains
// presence. All registry mutations happen on the Run loop, one event at a
// time, so connect/disconnect/heartbeat races resolve deterministically
// through the registry's guarded operations.
type Hub struct {
	registry *Registry
	store    service.IMessageStore
	clock    clock.Clock
	log      *slog.Logger
	opts     Options

	register   chan *Client
	unregister chan *Client
	requests   chan *ClientRequest
	evictions  chan *eviction
	touches    chan *Client

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a Hub. The clock is injected so tests can drive timers.
func NewHub(store service.IMessageStore, clk clock.Clock, opts Options, log *slog.Logger) *Hub {
	return &Hub{
		registry:   NewRegistry(),
		store:      store,
		clock:      clk,
		log:        log,
		opts:       opts.withDefaults(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		requests:   make(chan *ClientRequest),
		evictions:  make(chan *eviction),
		touches:    make(chan *Client, 64),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until Stop is called. It must run in exactly one
// goroutine.
func (h *Hub) Run() {
	ticker := h.clock.Ticker(h.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.admit(client)
		case client := <-h.unregister:
			h.scheduleEviction(client)
		case ev := <-h.evictions:
			h.evict(ev)
		case client := <-h.touches:
			h.registry.Touch(client.Identity, client, h.clock.Now())
		case req := <-h.requests:
			h.handleRequest(req)
		case <-ticker.C:
			h.sweep()
		case <-h.done:
			return
		}
	}
}

// Stop terminates the Run loop. Pending grace timers become no-ops.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// HandleNewClient admits a validated connection and starts its pumps. The
// identity must already have passed the handshake gate.
func (h *Hub) HandleNewClient(conn *websocket.Conn, identity string) {
	client := &Client{Identity: identity, Hub: h, Conn: conn, Send: make(chan []byte, 256)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// ConnectionCount reports the number of registered connections.
func (h *Hub) ConnectionCount() int {
	return h.registry.Len()
}

// OnlineIdentities reports the current presence snapshot.
func (h *Hub) OnlineIdentities() []string {
	return h.registry.Identities()
}

// --- Lifecycle Handlers ---

func (h *Hub) admit(client *Client) {
	if prev := h.registry.Admit(client.Identity, client, h.clock.Now()); prev != nil {
		// Reconnect supersession: the old transport is force-closed and
		// its pending grace eviction will no longer match.
		h.log.Info("connection superseded", "identity", client.Identity)
		prev.Conn.Close()
	}
	h.log.Info("client connected", "identity", client.Identity)
	client.send(domain.WebSocketMessage{
		Type:    domain.EventAuthenticated,
		Payload: domain.AuthenticatedPayload{Identity: client.Identity},
	})
	h.broadcastPresence()
}

func (h *Hub) scheduleEviction(client *Client) {
	ev := &eviction{identity: client.Identity, client: client}
	h.clock.AfterFunc(h.opts.GracePeriod, func() {
		select {
		case h.evictions <- ev:
		case <-h.done:
		}
	})
}

func (h *Hub) evict(ev *eviction) {
	if !h.registry.Evict(ev.identity, ev.client) {
		return
	}
	ev.client.Conn.Close()
	h.log.Info("client disconnected", "identity", ev.identity)
	h.broadcastPresence()
}

func (h *Hub) sweep() {
	cutoff := h.clock.Now().Add(-h.opts.LivenessTimeout)
	evicted := false
	for _, client := range h.registry.Stale(cutoff) {
		if h.registry.Evict(client.Identity, client) {
			client.Conn.Close()
			h.log.Info("stale connection evicted", "identity", client.Identity)
			evicted = true
		}
	}
	if evicted {
		h.broadcastPresence()
	}
}

// --- Request Handlers ---

func (h *Hub) handleRequest(req *ClientRequest) {
	switch req.Message.Type {
	case domain.EventPrivateMessage:
		h.handleSendMessage(req)
	case domain.EventGetUsers:
		h.handleGetUsers(req)
	case domain.EventGetHistory:
		h.handleGetHistory(req)
	case domain.EventGetConversation:
		h.handleGetConversations(req)
	default:
		req.Client.sendError(fmt.Sprintf("Unknown message type: %s", req.Message.Type))
	}
}

func (h *Hub) handleSendMessage(req *ClientRequest) {
	ackError := func(err error) {
		req.Client.send(domain.WebSocketMessage{
			Type:    domain.EventMessageAck,
			Payload: domain.MessageAckPayload{Error: err.Error()},
		})
	}

	var payload domain.SendMessagePayload
	if err := parsePayload(req.Message.Payload, &payload); err != nil {
		ackError(ErrInvalidMessageFormat)
		return
	}
	to := strings.TrimSpace(payload.To)
	text := strings.TrimSpace(payload.Text)
	if to == "" || text == "" {
		ackError(ErrInvalidMessageFormat)
		return
	}
	recipient, online := h.registry.Lookup(to)
	if !online {
		ackError(ErrRecipientOffline)
		return
	}

	ts := h.clock.Now()
	if payload.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err == nil {
			ts = parsed
		}
	}

	// The sender identity comes from the authenticated connection, never
	// from the payload. Persistence must succeed before any relay.
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.StoreTimeout)
	defer cancel()
	msg, err := h.store.StoreMessage(ctx, req.Client.Identity, to, text, ts)
	if err != nil {
		h.log.Error("failed to store message", "sender", req.Client.Identity, "receiver", to, "error", err)
		ackError(ErrStore)
		return
	}

	// Best-effort relay: the recipient may be gone by now, but the message
	// is durable either way.
	recipient.send(domain.WebSocketMessage{Type: domain.EventPrivateMessage, Payload: msg})
	req.Client.send(domain.WebSocketMessage{
		Type:    domain.EventMessageAck,
		Payload: domain.MessageAckPayload{Success: true, Timestamp: msg.Timestamp.Format(time.RFC3339Nano)},
	})
}

func (h *Hub) handleGetUsers(req *ClientRequest) {
	req.Client.send(domain.WebSocketMessage{
		Type:    domain.EventUsersList,
		Payload: domain.UsersListPayload{Users: h.registry.Identities()},
	})
}

func (h *Hub) handleGetHistory(req *ClientRequest) {
	reply := func(payload domain.HistoryPayload) {
		req.Client.send(domain.WebSocketMessage{Type: domain.EventMessageHistory, Payload: payload})
	}

	var payload domain.HistoryRequestPayload
	if err := parsePayload(req.Message.Payload, &payload); err != nil {
		reply(domain.HistoryPayload{Error: ErrInvalidMessageFormat.Error()})
		return
	}
	otherUser := strings.TrimSpace(payload.OtherUser)
	if otherUser == "" {
		reply(domain.HistoryPayload{Error: ErrInvalidMessageFormat.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.StoreTimeout)
	defer cancel()
	messages, err := h.store.ConversationMessages(ctx, req.Client.Identity, otherUser, payload.Limit, payload.Offset)
	if err != nil {
		h.log.Error("failed to load history", "user", req.Client.Identity, "other", otherUser, "error", err)
		reply(domain.HistoryPayload{Error: ErrHistoryUnavailable.Error()})
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	reply(domain.HistoryPayload{Messages: messages})
}

func (h *Hub) handleGetConversations(req *ClientRequest) {
	reply := func(payload domain.ConversationsPayload) {
		req.Client.send(domain.WebSocketMessage{Type: domain.EventConversations, Payload: payload})
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.StoreTimeout)
	defer cancel()
	conversations, err := h.store.UserConversations(ctx, req.Client.Identity)
	if err != nil {
		h.log.Error("failed to load conversations", "user", req.Client.Identity, "error", err)
		reply(domain.ConversationsPayload{Error: ErrConversationsUnavailable.Error()})
		return
	}
	if conversations == nil {
		conversations = []*domain.ConversationSummary{}
	}
	reply(domain.ConversationsPayload{Conversations: conversations})
}

// broadcastPresence pushes the full presence snapshot to every registered
// connection. Always the complete list, never a diff.
func (h *Hub) broadcastPresence() {
	users := h.registry.Identities()
	data, err := json.Marshal(domain.WebSocketMessage{
		Type:    domain.EventUsersList,
		Payload: domain.UsersListPayload{Users: users},
	})
	if err != nil {
		h.log.Error("failed to marshal presence snapshot", "error", err)
		return
	}
	for _, identity := range users {
		if client, ok := h.registry.Lookup(identity); ok {
			client.enqueue(data)
		}
	}
}

// --- Helper Functions ---

func parsePayload(payload interface{}, result interface{}) error {
	if payload == nil {
		return errors.New("missing payload")
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return json.Unmarshal(payloadBytes, result)
}
