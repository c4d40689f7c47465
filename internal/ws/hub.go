package ws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nasulife/nasutomo/internal/cache"
)

// Hub maintains the set of live chat subscriptions, grouped by room.
//
// Delivery path: a send is stored first, then published on the room's
// Redis channel; the hub relays channel traffic to every local
// WebSocket client subscribed to that room. Because fan-out rides on
// Redis, subscribers connected to different server instances still see
// each other's messages.
type Hub struct {
	cache  *cache.RedisCache
	logger *slog.Logger

	mu    sync.Mutex
	rooms map[string]*roomSub
}

// roomSub tracks one room's local clients plus the Redis subscription
// feeding them. The subscription lives exactly as long as the room has
// at least one local client.
type roomSub struct {
	clients map[*Client]bool
	cancel  context.CancelFunc
}

func NewHub(c *cache.RedisCache, logger *slog.Logger) *Hub {
	return &Hub{
		cache:  c,
		logger: logger,
		rooms:  make(map[string]*roomSub),
	}
}

// Join registers a client for a room's realtime feed, opening the
// room's Redis subscription if this is the first local subscriber.
func (h *Hub) Join(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.rooms[roomID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		sub = &roomSub{
			clients: make(map[*Client]bool),
			cancel:  cancel,
		}
		h.rooms[roomID] = sub
		go h.relay(ctx, roomID)
	}
	sub.clients[client] = true

	h.logger.Debug("ws client joined", "room", roomID, "user", client.UserID, "clients", len(sub.clients))
}

// Leave removes a client from a room. The room's Redis subscription is
// torn down once the last local client is gone, so an idle room costs
// nothing.
func (h *Hub) Leave(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := sub.clients[client]; !ok {
		return
	}

	delete(sub.clients, client)
	close(client.send)

	if len(sub.clients) == 0 {
		sub.cancel()
		delete(h.rooms, roomID)
	}

	h.logger.Debug("ws client left", "room", roomID, "user", client.UserID)
}

// relay pumps the room's Redis channel into every local client until
// the room empties and ctx is canceled.
func (h *Hub) relay(ctx context.Context, roomID string) {
	pubsub := h.cache.SubscribeRoom(ctx, roomID)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(roomID, []byte(msg.Payload))
		}
	}
}

// broadcast hands a payload to every local client of a room. A client
// whose send buffer is full is dropped rather than allowed to stall
// the room.
func (h *Hub) broadcast(roomID string, payload []byte) {
	h.mu.Lock()
	sub, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return
	}

	var stalled []*Client
	for client := range sub.clients {
		select {
		case client.send <- payload:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.Unlock()

	for _, client := range stalled {
		h.logger.Warn("dropping stalled ws client", "room", roomID, "user", client.UserID)
		h.Leave(roomID, client)
	}
}
