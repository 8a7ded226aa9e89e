package hub

import (
	"sync"

	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/pkg/logging"
	"go.uber.org/zap"
)

// LobbyRoom gates invite eligibility: only users with a connection in it
// can receive invites.
const LobbyRoom = "inviteRoom"

func UserRoom(userId string) string {
	return "user:" + userId
}

func MatchRoom(matchId string) string {
	return "match:" + matchId
}

// Hub routes messages to rooms of connected clients.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[*Client]struct{}
	clientRooms map[*Client]map[string]struct{}
}

func New() *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[string]struct{}),
	}
}

// Register tracks the client, starts its write pump and subscribes it to
// its private user room.
func (h *Hub) Register(c *Client) {
	c.hub = h
	c.startPump()
	h.Join(c, UserRoom(c.user.Id))
	logging.Info("client registered",
		zap.String("user_id", c.user.Id),
		zap.String("client_id", c.id),
	)
}

// Unregister drops every subscription of the client and closes it.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for room := range h.clientRooms[c] {
		h.removeLocked(c, room)
	}
	delete(h.clientRooms, c)
	h.mu.Unlock()
	c.Close()
	logging.Info("client unregistered",
		zap.String("user_id", c.user.Id),
		zap.String("client_id", c.id),
	)
}

// Join subscribes c to room and reports whether it was newly subscribed.
func (h *Hub) Join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	if _, joined := members[c]; joined {
		return false
	}
	members[c] = struct{}{}
	rooms, ok := h.clientRooms[c]
	if !ok {
		rooms = make(map[string]struct{})
		h.clientRooms[c] = rooms
	}
	rooms[room] = struct{}{}
	return true
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, room)
}

func (h *Hub) removeLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.clientRooms[c]; ok {
		delete(rooms, room)
	}
}

func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][c]
	return ok
}

// Members returns the user ids of every client subscribed to room. A user
// with several connections appears once per connection.
func (h *Hub) Members(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		ids = append(ids, c.user.Id)
	}
	return ids
}

func (h *Hub) IsOnline(userId string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[UserRoom(userId)]) > 0
}

// InLobby reports whether any connection of the user is in the lobby.
func (h *Hub) InLobby(userId string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[UserRoom(userId)] {
		if _, ok := h.clientRooms[c][LobbyRoom]; ok {
			return true
		}
	}
	return false
}

// Publish queues msg for every client in room without waiting on any
// connection. Clients that cannot keep up are closed and logged.
func (h *Hub) Publish(room string, msg dtos.Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(msg); err != nil {
			logging.Error("couldn't notify client",
				zap.String("room", room),
				zap.String("user_id", c.user.Id),
				zap.Error(err),
			)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clientRooms)
}
