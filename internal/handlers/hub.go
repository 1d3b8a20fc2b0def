// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/jason-s-yu/impostor/internal/protocol"
	"github.com/sirupsen/logrus"
)

// sendBuffer is the number of encoded frames a client may have queued before new ones are dropped.
const sendBuffer = 32

// Client is a single websocket connection as seen by the hub.
type Client struct {
	ID   string
	Send chan []byte
}

// write queues a frame without blocking. Returns false if the frame was dropped.
func (c *Client) write(frame []byte) bool {
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

// Hub tracks connections and the room each one listens to. It implements room.Broadcaster and
// never blocks: slow clients lose frames instead of stalling the caller.
type Hub struct {
	log logrus.FieldLogger

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{}
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// Register adds a connection and returns its client.
func (h *Hub) Register(connID string) *Client {
	c := &Client{ID: connID, Send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()
	return c
}

// Unregister forgets a connection and drops it from every room.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connID)
	for code, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

func (h *Hub) Join(connID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[code] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) Leave(connID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

// ToRoom encodes ev once and queues it for every member of the room.
func (h *Hub) ToRoom(code string, ev protocol.Event) {
	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		h.log.Errorf("encode %s: %v", ev.EventType(), err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[code] {
		c, ok := h.clients[connID]
		if !ok {
			continue
		}
		if !c.write(frame) {
			h.log.WithFields(logrus.Fields{"conn": connID, "room": code}).Warnf("send buffer full, dropped %s", ev.EventType())
		}
	}
}

func (h *Hub) ToConn(connID string, ev protocol.Event) {
	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		h.log.Errorf("encode %s: %v", ev.EventType(), err)
		return
	}
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if !c.write(frame) {
		h.log.WithField("conn", connID).Warnf("send buffer full, dropped %s", ev.EventType())
	}
}

// Members returns how many connections listen to a room.
func (h *Hub) Members(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// Connections returns the number of registered connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
