package channel

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/yeremiapane/canteen-app/models"
	"github.com/yeremiapane/canteen-app/utils"
)

// Event types
const (
	EventNewOrder    = "new_order"
	EventOrderUpdate = "order_update"
)

// Join actions (client -> server)
const (
	ActionJoinRoom = "join_room"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// JoinRequest is the first (and only) message a client sends. Join is
// fire-and-forget; there is no acknowledgment.
type JoinRequest struct {
	Action    string `json:"action"`
	CanteenID string `json:"canteen_id"`
}

// Hub tracks channel members per canteen room. A connection is a member
// of at most one room at a time; joining a second room leaves the first.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]string // canteenID -> conn -> role
	room  map[*websocket.Conn]string            // conn -> current canteenID
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]string),
		room:  make(map[*websocket.Conn]string),
	}
}

// Join adds conn to the canteen's room, leaving any previous room first.
func (h *Hub) Join(conn *websocket.Conn, canteenID, role string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.room[conn]; ok && prev != canteenID {
		h.leaveLocked(conn, prev)
	}

	if h.rooms[canteenID] == nil {
		h.rooms[canteenID] = make(map[*websocket.Conn]string)
	}
	h.rooms[canteenID][conn] = role
	h.room[conn] = canteenID
}

// Leave removes conn from whatever room it is in and closes it.
func (h *Hub) Leave(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if canteenID, ok := h.room[conn]; ok {
		h.leaveLocked(conn, canteenID)
	}
	conn.Close()
}

func (h *Hub) leaveLocked(conn *websocket.Conn, canteenID string) {
	if members, ok := h.rooms[canteenID]; ok {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.rooms, canteenID)
		}
	}
	delete(h.room, conn)
}

// RoomSize returns the current member count of a canteen's room.
func (h *Hub) RoomSize(canteenID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[canteenID])
}

// BroadcastNewOrder pushes a freshly placed order to the order's canteen room.
func (h *Hub) BroadcastNewOrder(order models.Order) {
	h.broadcast(order.CanteenID, Message{
		Event: EventNewOrder,
		Data:  order,
	})
}

// BroadcastOrderUpdate pushes a status change to the order's canteen room.
func (h *Hub) BroadcastOrderUpdate(order models.Order) {
	h.broadcast(order.CanteenID, Message{
		Event: EventOrderUpdate,
		Data:  order,
	})
}

// broadcast delivers msg to every member of the canteen's room.
// Delivery is fire-and-forget; members that fail the write are dropped.
func (h *Hub) broadcast(canteenID string, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[canteenID]
	if !ok || len(members) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling channel message: %v", err)
		return
	}

	for conn, role := range members {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to %s member: %v", msg.Event, role, err)
			h.leaveLocked(conn, canteenID)
			conn.Close()
		}
	}
}
