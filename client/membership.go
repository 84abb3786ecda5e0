package client

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yeremiapane/canteen-app/channel"
	"github.com/yeremiapane/canteen-app/utils"
)

// EventHandler receives every event pushed to the joined room.
type EventHandler func(event string, data json.RawMessage)

// Membership is one session's subscription to a canteen's push channel.
// The channel does not remember membership across a transport-level
// reconnect, so every reconnect re-sends the join before resuming.
type Membership struct {
	mu          sync.Mutex
	url         string
	token       string
	conn        *websocket.Conn
	canteenID   string
	handler     EventHandler
	onReconnect func()
	closed      bool
}

func NewMembership(channelURL, token string) *Membership {
	return &Membership{
		url:   channelURL,
		token: token,
	}
}

// SetHandler installs the event handler. Must be called before Connect.
func (m *Membership) SetHandler(handler EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// SetOnReconnect installs a hook run after a reconnect has rejoined the
// room. The vendor console uses it for its catch-up refetch.
func (m *Membership) SetOnReconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = fn
}

// Connect dials the channel. Idempotent: a live connection handle makes
// this a no-op, so a half-finished previous dial is never reused.
func (m *Membership) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return nil
	}

	conn, err := m.dial()
	if err != nil {
		return err
	}
	m.conn = conn
	m.closed = false

	go m.readLoop(conn)
	return nil
}

// Join subscribes this session to the canteen's room. Fire-and-forget;
// the join is re-sent automatically after every reconnect.
func (m *Membership) Join(canteenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return ErrNotConnected
	}
	m.canteenID = canteenID
	return m.conn.WriteJSON(channel.JoinRequest{
		Action:    channel.ActionJoinRoom,
		CanteenID: canteenID,
	})
}

// Disconnect tears the subscription down for good; no reconnect follows.
func (m *Membership) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.canteenID = ""
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

// Connected reports whether a live connection handle exists.
func (m *Membership) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

func (m *Membership) dial() (*websocket.Conn, error) {
	url := m.url
	if m.token != "" {
		url += "?token=" + m.token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

type wireMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (m *Membership) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			m.handleDrop(conn)
			return
		}

		var msg wireMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		m.mu.Lock()
		handler := m.handler
		m.mu.Unlock()
		if handler != nil {
			handler(msg.Event, msg.Data)
		}
	}
}

// handleDrop redials after an unexpected transport loss. Reconnect means
// rejoin: room membership does not survive the old connection.
func (m *Membership) handleDrop(dropped *websocket.Conn) {
	m.mu.Lock()
	if m.closed || m.conn != dropped {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.mu.Unlock()

	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		conn, err := m.dial()
		if err != nil {
			m.mu.Unlock()
			time.Sleep(time.Second)
			continue
		}
		m.conn = conn
		canteenID := m.canteenID
		onReconnect := m.onReconnect
		m.mu.Unlock()

		if canteenID != "" {
			if err := m.Join(canteenID); err != nil {
				utils.ErrorLogger.Printf("Error rejoining room %s: %v", canteenID, err)
			}
		}
		go m.readLoop(conn)
		if onReconnect != nil {
			onReconnect()
		}
		return
	}
}
