// Package ws is the gorilla/websocket transport adapter: it satisfies
// internal/room.Transport and translates the wire protocol in
// internal/protocol to and from JSON frames.
//
// Grounded directly on the teacher's server/net_ws.go: the same
// ClientConn-with-buffered-send-channel shape, the same writePump/
// readPump goroutine split, the same non-blocking-enqueue-drops-on-full
// policy. Generalized from the teacher's single "move" command to the
// full join-room/input/ping message set spec.md §6 defines, and from a
// bare query-string handshake to a join-room envelope carrying the
// player's name and skin.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wormarena/internal/config"
	"wormarena/internal/ids"
	"wormarena/internal/input"
	"wormarena/internal/log"
	"wormarena/internal/protocol"
	"wormarena/internal/room"
	"wormarena/internal/roommanager"
)

var logger = log.Named("transport.ws")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Arena clients are served cross-origin from a static CDN;
		// room membership is the real access control, not Origin.
		return true
	},
}

// ClientConn wraps one player's websocket connection: a buffered
// outbound queue drained by writePump, written to by Room's broadcast
// loop through Send.
type ClientConn struct {
	ws        *websocket.Conn
	send      chan []byte
	closeOnce chan struct{}
}

func newClientConn(wsConn *websocket.Conn) *ClientConn {
	return &ClientConn{ws: wsConn, send: make(chan []byte, 64), closeOnce: make(chan struct{})}
}

func (c *ClientConn) enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// Dropped to protect real-time delivery; the next broadcast or
		// resync supersedes it.
	}
}

func (c *ClientConn) closeConn() {
	select {
	case <-c.closeOnce:
		return
	default:
		close(c.closeOnce)
	}
	_ = c.ws.Close()
}

func (c *ClientConn) writePump() {
	defer c.closeConn()
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// envelope is the wire shape every message, in either direction, is
// framed in: a stable event-name tag plus the typed payload.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Adapter implements internal/room.Transport over a set of live
// websocket connections, one per player, keyed by PlayerID.
type Adapter struct {
	mu    sync.RWMutex
	conns map[ids.PlayerID]*ClientConn
}

// NewAdapter creates an empty transport adapter. One Adapter is shared
// by every room's Transport usage in this process: each room's worker
// goroutine calls Send/Close concurrently with the per-connection
// handshake/readPump goroutines registering and unregistering players,
// so conns is guarded by mu.
func NewAdapter() *Adapter {
	return &Adapter{conns: make(map[ids.PlayerID]*ClientConn)}
}

func (a *Adapter) register(id ids.PlayerID, c *ClientConn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conns[id] = c
}

func (a *Adapter) unregister(id ids.PlayerID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conns, id)
}

// Send marshals msg into the envelope shape and enqueues it for the
// given player's writePump. Matches internal/room.Transport.
func (a *Adapter) Send(playerID ids.PlayerID, msg protocol.Message) error {
	a.mu.RLock()
	c, ok := a.conns[playerID]
	a.mu.RUnlock()
	if !ok {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(envelope{Event: msg.EventName(), Payload: body})
	if err != nil {
		return err
	}
	c.enqueue(frame)
	return nil
}

// Close matches internal/room.Transport: it closes and forgets the
// player's connection. Safe to call more than once.
func (a *Adapter) Close(playerID ids.PlayerID) {
	a.mu.RLock()
	c, ok := a.conns[playerID]
	a.mu.RUnlock()
	if ok {
		c.closeConn()
	}
	a.unregister(playerID)
}

// Handler returns the http.HandlerFunc that upgrades a request to a
// websocket and runs the join handshake against the given room
// manager, mirroring the teacher's HandleWS.
func (a *Adapter) Handler(mgr *roommanager.Manager, cfg config.Tunables) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnf("upgrade error: %v", err)
			return
		}

		conn := newClientConn(wsConn)
		go conn.writePump()

		playerID, rm, err := a.handshake(conn, mgr)
		if err != nil {
			logger.Debugf("handshake failed: %v", err)
			// Closing the queue lets writePump flush any queued error
			// frame before it closes the socket.
			close(conn.send)
			return
		}

		go a.readPump(conn, rm, playerID, cfg)
	}
}

// handshake blocks on the first inbound frame, expecting a join-room
// event, and completes the Room.Join flow before returning.
func (a *Adapter) handshake(conn *ClientConn, mgr *roommanager.Manager) (ids.PlayerID, *room.Room, error) {
	_, payload, err := conn.ws.ReadMessage()
	if err != nil {
		return 0, nil, err
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return 0, nil, err
	}
	if env.Event != protocol.EvJoinRoom {
		return 0, nil, errUnexpectedFirstFrame
	}
	var joinMsg protocol.JoinRoomMsg
	if err := json.Unmarshal(env.Payload, &joinMsg); err != nil {
		return 0, nil, err
	}

	rm := mgr.AssignPlayer(joinMsg.RoomID)

	socketID := conn.ws.RemoteAddr().String()
	playerID, wormID, joinErr := rm.Join(socketID, joinMsg.PlayerName, joinMsg.SkinID, a)
	if joinErr != nil {
		code := protocol.ErrJoinFailed
		if coder, ok := joinErr.(interface{ Code() string }); ok {
			code = coder.Code()
		}
		errBody, _ := json.Marshal(protocol.ErrorMsg{Code: code, Message: joinErr.Error()})
		frame, _ := json.Marshal(envelope{Event: protocol.EvError, Payload: errBody})
		conn.enqueue(frame)
		return 0, nil, joinErr
	}

	a.register(playerID, conn)
	_ = a.Send(playerID, protocol.PlayerSpawnedMsg{PlayerID: uint64(playerID), SnakeID: uint64(wormID)})
	return playerID, rm, nil
}

var errUnexpectedFirstFrame = jsonErr("expected join-room as first frame")

type jsonErr string

func (e jsonErr) Error() string { return string(e) }

// readPump decodes every subsequent inbound frame into a room input
// command, or a pong reply to a ping, until the connection drops.
func (a *Adapter) readPump(conn *ClientConn, rm *room.Room, playerID ids.PlayerID, cfg config.Tunables) {
	defer conn.closeConn()
	defer rm.RequestLeave(playerID)
	defer a.unregister(playerID)

	conn.ws.SetReadLimit(1 << 16)
	_ = conn.ws.SetReadDeadline(time.Now().Add(cfg.PingTimeout))
	conn.ws.SetPongHandler(func(string) error {
		_ = conn.ws.SetReadDeadline(time.Now().Add(cfg.PingTimeout))
		return nil
	})

	for {
		_, payload, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			continue
		}

		switch env.Event {
		case protocol.EvInput:
			var im protocol.InputMsg
			if err := json.Unmarshal(env.Payload, &im); err != nil {
				continue
			}
			rm.OnInput(playerID, toRawCommand(im))
		case protocol.EvPing:
			var ping protocol.PongMsg
			_ = json.Unmarshal(env.Payload, &ping)
			_ = a.Send(playerID, protocol.PongMsg{TimestampMs: ping.TimestampMs})
		}
	}
}

func toRawCommand(im protocol.InputMsg) input.RawCommand {
	raw := input.RawCommand{
		Type:        strings.ToLower(im.Type),
		TimestampMs: im.TimestampMs,
		PlayerName:  im.PlayerName,
		SkinID:      im.SkinID,
	}
	if raw.Type == "direction-change" {
		raw.Direction = im.Direction
		raw.HasDir = true
	}
	if raw.Type == "boost" {
		raw.IsBoosting = im.IsBoosting
		raw.HasBoost = true
	}
	return raw
}
