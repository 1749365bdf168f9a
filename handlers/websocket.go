package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dareyes-87/Votacion-UMG/model"
	"github.com/dareyes-87/Votacion-UMG/service"
	"github.com/dareyes-87/Votacion-UMG/tally"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The voting pages are served from a separate origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub groups WebSocket clients by election and feeds each group from a
// single tally subscription. The subscription is acquired when the first
// observer of an election connects and released when the last one leaves.
type Hub struct {
	streamer *tally.Streamer

	register   chan *Client
	unregister chan *Client
	broadcast  chan *model.WebSocketMessage

	// Owned by the run loop; no lock needed.
	clients map[uint]map[*Client]bool
	feeds   map[uint]func()
}

// Client is one WebSocket observer.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	electionID uint
}

// NewHub creates the hub; call Run in its own goroutine.
func NewHub(streamer *tally.Streamer) *Hub {
	return &Hub{
		streamer:   streamer,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *model.WebSocketMessage, 16),
		clients:    make(map[uint]map[*Client]bool),
		feeds:      make(map[uint]func()),
	}
}

// Run is the hub event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.electionID] == nil {
				h.clients[client.electionID] = make(map[*Client]bool)
				h.startFeed(client.electionID)
			}
			h.clients[client.electionID][client] = true
			log.Printf("ws client connected [election %d, clients %d]",
				client.electionID, len(h.clients[client.electionID]))

		case client := <-h.unregister:
			if group, ok := h.clients[client.electionID]; ok {
				if _, ok := group[client]; ok {
					delete(group, client)
					close(client.send)
				}
				if len(group) == 0 {
					delete(h.clients, client.electionID)
					h.stopFeed(client.electionID)
				}
			}

		case message := <-h.broadcast:
			data, err := message.ToJSON()
			if err != nil {
				log.Printf("failed to marshal ws message: %v", err)
				continue
			}
			for client := range h.clients[message.ElectionID] {
				select {
				case client.send <- data:
				default:
					// Slow consumer; drop it rather than block the hub.
					close(client.send)
					delete(h.clients[message.ElectionID], client)
				}
			}
		}
	}
}

// startFeed opens the per-election tally subscription and pumps snapshots
// into the broadcast channel.
func (h *Hub) startFeed(electionID uint) {
	snapshots, cancel, err := h.streamer.Subscribe(context.Background(), electionID)
	if err != nil {
		log.Printf("ws feed subscribe failed for election %d: %v", electionID, err)
		return
	}
	h.feeds[electionID] = cancel

	go func() {
		for snapshot := range snapshots {
			h.broadcast <- &model.WebSocketMessage{
				Type:       "TALLY_UPDATE",
				ElectionID: electionID,
				Payload:    snapshot,
			}
		}
	}()
}

// stopFeed releases the per-election subscription.
func (h *Hub) stopFeed(electionID uint) {
	if cancel, ok := h.feeds[electionID]; ok {
		cancel()
		delete(h.feeds, electionID)
	}
}

// WSHandler upgrades observers onto the hub.
type WSHandler struct {
	svc service.VoteService
	hub *Hub
}

// NewWSHandler creates the handler.
func NewWSHandler(svc service.VoteService, hub *Hub) *WSHandler {
	return &WSHandler{svc: svc, hub: hub}
}

// HandleWebSocket handles GET /api/elections/:id/ws.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	electionID, ok := electionIDParam(c)
	if !ok {
		return
	}

	if _, err := h.svc.GetElection(c.Request.Context(), electionID); err != nil {
		if errors.Is(err, service.ErrElectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "election not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ReasonStorageError})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:        h.hub,
		conn:       conn,
		send:       make(chan []byte, 8),
		electionID: electionID,
	}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames; observers only listen. It exists to
// process control messages and to detect the disconnect.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pushes snapshots and pings to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
