package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sabscarpenter/skytravel/internal/logger"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSeatsHeld     MessageType = "seats_held"
	MessageTypeSeatsTicketed MessageType = "seats_ticketed"
	MessageTypeSeatsReleased MessageType = "seats_released"
)

// SeatUpdate represents a seat status change
type SeatUpdate struct {
	SeatCode string `json:"seat"`
	Status   string `json:"status"` // held, ticketed, available
	Mine     bool   `json:"mine,omitempty"`
}

// Message represents a WebSocket message
type Message struct {
	Type         MessageType  `json:"type"`
	FlightNumber string       `json:"flight"`
	Seats        []SeatUpdate `json:"seats"`
	Timestamp    int64        `json:"timestamp"`

	// owner is the traveler whose seats these are. Only that traveler's
	// clients see Mine set; the id itself never leaves the hub.
	owner string
}

// Hub fans seat updates out to the clients watching each flight
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	logger     logger.Logger
}

// NewHub creates a new Hub
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run starts the hub's main loop and returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.flightNumber] == nil {
				h.clients[client.flightNumber] = make(map[*Client]bool)
			}
			h.clients[client.flightNumber][client] = true
			h.logger.Debug("WebSocket client registered", "flight", client.flightNumber, "total", len(h.clients[client.flightNumber]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, mine, err := encode(message)
			if err != nil {
				h.logger.Error("Failed to marshal websocket message", "error", err)
				continue
			}

			h.mu.Lock()
			for client := range h.clients[message.FlightNumber] {
				payload := data
				if message.owner != "" && client.travelerID == message.owner {
					payload = mine
				}
				select {
				case client.send <- payload:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// encode renders the message as everyone sees it and, when it has an owner,
// as the owner sees it.
func encode(msg *Message) (data, mine []byte, err error) {
	data, err = json.Marshal(msg)
	if err != nil || msg.owner == "" {
		return data, nil, err
	}

	owned := *msg
	owned.Seats = make([]SeatUpdate, len(msg.Seats))
	for i, s := range msg.Seats {
		s.Mine = true
		owned.Seats[i] = s
	}
	mine, err = json.Marshal(&owned)
	return data, mine, err
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.flightNumber]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	h.logger.Debug("WebSocket client unregistered", "flight", client.flightNumber, "remaining", len(clients))
	if len(clients) == 0 {
		delete(h.clients, client.flightNumber)
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.remove(client)
		}
	}
}

func (h *Hub) publish(msgType MessageType, flightNumber, status, owner string, seatCodes []string) {
	seats := make([]SeatUpdate, len(seatCodes))
	for i, code := range seatCodes {
		seats[i] = SeatUpdate{SeatCode: code, Status: status}
	}

	msg := &Message{
		Type:         msgType,
		FlightNumber: flightNumber,
		Seats:        seats,
		Timestamp:    time.Now().UnixMilli(),
		owner:        owner,
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Dropping websocket broadcast, hub is backlogged", "flight", flightNumber)
	}
}

// SeatsHeld broadcasts that a traveler now holds seats
func (h *Hub) SeatsHeld(flightNumber, travelerID string, seats []string) {
	h.publish(MessageTypeSeatsHeld, flightNumber, "held", travelerID, seats)
}

// SeatsTicketed broadcasts that seats were sold
func (h *Hub) SeatsTicketed(flightNumber string, seats []string) {
	h.publish(MessageTypeSeatsTicketed, flightNumber, "ticketed", "", seats)
}

// SeatsReleased broadcasts that expired holds freed seats
func (h *Hub) SeatsReleased(flightNumber string, seats []string) {
	h.publish(MessageTypeSeatsReleased, flightNumber, "available", "", seats)
}

// GetClientCount returns the number of clients watching a flight
func (h *Hub) GetClientCount(flightNumber string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[flightNumber])
}
