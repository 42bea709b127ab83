package websocket

import "github.com/rs/zerolog/log"

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages from the clients for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of list IDs to a set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool

	// Subscription changes requested after registration.
	subscribe chan subscription

	// Messages targeted at a single list's subscribers.
	directed chan directedMessage
}

type subscription struct {
	client *Client
	listID string
}

type directedMessage struct {
	listID  string
	message []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte, 64),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		subscribe:     make(chan subscription),
		directed:      make(chan directedMessage, 64),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			// If client has a list ID on registration, subscribe them.
			if client.ListID != "" {
				h.addSubscription(client, client.ListID)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				// Remove from global clients and any subscriptions
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; ok {
				h.addSubscription(sub.client, sub.listID)
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.removeSubscription(client)
				}
			}
		case dm := <-h.directed:
			for client := range h.subscriptions[dm.listID] {
				select {
				case client.Send <- dm.message:
				default:
					close(client.Send)
					delete(h.clients, client)
					delete(h.subscriptions[dm.listID], client)
				}
			}
		}
	}
}

// Subscribe adds a running client to a list's subscriber set.
func (h *Hub) Subscribe(client *Client, listID string) {
	h.subscribe <- subscription{client: client, listID: listID}
}

// BroadcastAll sends a message to every connected client without blocking
// the caller; the message is dropped if the hub is not draining.
func (h *Hub) BroadcastAll(message []byte) {
	select {
	case h.Broadcast <- message:
	default:
		log.Warn().Msg("Hub broadcast queue full, dropping message")
	}
}

// BroadcastTo sends a message to all clients subscribed to a specific list
// ID. Delivery is asynchronous; if the hub's queue is full the message is
// dropped rather than blocking the caller's request.
func (h *Hub) BroadcastTo(listID string, message []byte) {
	select {
	case h.directed <- directedMessage{listID: listID, message: message}:
	default:
		log.Warn().Str("list_id", listID).Msg("Hub queue full, dropping message")
	}
}

func (h *Hub) addSubscription(client *Client, listID string) {
	if h.subscriptions[listID] == nil {
		h.subscriptions[listID] = make(map[*Client]bool)
	}
	h.subscriptions[listID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for listID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, listID)
			}
		}
	}
}
