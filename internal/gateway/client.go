package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/fractalmind-ai/labelkit/pkg/protocol"
	"github.com/gorilla/websocket"
)

const (
	readLimit    = 1 << 20
	pongWait     = 60 * time.Second
	embedTimeout = 30 * time.Second
)

// Client represents a connected WebSocket client
type Client struct {
	ID        string
	Conn      *websocket.Conn
	Server    *Server
	sendLock  sync.Mutex
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new client
func NewClient(id string, conn *websocket.Conn, server *Server) *Client {
	return &Client{
		ID:        id,
		Conn:      conn,
		Server:    server,
		closeChan: make(chan struct{}),
	}
}

// Handle processes incoming messages from client
func (c *Client) Handle() {
	defer c.Close()

	for {
		select {
		case <-c.closeChan:
			return

		default:
			var msg protocol.Message
			if err := c.Conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("WebSocket error [%s]: %v", c.ID, err)
				}
				return
			}

			c.ProcessMessage(&msg)
		}
	}
}

// ProcessMessage handles incoming message based on type
func (c *Client) ProcessMessage(msg *protocol.Message) {
	if msg == nil {
		return
	}

	switch msg.Kind {
	case protocol.MessageKindEmbed:
		c.handleEmbedMessage(msg)
	case protocol.MessageKindVocab:
		c.handleVocabMessage(msg)
	case protocol.MessageKindEvent:
		c.handleEventMessage(msg)
	default:
		log.Printf("Unknown message kind: %s", msg.Kind)
	}
}

// handleEventMessage processes event messages.
func (c *Client) handleEventMessage(msg *protocol.Message) {
	switch msg.Action {
	case protocol.ActionEcho:
		resp := protocol.Message{
			Kind:   protocol.MessageKindEvent,
			Action: protocol.ActionEcho,
			Data:   msg.Data,
		}
		if err := c.Send(&resp); err != nil {
			log.Printf("Echo send error [%s]: %v", c.ID, err)
		}
	default:
		log.Printf("Unknown event action: %s", msg.Action)
	}
}

// handleEmbedMessage serves embed requests over the socket.
func (c *Client) handleEmbedMessage(msg *protocol.Message) {
	switch msg.Action {
	case protocol.ActionEncode:
		var req protocol.EmbedRequest
		if err := decodeData(msg.Data, &req); err != nil {
			c.sendError(msg.Kind, msg.Action, "invalid embed request")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), embedTimeout)
		defer cancel()
		vectors, err := c.Server.embedTexts(ctx, req.Texts)
		if err != nil {
			c.sendError(msg.Kind, msg.Action, err.Error())
			return
		}
		resp := protocol.Message{
			Kind:   protocol.MessageKindEmbed,
			Action: protocol.ActionEncode,
			Data: protocol.EmbedResponse{
				Vectors: vectors,
				Dim:     c.Server.status.EmbeddingSize,
			},
		}
		if err := c.Send(&resp); err != nil {
			log.Printf("Embed send error [%s]: %v", c.ID, err)
		}
	default:
		log.Printf("Unknown embed action: %s", msg.Action)
	}
}

// handleVocabMessage serves vocabulary queries.
func (c *Client) handleVocabMessage(msg *protocol.Message) {
	switch msg.Action {
	case protocol.ActionLookup:
		var req protocol.LookupRequest
		if err := decodeData(msg.Data, &req); err != nil {
			c.sendError(msg.Kind, msg.Action, "invalid lookup request")
			return
		}
		indices, err := c.Server.service.LookupTokens(req.Tokens)
		if err != nil {
			c.sendError(msg.Kind, msg.Action, err.Error())
			return
		}
		resp := protocol.Message{
			Kind:   protocol.MessageKindVocab,
			Action: protocol.ActionLookup,
			Data:   protocol.LookupResponse{Indices: indices},
		}
		if err := c.Send(&resp); err != nil {
			log.Printf("Lookup send error [%s]: %v", c.ID, err)
		}
	case protocol.ActionSimilar:
		var req protocol.SimilarRequest
		if err := decodeData(msg.Data, &req); err != nil {
			c.sendError(msg.Kind, msg.Action, "invalid similar request")
			return
		}
		neighbors, err := c.Server.service.MostSimilar(req.Word, req.TopN)
		if err != nil {
			c.sendError(msg.Kind, msg.Action, err.Error())
			return
		}
		payload := protocol.SimilarResponse{
			Neighbors: make([]protocol.SimilarNeighbor, len(neighbors)),
		}
		for i, neighbor := range neighbors {
			payload.Neighbors[i] = protocol.SimilarNeighbor{Word: neighbor.Word, Score: neighbor.Score}
		}
		resp := protocol.Message{
			Kind:   protocol.MessageKindVocab,
			Action: protocol.ActionSimilar,
			Data:   payload,
		}
		if err := c.Send(&resp); err != nil {
			log.Printf("Similar send error [%s]: %v", c.ID, err)
		}
	default:
		log.Printf("Unknown vocab action: %s", msg.Action)
	}
}

func (c *Client) sendError(kind protocol.MessageKind, action protocol.Action, text string) {
	resp := protocol.Message{
		Kind:   kind,
		Action: action,
		Error:  text,
	}
	if err := c.Send(&resp); err != nil {
		log.Printf("Error send error [%s]: %v", c.ID, err)
	}
}

// Send sends a message to client
func (c *Client) Send(msg *protocol.Message) error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	return c.Conn.WriteJSON(msg)
}

// Close closes the client connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		c.Conn.Close()
		c.Server.removeClient(c.ID)
		log.Printf("client disconnected: %s", c.ID)
	})
}

// decodeData remarshals the loosely typed message data into a payload
// struct.
func decodeData(data interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
