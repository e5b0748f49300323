// internal/app/features/transactions/hub.go
package transactions

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.uber.org/zap"
)

// TxnEvent is the wire shape pushed to stream subscribers when one of
// their transactions lands.
type TxnEvent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	Balance     int64  `json:"balance"`
	CreatedAt   string `json:"created_at"`
}

// Hub fans transaction events out to each user's open stream connections.
// A slow or dead connection is dropped rather than allowed to block the
// send path.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]chan TxnEvent
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[string]map[*websocket.Conn]chan TxnEvent),
		log:   log,
	}
}

const sendBuffer = 16

// Subscribe registers a connection for the user and returns its event
// channel. The caller owns the write pump; Unsubscribe closes the channel.
func (h *Hub) Subscribe(userID string, c *websocket.Conn) chan TxnEvent {
	ch := make(chan TxnEvent, sendBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]chan TxnEvent)
	}
	h.conns[userID][c] = ch
	return ch
}

// Unsubscribe removes the connection and closes its channel.
func (h *Hub) Unsubscribe(userID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if chans, ok := h.conns[userID]; ok {
		if ch, ok := chans[c]; ok {
			delete(chans, c)
			close(ch)
		}
		if len(chans) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Publish pushes a transaction to the owner's open streams. balance is the
// wallet balance after the transaction. Never blocks: a full buffer means
// the event is dropped for that connection and the client resyncs from the
// list endpoint.
func (h *Hub) Publish(t models.Transaction, balance int64) {
	ev := TxnEvent{
		ID:          t.ID.Hex(),
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		Reference:   t.Reference,
		Status:      t.Status,
		Balance:     balance,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	userID := t.UserID.Hex()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.conns[userID] {
		select {
		case ch <- ev:
		default:
			h.log.Debug("transaction stream buffer full, dropping event",
				zap.String("user_id", userID))
		}
	}
}
