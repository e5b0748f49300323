package transactions

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestHub_PublishReachesOwnerOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())

	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	ownerConn := &websocket.Conn{}
	otherConn := &websocket.Conn{}
	ownerCh := hub.Subscribe(owner.Hex(), ownerConn)
	otherCh := hub.Subscribe(other.Hex(), otherConn)

	hub.Publish(models.Transaction{
		ID:        primitive.NewObjectID(),
		UserID:    owner,
		Type:      models.TxnWalletFunding,
		Amount:    5000,
		Reference: "ref-1",
		Status:    "completed",
		CreatedAt: time.Now().UTC(),
	}, 5000)

	select {
	case ev := <-ownerCh:
		if ev.Amount != 5000 || ev.Balance != 5000 {
			t.Errorf("event = %+v, want amount/balance 5000", ev)
		}
	default:
		t.Fatal("owner did not receive the event")
	}

	select {
	case ev := <-otherCh:
		t.Fatalf("another user received the event: %+v", ev)
	default:
	}
}

func TestHub_PublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zap.NewNop())

	userID := primitive.NewObjectID()
	ch := hub.Subscribe(userID.Hex(), &websocket.Conn{})

	txn := models.Transaction{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Type:      models.TxnWalletFunding,
		Amount:    100,
		CreatedAt: time.Now().UTC(),
	}
	// Overfill the buffer; Publish must never block.
	for i := 0; i < sendBuffer+5; i++ {
		hub.Publish(txn, int64(i))
	}

	if len(ch) != sendBuffer {
		t.Errorf("buffered events = %d, want %d", len(ch), sendBuffer)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(zap.NewNop())

	userID := primitive.NewObjectID()
	conn := &websocket.Conn{}
	ch := hub.Subscribe(userID.Hex(), conn)
	hub.Unsubscribe(userID.Hex(), conn)

	if _, open := <-ch; open {
		t.Error("expected channel to be closed after Unsubscribe")
	}

	// Publishing after unsubscribe is a no-op.
	hub.Publish(models.Transaction{UserID: userID, ID: primitive.NewObjectID()}, 0)
}
