// internal/domain/models/transaction.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction types.
const (
	TxnWalletFunding    = "wallet_funding"
	TxnAjoContribution  = "ajo_contribution"
	TxnAjoPayout        = "ajo_payout"
	TxnDuesPayment      = "dues_payment"
	TxnCampaignDonation = "campaign_donation"
	TxnDisbursement     = "disbursement"
)

// Transaction records a single money movement for a user. Reference is a
// UUID used for reconciliation and duplicate suppression.
type Transaction struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `bson:"user_id"`
	WalletID    *primitive.ObjectID `bson:"wallet_id,omitempty"`
	Type        string              `bson:"type"`
	Amount      int64               `bson:"amount"`
	Description string              `bson:"description,omitempty"`
	Reference   string              `bson:"reference"`
	Status      string              `bson:"status"` // "completed", "pending", "failed"
	Metadata    map[string]string   `bson:"metadata,omitempty"`
	CreatedAt   time.Time           `bson:"created_at"`
}
