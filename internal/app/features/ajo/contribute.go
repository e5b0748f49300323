// internal/app/features/ajo/contribute.go
package ajo

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	ajostore "github.com/kolohq/kolo/internal/app/store/ajo"
	txnstore "github.com/kolohq/kolo/internal/app/store/transactions"
	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeContribute handles POST /ajo/{groupID}/contribute: debits the
// member's wallet by the group's fixed contribution amount and records
// both the transaction and the seat's running total.
func (h *Handler) ServeContribute(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "ajo contribute")
	defer cancel()

	store := ajostore.New(h.DB)
	g, err := store.GetByID(ctx, groupID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "ajo group not found")
		return
	}
	if g.Status != models.AjoActive {
		httpjson.Error(w, http.StatusConflict, "group is not active")
		return
	}
	if _, err := store.GetMembership(ctx, groupID, userID); err != nil {
		if errors.Is(err, ajostore.ErrNotMember) {
			httpjson.Error(w, http.StatusForbidden, "members only")
			return
		}
		h.Log.Error("load ajo membership failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	wallets := walletstore.New(h.DB)
	wal, err := wallets.GetByUser(ctx, userID)
	if err != nil {
		h.Log.Error("load wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	wal, err = wallets.Debit(ctx, wal.ID, g.ContributionAmount)
	if errors.Is(err, walletstore.ErrInsufficientFunds) {
		httpjson.Error(w, http.StatusConflict, "insufficient wallet balance")
		return
	}
	if err != nil {
		h.Log.Error("debit wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := store.AddContribution(ctx, groupID, userID, g.ContributionAmount); err != nil {
		h.Log.Error("record ajo contribution failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	txn, err := txnstore.New(h.DB).Record(ctx, models.Transaction{
		UserID:      userID,
		WalletID:    &wal.ID,
		Type:        models.TxnAjoContribution,
		Amount:      g.ContributionAmount,
		Description: "Contribution to " + g.Name,
		Metadata:    map[string]string{"ajo_group_id": groupID.Hex()},
	})
	if err != nil {
		h.Log.Error("record contribution transaction failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	h.Stream.Publish(txn, wal.Balance)
	httpjson.Write(w, http.StatusOK, map[string]any{
		"balance":   wal.Balance,
		"reference": txn.Reference,
	})
}
