// internal/app/features/campaigns/contribute.go
package campaigns

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	campaignstore "github.com/kolohq/kolo/internal/app/store/campaigns"
	txnstore "github.com/kolohq/kolo/internal/app/store/transactions"
	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/inputval"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type contributeRequest struct {
	Amount int64 `json:"amount"`
}

// ServeContribute handles POST /campaigns/{campaignID}/contribute: debits
// the contributor's wallet and adds to the campaign's running total. The
// campaign total only ever grows, and only while the campaign is active.
func (h *Handler) ServeContribute(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "campaignID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid campaign id")
		return
	}

	var req contributeRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	if err := inputval.Amount(req.Amount); err != nil {
		httpjson.Unprocessable(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "contribute to campaign")
	defer cancel()

	store := campaignstore.New(h.DB)
	c, err := store.GetByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "campaign not found")
		return
	}

	wallets := walletstore.New(h.DB)
	wal, err := wallets.GetByUser(ctx, userID)
	if err != nil {
		h.Log.Error("load wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	wal, err = wallets.Debit(ctx, wal.ID, req.Amount)
	if errors.Is(err, walletstore.ErrInsufficientFunds) {
		httpjson.Error(w, http.StatusConflict, "insufficient wallet balance")
		return
	}
	if err != nil {
		h.Log.Error("debit wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	c, err = store.Contribute(ctx, id, req.Amount)
	if errors.Is(err, campaignstore.ErrNotActive) {
		// Campaign closed between the read and the write; give the money
		// back.
		if _, cErr := wallets.Credit(ctx, wal.ID, req.Amount); cErr != nil {
			h.Log.Error("refund after closed campaign", zap.Error(cErr))
		}
		httpjson.Error(w, http.StatusConflict, "campaign is not accepting contributions")
		return
	}
	if err != nil {
		h.Log.Error("record campaign contribution failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	txn, err := txnstore.New(h.DB).Record(ctx, models.Transaction{
		UserID:      userID,
		WalletID:    &wal.ID,
		Type:        models.TxnCampaignDonation,
		Amount:      req.Amount,
		Description: "Donation to " + c.Title,
		Metadata:    map[string]string{"campaign_id": id.Hex()},
	})
	if err != nil {
		h.Log.Error("record donation transaction failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if nErr := h.Notify.Send(ctx, c.CreatedBy, models.NotifyPayment, "New donation", name+" donated to "+c.Title+"."); nErr != nil {
		h.Log.Warn("notify campaign creator failed", zap.Error(nErr))
	}

	h.Stream.Publish(txn, wal.Balance)
	httpjson.Write(w, http.StatusOK, map[string]any{
		"campaign":  toView(c),
		"balance":   wal.Balance,
		"reference": txn.Reference,
	})
}
