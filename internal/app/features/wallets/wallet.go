// internal/app/features/wallets/wallet.go
package wallets

import (
	"errors"
	"net/http"

	txnstore "github.com/kolohq/kolo/internal/app/store/transactions"
	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/inputval"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.uber.org/zap"
)

type walletView struct {
	ID       string `json:"id"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// ServeGet handles GET /wallet.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get wallet")
	defer cancel()

	wal, err := walletstore.New(h.DB).EnsureFor(ctx, userID, h.Currency)
	if err != nil {
		h.Log.Error("get wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, walletView{
		ID:       wal.ID.Hex(),
		Balance:  wal.Balance,
		Currency: wal.Currency,
	})
}

type fundRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

// ServeFund handles POST /wallet/fund: credits the wallet and records the
// funding transaction. Supplying a reference makes retries idempotent;
// a duplicate reference reports conflict without double-crediting.
func (h *Handler) ServeFund(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req fundRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	if err := inputval.Amount(req.Amount); err != nil {
		httpjson.Unprocessable(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "fund wallet")
	defer cancel()

	wallets := walletstore.New(h.DB)
	wal, err := wallets.EnsureFor(ctx, userID, h.Currency)
	if err != nil {
		h.Log.Error("ensure wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	// The transaction row goes in first so a duplicate reference is
	// caught before any balance moves.
	txn, err := txnstore.New(h.DB).Record(ctx, models.Transaction{
		UserID:    userID,
		WalletID:  &wal.ID,
		Type:      models.TxnWalletFunding,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if errors.Is(err, txnstore.ErrDuplicateReference) {
		httpjson.Error(w, http.StatusConflict, "a transaction with this reference already exists")
		return
	}
	if err != nil {
		h.Log.Error("record funding transaction failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	wal, err = wallets.Credit(ctx, wal.ID, req.Amount)
	if err != nil {
		h.Log.Error("credit wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	h.Stream.Publish(txn, wal.Balance)
	httpjson.Write(w, http.StatusOK, map[string]any{
		"wallet": walletView{
			ID:       wal.ID.Hex(),
			Balance:  wal.Balance,
			Currency: wal.Currency,
		},
		"reference": txn.Reference,
	})
}
