// internal/app/features/dues/pay.go
package dues

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	duesstore "github.com/kolohq/kolo/internal/app/store/dues"
	txnstore "github.com/kolohq/kolo/internal/app/store/transactions"
	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServePay handles POST /dues/{dueID}/pay: debits the member's wallet by
// the due amount and records the payment. The unique payment index makes
// a retried request report conflict rather than pay twice.
func (h *Handler) ServePay(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	dueID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "dueID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid due id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "pay due")
	defer cancel()

	store := duesstore.New(h.DB)
	d, err := store.GetByID(ctx, dueID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "due not found")
		return
	}

	isMember, err := h.Policy.IsMember(ctx, d.GroupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}

	wallets := walletstore.New(h.DB)
	wal, err := wallets.GetByUser(ctx, userID)
	if err != nil {
		h.Log.Error("load wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	wal, err = wallets.Debit(ctx, wal.ID, d.Amount)
	if errors.Is(err, walletstore.ErrInsufficientFunds) {
		httpjson.Error(w, http.StatusConflict, "insufficient wallet balance")
		return
	}
	if err != nil {
		h.Log.Error("debit wallet failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if _, err := store.RecordPayment(ctx, dueID, userID, d.Amount); err != nil {
		// Refund the debit before reporting; the payment never landed.
		if _, cErr := wallets.Credit(ctx, wal.ID, d.Amount); cErr != nil {
			h.Log.Error("refund after failed dues payment", zap.Error(cErr))
		}
		if errors.Is(err, duesstore.ErrAlreadyPaid) {
			httpjson.Error(w, http.StatusConflict, "this due has already been paid")
			return
		}
		h.Log.Error("record dues payment failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	txn, err := txnstore.New(h.DB).Record(ctx, models.Transaction{
		UserID:      userID,
		WalletID:    &wal.ID,
		Type:        models.TxnDuesPayment,
		Amount:      d.Amount,
		Description: "Paid due: " + d.Title,
		Metadata:    map[string]string{"due_id": dueID.Hex()},
	})
	if err != nil {
		h.Log.Error("record dues transaction failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, d.GroupID, userID, name+" paid due \""+d.Title+"\""); err != nil {
		httpjson.ServerError(w)
		return
	}

	h.Stream.Publish(txn, wal.Balance)
	httpjson.Write(w, http.StatusOK, map[string]any{
		"status":    models.DuePaid,
		"balance":   wal.Balance,
		"reference": txn.Reference,
	})
}

type paymentView struct {
	UserID     string `json:"user_id"`
	AmountPaid int64  `json:"amount_paid"`
	PaidAt     string `json:"paid_at"`
}

// ServePayments handles GET /dues/{dueID}/payments: who has paid. Group
// admins only.
func (h *Handler) ServePayments(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	dueID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "dueID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid due id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list due payments")
	defer cancel()

	store := duesstore.New(h.DB)
	d, err := store.GetByID(ctx, dueID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "due not found")
		return
	}
	canManage, err := h.Policy.CanManageGroup(ctx, d.GroupID, userID)
	if err != nil {
		h.Log.Error("manage check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !canManage {
		httpjson.Error(w, http.StatusForbidden, "group admins only")
		return
	}

	items, err := store.PaymentsForDue(ctx, dueID)
	if err != nil {
		h.Log.Error("list payments failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]paymentView, 0, len(items))
	for _, p := range items {
		out = append(out, paymentView{
			UserID:     p.UserID.Hex(),
			AmountPaid: p.AmountPaid,
			PaidAt:     p.PaidAt.Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, out)
}
