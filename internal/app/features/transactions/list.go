// internal/app/features/transactions/list.go
package transactions

import (
	"net/http"
	"time"

	txnstore "github.com/kolohq/kolo/internal/app/store/transactions"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/paging"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type txnView struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// ServeList handles GET /transactions: the caller's history, newest
// first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list transactions")
	defer cancel()

	items, err := txnstore.New(h.DB).ListForUser(ctx, userID, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list transactions failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	out := make([]txnView, 0, len(items))
	for _, t := range items {
		out = append(out, txnView{
			ID:          t.ID.Hex(),
			Type:        t.Type,
			Amount:      t.Amount,
			Description: t.Description,
			Reference:   t.Reference,
			Status:      t.Status,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, out)
}
