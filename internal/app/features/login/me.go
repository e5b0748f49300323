// internal/app/features/login/me.go
package login

import (
	"net/http"

	userstore "github.com/kolohq/kolo/internal/app/store/users"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeMe handles GET /auth/me. Reads the user fresh from the database so
// a role change or account disable takes effect without re-login.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "current user")
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("lookup current user failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, userView{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	})
}
