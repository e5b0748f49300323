// internal/app/features/profile/kyc.go
package profile

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	profilestore "github.com/kolohq/kolo/internal/app/store/profiles"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/paging"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var kycDocTypes = map[string]bool{
	"nin":             true,
	"passport":        true,
	"drivers_license": true,
}

type submitKYCRequest struct {
	DocType string `json:"doc_type"`
	DocRef  string `json:"doc_ref"`
}

// ServeSubmitKYC handles POST /profile/kyc. Only unverified or rejected
// profiles may submit; a pending or verified profile gets a conflict.
func (h *Handler) ServeSubmitKYC(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req submitKYCRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	req.DocType = strings.ToLower(strings.TrimSpace(req.DocType))
	req.DocRef = strings.TrimSpace(req.DocRef)
	if !kycDocTypes[req.DocType] {
		httpjson.Unprocessable(w, "doc_type must be one of nin, passport, drivers_license")
		return
	}
	if req.DocRef == "" {
		httpjson.Unprocessable(w, "doc_ref is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "submit kyc")
	defer cancel()

	store := profilestore.New(h.DB)
	if _, err := store.EnsureFor(ctx, userID); err != nil {
		h.Log.Error("ensure profile failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	err := store.SubmitKYC(ctx, userID, req.DocType, req.DocRef)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusConflict, "kyc is already pending or verified")
		return
	}
	if err != nil {
		h.Log.Error("submit kyc failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusAccepted, map[string]string{"kyc_status": models.KYCPending})
}

// ServePendingKYC handles GET /profile/kyc/pending (admin).
func (h *Handler) ServePendingKYC(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list pending kyc")
	defer cancel()

	items, err := profilestore.New(h.DB).ListPendingKYC(ctx, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list pending kyc failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	type pendingView struct {
		UserID  string `json:"user_id"`
		DocType string `json:"doc_type"`
		DocRef  string `json:"doc_ref"`
	}
	out := make([]pendingView, 0, len(items))
	for _, p := range items {
		out = append(out, pendingView{
			UserID:  p.UserID.Hex(),
			DocType: p.KYCDocType,
			DocRef:  p.KYCDocRef,
		})
	}
	httpjson.Write(w, http.StatusOK, out)
}

type decideKYCRequest struct {
	Decision string `json:"decision"` // "verified" or "rejected"
}

// ServeDecideKYC handles POST /profile/kyc/{userID}/decision (admin).
func (h *Handler) ServeDecideKYC(w http.ResponseWriter, r *http.Request) {
	_, _, reviewerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	subjectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid user id")
		return
	}

	var req decideKYCRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if decision != models.KYCVerified && decision != models.KYCRejected {
		httpjson.Unprocessable(w, "decision must be verified or rejected")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "decide kyc")
	defer cancel()

	err = profilestore.New(h.DB).DecideKYC(ctx, subjectID, decision, reviewerID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusConflict, "no pending kyc submission for this user")
		return
	}
	if err != nil {
		h.Log.Error("decide kyc failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	// KYC is platform scope, not tied to any group, so the decision goes
	// to the operational log rather than a group's governance trail.
	h.Audit.Auth(subjectID, "kyc_"+decision, "")

	title := "Identity verified"
	body := "Your identity verification was approved."
	if decision == models.KYCRejected {
		title = "Identity verification rejected"
		body = "Your identity verification was rejected. You can submit new documents."
	}
	if nErr := h.Notify.Send(ctx, subjectID, models.NotifyKYC, title, body); nErr != nil {
		h.Log.Warn("kyc decision notification failed", zap.Error(nErr))
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"kyc_status": decision})
}
