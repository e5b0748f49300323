// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	ajofeature "github.com/kolohq/kolo/internal/app/features/ajo"
	authgooglefeature "github.com/kolohq/kolo/internal/app/features/authgoogle"
	campaignsfeature "github.com/kolohq/kolo/internal/app/features/campaigns"
	duesfeature "github.com/kolohq/kolo/internal/app/features/dues"
	governancefeature "github.com/kolohq/kolo/internal/app/features/governance"
	groupsfeature "github.com/kolohq/kolo/internal/app/features/groups"
	healthfeature "github.com/kolohq/kolo/internal/app/features/health"
	loginfeature "github.com/kolohq/kolo/internal/app/features/login"
	notificationsfeature "github.com/kolohq/kolo/internal/app/features/notifications"
	profilefeature "github.com/kolohq/kolo/internal/app/features/profile"
	transactionsfeature "github.com/kolohq/kolo/internal/app/features/transactions"
	walletsfeature "github.com/kolohq/kolo/internal/app/features/wallets"
	"github.com/kolohq/kolo/internal/app/policy/grouppolicy"
	auditstore "github.com/kolohq/kolo/internal/app/store/audit"
	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	"github.com/kolohq/kolo/internal/app/store/oauthstate"
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"github.com/kolohq/kolo/internal/app/system/auth"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the Kolo API.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. The API is consumed by the web
// client, so CORS is configured from AppConfig and every response is
// JSON (the transaction stream upgrades to a websocket).
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}
	auth.InitTokens(appCfg.JWTSecret, appCfg.JWTExpiry)

	db := deps.KoloMongoDatabase

	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Governance: appCfg.AuditLogGovernance,
		Auth:       appCfg.AuditLogAuth,
	})
	policy := grouppolicy.New(groupstore.New(db))
	notify := notificationstore.New(db)
	stream := transactionsfeature.NewHub(logger)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(appCfg.CORSAllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Loads the SessionUser into context for every request, from a bearer
	// token or the session cookie.
	r.Use(auth.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.KoloMongoClient, logger)
	r.Mount("/healthz", healthfeature.Routes(healthHandler))

	loginHandler := loginfeature.NewHandler(db, audit, logger, appCfg.DefaultCurrency)
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	googleHandler := authgooglefeature.NewHandler(db, audit, oauthstate.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, appCfg.DefaultCurrency, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	profileHandler := profilefeature.NewHandler(db, audit, notify, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	walletHandler := walletsfeature.NewHandler(db, stream, logger, appCfg.DefaultCurrency)
	r.Mount("/wallet", walletsfeature.Routes(walletHandler))

	txnHandler := transactionsfeature.NewHandler(db, stream, logger)
	r.Mount("/transactions", transactionsfeature.Routes(txnHandler))

	ajoHandler := ajofeature.NewHandler(db, stream, notify, logger)
	r.Mount("/ajo", ajofeature.Routes(ajoHandler))

	groupsHandler := groupsfeature.NewHandler(db, audit, policy, notify, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler))
	r.Mount("/invites", groupsfeature.InviteRoutes(groupsHandler))

	duesHandler := duesfeature.NewHandler(db, audit, policy, stream, notify, logger)
	r.Mount("/groups/{groupID}/dues", duesfeature.GroupRoutes(duesHandler))
	r.Mount("/dues", duesfeature.Routes(duesHandler))

	campaignsHandler := campaignsfeature.NewHandler(db, stream, notify, logger)
	r.Mount("/campaigns", campaignsfeature.Routes(campaignsHandler))

	governanceHandler := governancefeature.NewHandler(db, audit, policy, notify, logger)
	r.Mount("/groups/{groupID}/governance", governancefeature.GroupRoutes(governanceHandler))
	r.Mount("/disbursements", governancefeature.DisbursementRoutes(governanceHandler))
	r.Mount("/polls", governancefeature.PollRoutes(governanceHandler))
	r.Mount("/elections", governancefeature.ElectionRoutes(governanceHandler))

	notificationsHandler := notificationsfeature.NewHandler(notify, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

	return r, nil
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = []string{"http://localhost:5173"}
	}
	return out
}
