package httpapi

import (
	"net/http"

	"eventdesk.org/internal/auth"
	"eventdesk.org/internal/obs"
)

const authHeader = "Authorization"

// Gate outcomes as reported in auth_gate_decisions_total.
const (
	gatePublic       = "public"
	gateAllowed      = "allowed"
	gateDenied       = "denied"
	gateUnauthorized = "unauthorized"
)

// withGate runs the access gate for one route before next. Authentication
// failures answer 401, failed role checks 403.
func (a *API) withGate(access auth.Route, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := a.gate.Authenticate(access, r.Header.Get(authHeader))
		if err != nil {
			obs.ObserveGateDecision(gateUnauthorized)
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		if decision.Public {
			obs.ObserveGateDecision(gatePublic)
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), decision.Identity)
		ctx = auth.ContextWithToken(ctx, decision.Token)
		if !decision.Allowed {
			obs.ObserveGateDecision(gateDenied)
			a.auditEvent(ctx, "access.denied", map[string]any{
				"path":     r.URL.Path,
				"required": access.RequiredRoles,
				"roles":    decision.Identity.Roles,
			})
			writeError(w, r, http.StatusForbidden, "forbidden")
			return
		}
		obs.ObserveGateDecision(gateAllowed)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
