package httpapi

import (
	"errors"
	"net/http"

	"eventdesk.org/internal/auth"
	"eventdesk.org/internal/obs"
)

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		obs.ObserveLogin("invalid_request")
		msg := "Invalid payload"
		if errors.Is(err, errEmptyBody) {
			msg = "Email and password are required"
		}
		writeJSON(w, http.StatusBadRequest, auth.Response{
			Status:     auth.StatusBadRequest,
			Message:    msg,
			StatusCode: http.StatusBadRequest,
		})
		return
	}

	resp := a.auth.Login(r.Context(), req)
	obs.ObserveLogin(loginResult(resp))
	if resp.OK() {
		data, _ := resp.Data.(auth.SessionData)
		a.auditEvent(r.Context(), "auth.login", map[string]any{"user_id": data.User.UserID})
	} else {
		a.auditEvent(r.Context(), "auth.login.failed", map[string]any{"reason": resp.Message})
	}
	writeJSON(w, resp.HTTPStatus(), resp)
}

func loginResult(resp auth.Response) string {
	switch {
	case resp.OK():
		return "success"
	case resp.StatusCode == http.StatusBadRequest:
		return "invalid_request"
	case resp.StatusCode == http.StatusNotFound:
		return "unknown_user"
	case resp.Message == "Invalid credentials":
		return "invalid_credentials"
	default:
		return "error"
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	req := &auth.RegisterRequest{}
	if err := decodeJSON(w, r, req); err != nil {
		if !errors.Is(err, errEmptyBody) {
			writeJSON(w, http.StatusBadRequest, auth.Response{
				Status:     auth.StatusBadRequest,
				Message:    "Invalid payload",
				StatusCode: http.StatusBadRequest,
			})
			return
		}
		req = nil
	}

	resp := a.auth.Register(r.Context(), req, r.Header.Get(authHeader))
	if resp.OK() {
		data, _ := resp.Data.(auth.SessionData)
		a.auditEvent(r.Context(), "auth.register", map[string]any{"user_id": data.User.UserID})
	}
	writeJSON(w, resp.HTTPStatus(), resp)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	requester, _ := auth.IdentityFromContext(r.Context())
	resp := a.auth.Profile(r.Context(), requester, r.PathValue("id"))
	writeJSON(w, resp.HTTPStatus(), resp)
}
