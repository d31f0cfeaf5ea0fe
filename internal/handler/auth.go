package handler

import (
	"net/http"
	"time"

	"github.com/repair-commons/repaircafe/internal/service"
)

// AuthHandler serves the magic-link sign-in flow.
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// RequestMagicLink handles POST /api/auth/magic-link
// Always answers 200 on a well-formed email so the endpoint does not leak
// which addresses have accounts.
func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if _, err := h.svc.RequestMagicLink(r.Context(), req.Email, req.Name); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "check your email for a sign-in link",
	})
}

// Verify handles GET /auth/verify?token=...
// Redeems the link, sets the session cookie, and redirects to the app.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.VerifyMagicLink(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SignOut handles POST /api/auth/sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.svc.SignOut(r.Context(), cookie.Value); err != nil {
			respondError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me handles GET /api/auth/me
// Returns the signed-in user, or 401 without a valid session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}
