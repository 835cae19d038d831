package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yachtlive/yacht/internal/auth"
)

// GuestLoginHandler mints a guest identity, sets the auth_token cookie and
// returns the identity. There are no persistent accounts; every session is
// a guest session.
func (s *Server) GuestLoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		http.Error(w, "bad login payload", http.StatusBadRequest)
		return
	}

	ident := auth.NewGuest(strings.TrimSpace(req.Nickname))
	token, err := auth.CreateJWT(ident)
	if err != nil {
		s.Logger.WithError(err).Error("failed to sign guest token")
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ident)
}

// identityFromRequest authenticates the auth_token cookie. Identity is
// consumed read-only by every room and game operation.
func identityFromRequest(r *http.Request) (auth.Identity, error) {
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.AuthenticateJWT(cookie.Value)
}
