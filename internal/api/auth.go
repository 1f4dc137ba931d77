package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
	"github.com/erazemk/najdeno/internal/store"
)

// ProviderPassword is the name of the built-in password provider.
const ProviderPassword = "password"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Service   *service.Service
	JWTSecret string
	Providers map[string]auth.Provider
	// SecureCookie marks the session cookie Secure, for HTTPS deployments.
	SecureCookie bool
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	IDToken  string `json:"idToken"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Service.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.startSession(w, r, http.StatusCreated, user)
}

// Login handles POST /api/auth/login with the password provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, ProviderPassword)
}

// LoginWith handles POST /api/auth/login/{provider}.
func (h *AuthHandler) LoginWith(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, chi.URLParam(r, "provider"))
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, name string) {
	provider, ok := h.Providers[name]
	if !ok {
		jsonError(w, http.StatusNotFound, "provider not found")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := provider.Authenticate(r.Context(), auth.Credentials{
		Login:    req.Login,
		Password: req.Password,
		IDToken:  req.IDToken,
	})
	if err != nil {
		slog.Warn("login rejected", "provider", name, "remote", r.RemoteAddr)
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user", user.ID, "role", user.Role, "provider", name)
	h.startSession(w, r, http.StatusOK, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	jsonResponse(w, status, sessionResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	expires := time.Now().Add(auth.TokenExpiry)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.Service.DB(), claims.ID, expires); err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("user logged out", "user", claims.UserID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/auth/user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.CurrentUser(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ChangePassword(r.Context(), callerFrom(r), req); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
