package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"go.uber.org/zap"
)

const sessionCookieName = "admin_session"

type AuthHandler struct {
	auth         ports.AdminAuthenticator
	isProduction bool
	log          *zap.Logger
}

func NewAuthHandler(auth ports.AdminAuthenticator, isProduction bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, isProduction: isProduction, log: log}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if err := renderHTML(w, http.StatusOK, "login.html", pageData{Title: "Admin Login"}); err != nil {
		h.log.Error("render page", zap.String("template", "login.html"), zap.Error(err))
	}
}

// Login exchanges the admin password for a session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)

	var req loginRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		req.Password = r.PostForm.Get("password")
	}

	session, err := h.auth.Login(r.Context(), req.Password)
	if errors.Is(err, domain.ErrForbidden) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err != nil {
		h.log.Error("admin login failed", zap.Error(err), zap.String("request_id", requestID(r)))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, session)
		return
	}
	http.Redirect(w, r, "/admin/panel", http.StatusFound)
}
