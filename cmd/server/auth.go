package main

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/DongSeo/platform/internal/auth"
	"github.com/DongSeo/platform/internal/httpx"
	"github.com/DongSeo/platform/internal/observability"
)

const (
	msgLoginFieldsRequired = "username, password 필수"
	msgLoginFailed         = "사용자 없음 또는 비밀번호 오류"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginError struct {
	Error string `json:"error"`
}

// handleLogin answers with the short {"error": ...} body the web client
// expects instead of the regular envelope.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, loginError{Error: msgLoginFieldsRequired})
		return
	}

	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		httpx.WriteJSON(w, http.StatusUnauthorized, loginError{Error: msgLoginFailed})
		return
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).Info("user logged in", zap.String("username", token.Username))
	httpx.WriteJSON(w, http.StatusOK, token)
}
